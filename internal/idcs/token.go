package idcs

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

const (
	// TokenPath is the domain's OAuth2 token endpoint.
	TokenPath = "/oauth2/v1/token"
	// AdminScope grants every scope the client application was assigned.
	AdminScope = "urn:opc:idm:__myscopes__"
)

// BasicAuthorization builds the client-credentials Authorization header value
// from the raw id and secret, without form-encoding either part.
func BasicAuthorization(clientID, clientSecret string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(clientID+":"+clientSecret))
}

// TokenIssuer exchanges client credentials for a bearer token.
type TokenIssuer struct {
	httpClient *http.Client
	now        func() time.Time
}

// NewTokenIssuer returns an issuer using httpClient, or a 30s-timeout client when nil.
func NewTokenIssuer(httpClient *http.Client) *TokenIssuer {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &TokenIssuer{httpClient: httpClient, now: time.Now}
}

// Issue performs the client-credentials grant against domainURL. Tokens are
// never cached; every call mints a new one.
func (ti *TokenIssuer) Issue(ctx context.Context, domainURL, clientID, clientSecret string) (*oauth2.Token, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", AdminScope)

	endpoint := strings.TrimRight(domainURL, "/") + TokenPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", BasicAuthorization(clientID, clientSecret))

	resp, err := ti.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newServiceError("token request", resp, body)
	}

	if !gjson.ValidBytes(body) {
		return nil, &ServiceError{
			Operation:  "token request",
			StatusCode: resp.StatusCode,
			Detail:     "response is not JSON",
			RequestID:  resp.Header.Get("opc-request-id"),
		}
	}

	fields := gjson.GetManyBytes(body, "access_token", "token_type", "expires_in")
	if fields[0].String() == "" {
		return nil, &ServiceError{
			Operation:  "token request",
			StatusCode: resp.StatusCode,
			Detail:     "response has no access_token",
			RequestID:  resp.Header.Get("opc-request-id"),
		}
	}

	tok := &oauth2.Token{
		AccessToken: fields[0].String(),
		TokenType:   fields[1].String(),
	}
	if secs := fields[2].Int(); secs > 0 {
		tok.Expiry = ti.now().Add(time.Duration(secs) * time.Second)
	}
	return tok, nil
}
