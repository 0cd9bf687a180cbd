// Package idcs talks to an identity domain's REST surface: the OAuth2 token
// endpoint and the SCIM admin API under /admin/v1.
package idcs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"iamtool/internal/common/logger"
	"iamtool/internal/common/ratelimit"
	"iamtool/internal/scim/protocol"
)

const (
	adminPath = "/admin/v1"

	// DefaultPageSize is the SCIM count requested per list page.
	DefaultPageSize = 100
	// maxPages bounds a single listing in case the server misreports totals.
	maxPages = 10000
)

// Client is a SCIM client for one identity domain, authenticated with a
// bearer token.
type Client struct {
	baseURL  string
	http     *http.Client // attaches the ambient bearer token
	base     *http.Client // no ambient credentials
	limiter  *ratelimit.Limiter
	pageSize int
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying transport client (timeouts, proxies, tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.base = hc }
}

// WithRateLimiter throttles every request through l.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithPageSize sets the SCIM count parameter for listings.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient returns a client for domainURL that sends token on every request.
func NewClient(domainURL string, token *oauth2.Token, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(domainURL, "/"),
		base:     &http.Client{Timeout: 60 * time.Second},
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.base)
	c.http = oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	c.http.Timeout = c.base.Timeout
	return c
}

func (c *Client) endpoint(resource string, query url.Values) string {
	u := c.baseURL + adminPath + "/" + strings.TrimLeft(resource, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do sends req through hc and returns the body of a 2xx response. Other
// statuses become *ServiceError.
func (c *Client) do(hc *http.Client, req *http.Request, operation string) ([]byte, int, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, 0, fmt.Errorf("%s: rate limiter: %w", operation, err)
	}

	logger.LogDebug(c.logger, "SCIM request", "method", req.Method, "url", req.URL.Path)

	resp, err := hc.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", operation, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%s: failed to read response: %w", operation, err)
	}

	logger.LogDebug(c.logger, "SCIM response", "method", req.Method, "url", req.URL.Path,
		"status", resp.StatusCode, "opcRequestId", resp.Header.Get("opc-request-id"))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, newServiceError(operation, resp, body)
	}
	return body, resp.StatusCode, nil
}

// list lazily pages through a SCIM collection using startIndex/count. Each
// range over the returned sequence starts again from the first page.
func list[T any](ctx context.Context, c *Client, resource string, query url.Values) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		startIndex := 1

		for page := 0; page < maxPages; page++ {
			q := url.Values{}
			for k, v := range query {
				q[k] = v
			}
			q.Set("startIndex", strconv.Itoa(startIndex))
			q.Set("count", strconv.Itoa(c.pageSize))

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(resource, q), nil)
			if err != nil {
				yield(zero, fmt.Errorf("failed to create request: %w", err))
				return
			}
			req.Header.Set("Accept", "application/scim+json, application/json")

			body, _, err := c.do(c.http, req, "list "+resource)
			if err != nil {
				yield(zero, err)
				return
			}

			resp, err := protocol.ParseListResponse[T](body)
			if err != nil {
				yield(zero, fmt.Errorf("list %s: failed to parse response: %w", resource, err))
				return
			}

			for _, r := range resp.Resources {
				if !yield(r, nil) {
					return
				}
			}

			if len(resp.Resources) == 0 {
				return
			}
			if resp.StartIndex > 0 {
				startIndex = resp.StartIndex
			}
			startIndex += len(resp.Resources)
			if resp.TotalResults == 0 {
				// totalResults omitted: a short page is the last one
				if len(resp.Resources) < c.pageSize {
					return
				}
				continue
			}
			if startIndex > resp.TotalResults {
				return
			}
		}
		yield(zero, fmt.Errorf("list %s: gave up after %d pages", resource, maxPages))
	}
}

// Users lists users matching a SCIM filter, projecting attributes.
func (c *Client) Users(ctx context.Context, filter string, attributes ...string) iter.Seq2[protocol.User, error] {
	q := url.Values{}
	if filter != "" {
		q.Set("filter", filter)
	}
	if len(attributes) > 0 {
		q.Set("attributes", strings.Join(attributes, ","))
	}
	return list[protocol.User](ctx, c, "Users", q)
}

// UsersWithUserNameContaining lists users whose userName contains substr,
// returning only userName and emails.
func (c *Client) UsersWithUserNameContaining(ctx context.Context, substr string) iter.Seq2[protocol.User, error] {
	return c.Users(ctx, protocol.ContainsFilter("userName", substr), "userName", "emails")
}

// Apps lists every application in the domain.
func (c *Client) Apps(ctx context.Context) iter.Seq2[protocol.App, error] {
	q := url.Values{}
	q.Set("attributes", "name,displayName,active,isOPCService,clientSecret")
	return list[protocol.App](ctx, c, "Apps", q)
}

// BulkResult is the raw outcome of one POST /Bulk plus its parsed operations.
type BulkResult struct {
	StatusCode int
	Body       []byte
	Operations []protocol.OperationResult
}

// Failed returns the operations the server rejected.
func (r *BulkResult) Failed() []protocol.OperationResult {
	var failed []protocol.OperationResult
	for _, op := range r.Operations {
		if op.Failed() {
			failed = append(failed, op)
		}
	}
	return failed
}

// Bulk posts a BulkRequest. A transport failure or non-2xx status is returned
// as an error for the whole call; per-operation failures are reported in the
// result and are not an error.
func (c *Client) Bulk(ctx context.Context, bulk protocol.BulkRequest) (*BulkResult, error) {
	payload, err := json.Marshal(bulk)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bulk request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("Bulk", nil), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create bulk request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, status, err := c.do(c.http, req, "bulk request")
	if err != nil {
		return nil, err
	}

	result := &BulkResult{StatusCode: status, Body: body}
	if len(bytes.TrimSpace(body)) == 0 {
		return result, nil
	}
	ops, err := protocol.ParseBulkResponse(body)
	if err != nil {
		return result, fmt.Errorf("bulk request: %w", err)
	}
	result.Operations = ops
	return result, nil
}

// SetAppActive changes an application's active flag. When auth is non-nil it
// is sent as the Authorization header instead of the client's own token.
func (c *Client) SetAppActive(ctx context.Context, appID string, active bool, auth *oauth2.Token) error {
	changer := protocol.NewAppDeactivation()
	changer.Active = active
	payload, err := json.Marshal(changer)
	if err != nil {
		return fmt.Errorf("failed to marshal app status: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.endpoint("AppStatusChanger/"+url.PathEscape(appID), nil), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create app status request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	hc := c.http
	if auth != nil {
		auth.SetAuthHeader(req)
		hc = c.base
	}

	_, _, err = c.do(hc, req, "change status of app "+appID)
	return err
}
