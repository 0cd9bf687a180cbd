package idcs

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims holds the identity domain access-token claims shown in verbose mode.
type TokenClaims struct {
	ClientName string `json:"client_name"`
	ClientID   string `json:"client_id"`
	Scope      string `json:"scope"`
	jwt.RegisteredClaims
}

// Scopes splits the space-separated scope claim.
func (c *TokenClaims) Scopes() []string {
	return strings.Fields(c.Scope)
}

// ParseTokenClaims decodes claims without verifying the signature. The token
// was just issued by the domain over TLS; this is display only.
func ParseTokenClaims(tokenString string) (*TokenClaims, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, &TokenClaims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}
	claims, ok := token.Claims.(*TokenClaims)
	if !ok {
		return nil, fmt.Errorf("failed to extract claims from token")
	}
	return claims, nil
}
