package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"iamtool/internal/common/security"
	"iamtool/internal/idcs"
)

// printTokenInfo shows a masked token and its display claims.
func printTokenInfo(w io.Writer, tok *oauth2.Token) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Token Information:")
	fmt.Fprintln(w, "------------------")
	fmt.Fprintf(w, "Token type: %s\n", tok.Type())
	if !tok.Expiry.IsZero() {
		fmt.Fprintf(w, "Expires at: %s\n", tok.Expiry.Format("2006-01-02 15:04:05 MST"))
		fmt.Fprintf(w, "Valid for: %s\n", time.Until(tok.Expiry).Round(time.Second))
	}
	fmt.Fprintf(w, "Token (masked): %s\n", security.MaskAccessToken(tok.AccessToken))
	fmt.Fprintf(w, "Token length: %d characters\n", len(tok.AccessToken))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "JWT Claims:")
	claims, err := idcs.ParseTokenClaims(tok.AccessToken)
	if err != nil {
		fmt.Fprintf(w, "  (Could not parse JWT claims: %v)\n", err)
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintf(w, "  Client Name: %s\n", ifEmpty(claims.ClientName, "(not available)"))
	fmt.Fprintf(w, "  Client ID: %s\n", security.MaskClientID(ifEmpty(claims.ClientID, claims.Subject)))
	scopes := "(none)"
	if s := claims.Scopes(); len(s) > 0 {
		scopes = strings.Join(s, ", ")
	}
	fmt.Fprintf(w, "  Scopes: %s\n", scopes)
	fmt.Fprintln(w)
}
