package idcs

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestBasicAuthorization(t *testing.T) {
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("cid:sec"))
	if got := BasicAuthorization("cid", "sec"); got != want {
		t.Errorf("BasicAuthorization() = %q, want %q", got, want)
	}
	// Raw bytes, no form-encoding of special characters.
	want = "Basic " + base64.StdEncoding.EncodeToString([]byte("app id:s+c/r=t"))
	if got := BasicAuthorization("app id", "s+c/r=t"); got != want {
		t.Errorf("BasicAuthorization(special) = %q, want %q", got, want)
	}
}

func TestTokenIssuer_Issue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/oauth2/v1/token" {
			t.Errorf("request = %s %s, want POST /oauth2/v1/token", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Basic "+base64.StdEncoding.EncodeToString([]byte("cid:sec")) {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if r.PostForm.Get("grant_type") != "client_credentials" || r.PostForm.Get("scope") != "urn:opc:idm:__myscopes__" {
			t.Errorf("form = %v", r.PostForm)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"eyJ.abc.def","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	issuer := NewTokenIssuer(srv.Client())
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return fixed }

	tok, err := issuer.Issue(context.Background(), srv.URL+"/", "cid", "sec")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if tok.AccessToken != "eyJ.abc.def" || tok.TokenType != "Bearer" {
		t.Errorf("token = %+v", tok)
	}
	if !tok.Expiry.Equal(fixed.Add(time.Hour)) {
		t.Errorf("Expiry = %s, want %s", tok.Expiry, fixed.Add(time.Hour))
	}
}

func TestTokenIssuer_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantDetail string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"invalid_client","error_description":"Client authentication failed."}`, 401, "Client authentication failed."},
		{"not json", http.StatusOK, `<html>proxy</html>`, 200, "response is not JSON"},
		{"no token", http.StatusOK, `{"token_type":"Bearer"}`, 200, "response has no access_token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("opc-request-id", "req-1")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewTokenIssuer(srv.Client()).Issue(context.Background(), srv.URL, "cid", "sec")
			var svcErr *ServiceError
			if !errors.As(err, &svcErr) {
				t.Fatalf("Issue() error = %v, want *ServiceError", err)
			}
			if svcErr.StatusCode != tt.wantStatus || svcErr.Detail != tt.wantDetail || svcErr.RequestID != "req-1" {
				t.Errorf("ServiceError = %+v", svcErr)
			}
		})
	}
}

func TestTokenIssuer_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewTokenIssuer(nil).Issue(context.Background(), url, "cid", "sec")
	if err == nil {
		t.Fatal("Issue() against a closed server should fail")
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		t.Errorf("transport failure classified as ServiceError: %v", err)
	}
}

func b64(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}
