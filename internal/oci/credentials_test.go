package oci

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"software.sslmate.com/src/go-pkcs12"
)

func writeKeyFiles(t *testing.T) (dir string, key *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	dir = t.TempDir()

	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	if err := os.WriteFile(filepath.Join(dir, "api_key.pem"), pemBytes, 0600); err != nil {
		t.Fatal(err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "iamtool-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatal(err)
	}
	pfx, err := pkcs12.Modern.Encode(key, cert, nil, "s3cret")
	if err != nil {
		t.Fatalf("pkcs12 Encode: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "api_key.p12"), pfx, 0600); err != nil {
		t.Fatal(err)
	}
	return dir, key
}

func TestLoadPrivateKey(t *testing.T) {
	dir, key := writeKeyFiles(t)

	t.Run("pem without passphrase", func(t *testing.T) {
		got, pass, err := LoadPrivateKey(filepath.Join(dir, "api_key.pem"), "")
		if err != nil {
			t.Fatalf("error = %v", err)
		}
		if pass != nil || !strings.Contains(got, "RSA PRIVATE KEY") {
			t.Errorf("got pass=%v key=%.40q", pass, got)
		}
	})

	t.Run("pem passphrase passed through", func(t *testing.T) {
		_, pass, err := LoadPrivateKey(filepath.Join(dir, "api_key.pem"), "pw")
		if err != nil || pass == nil || *pass != "pw" {
			t.Errorf("pass = %v, err = %v", pass, err)
		}
	})

	t.Run("pkcs12 re-encoded", func(t *testing.T) {
		got, pass, err := LoadPrivateKey(filepath.Join(dir, "api_key.p12"), "s3cret")
		if err != nil {
			t.Fatalf("error = %v", err)
		}
		if pass != nil {
			t.Error("re-encoded key must not need a passphrase")
		}
		block, _ := pem.Decode([]byte(got))
		if block == nil {
			t.Fatal("result is not PEM")
		}
		parsed, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil || !parsed.Equal(key) {
			t.Errorf("decoded key differs from original (err %v)", err)
		}
	})

	t.Run("pkcs12 wrong password", func(t *testing.T) {
		if _, _, err := LoadPrivateKey(filepath.Join(dir, "api_key.p12"), "nope"); err == nil {
			t.Error("expected error for wrong PKCS#12 password")
		}
	})

	t.Run("not pem", func(t *testing.T) {
		path := filepath.Join(dir, "junk.pem")
		_ = os.WriteFile(path, []byte("not a key"), 0600)
		if _, _, err := LoadPrivateKey(path, ""); err == nil {
			t.Error("expected error for non-PEM key file")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, _, err := LoadPrivateKey(filepath.Join(dir, "absent.pem"), ""); err == nil {
			t.Error("expected error for missing key file")
		}
	})
}

func TestNewConfigurationProvider(t *testing.T) {
	dir, key := writeKeyFiles(t)
	creds := Credentials{
		TenancyOCID:   "ocid1.tenancy.oc1..aaaa",
		UserOCID:      "ocid1.user.oc1..bbbb",
		Fingerprint:   "aa:bb:cc",
		KeyFile:       filepath.Join(dir, "api_key.p12"),
		KeyPassphrase: "s3cret",
		Region:        "us-ashburn-1",
	}

	provider, err := NewConfigurationProvider(creds)
	if err != nil {
		t.Fatalf("NewConfigurationProvider() error = %v", err)
	}
	if got, _ := provider.TenancyOCID(); got != creds.TenancyOCID {
		t.Errorf("TenancyOCID() = %q", got)
	}
	if got, _ := provider.Region(); got != creds.Region {
		t.Errorf("Region() = %q", got)
	}
	priv, err := provider.PrivateRSAKey()
	if err != nil || !priv.Equal(key) {
		t.Errorf("PrivateRSAKey() mismatch (err %v)", err)
	}
}
