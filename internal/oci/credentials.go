// Package oci wraps the OCI identity control plane: API-key credentials,
// compartment and identity domain discovery, and the domain lifecycle
// (deactivate, wait, delete).
package oci

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/identity"
	"software.sslmate.com/src/go-pkcs12"
)

// Credentials identify an API-key user in a tenancy.
type Credentials struct {
	TenancyOCID   string
	UserOCID      string
	Fingerprint   string
	KeyFile       string
	KeyPassphrase string
	Region        string
}

// isPKCS12 reports whether path looks like a PKCS#12 bundle.
func isPKCS12(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".p12", ".pfx":
		return true
	}
	return false
}

// LoadPrivateKey reads the API signing key and returns it PEM encoded, with
// the passphrase the SDK needs to decrypt it (nil when none). PKCS#12 bundles
// are decoded and re-encoded as an unencrypted PKCS#1 PEM block.
func LoadPrivateKey(path, passphrase string) (string, *string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read key file: %w", err)
	}

	if !isPKCS12(path) {
		if block, _ := pem.Decode(data); block == nil {
			return "", nil, fmt.Errorf("key file %s is not PEM encoded", filepath.Base(path))
		}
		if passphrase == "" {
			return string(data), nil, nil
		}
		return string(data), common.String(passphrase), nil
	}

	key, _, _, err := pkcs12.DecodeChain(data, passphrase)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode PKCS#12 key file: %w", err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return "", nil, fmt.Errorf("PKCS#12 key is %T, OCI API keys must be RSA", key)
	}
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(rsaKey)}
	return string(pem.EncodeToMemory(block)), nil, nil
}

// NewConfigurationProvider builds an SDK configuration provider from c.
func NewConfigurationProvider(c Credentials) (common.ConfigurationProvider, error) {
	key, pass, err := LoadPrivateKey(c.KeyFile, c.KeyPassphrase)
	if err != nil {
		return nil, err
	}
	return common.NewRawConfigurationProvider(c.TenancyOCID, c.UserOCID, c.Region, c.Fingerprint, key, pass), nil
}

// NewIdentityClient returns an identity control plane client for c.Region.
func NewIdentityClient(c Credentials) (identity.IdentityClient, error) {
	provider, err := NewConfigurationProvider(c)
	if err != nil {
		return identity.IdentityClient{}, err
	}
	client, err := identity.NewIdentityClientWithConfigurationProvider(provider)
	if err != nil {
		return identity.IdentityClient{}, fmt.Errorf("failed to create identity client: %w", err)
	}
	return client, nil
}
