package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateOCID(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		resourceType string
		wantErr      bool
	}{
		{"tenancy", "ocid1.tenancy.oc1..aaaaaaaaxyz", "tenancy", false},
		{"user any type", "ocid1.user.oc1..aaaaaaaaxyz", "", false},
		{"regional domain", "ocid1.domain.oc1.iad.aaaaaaaaxyz", "domain", false},
		{"wrong type", "ocid1.user.oc1..aaaaaaaaxyz", "tenancy", true},
		{"empty", "", "tenancy", true},
		{"not an ocid", "tenancy-123", "", true},
		{"wrong version", "ocid2.tenancy.oc1..aaaa", "", true},
		{"empty unique", "ocid1.tenancy.oc1..", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOCID(tt.value, tt.resourceType, "TENANCY_OCID")
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOCID(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRequired(t *testing.T) {
	fields := map[string]string{
		"TENANCY_OCID":  "ocid1.tenancy.oc1..a",
		"CLIENT_ID":     "",
		"CLIENT_SECRET": "  ",
	}
	err := ValidateRequired(fields, []string{"TENANCY_OCID", "CLIENT_ID", "CLIENT_SECRET", "OCI_REGION"})
	if err == nil {
		t.Fatal("ValidateRequired() should fail")
	}
	want := "CLIENT_ID, CLIENT_SECRET, OCI_REGION"
	if !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want it to list %q", err, want)
	}

	if err := ValidateRequired(map[string]string{"A": "x"}, []string{"A"}); err != nil {
		t.Errorf("ValidateRequired() unexpected error: %v", err)
	}
}

func TestValidateSuffix(t *testing.T) {
	tests := []struct {
		suffix  string
		wantErr bool
	}{
		{"old.example.com", false},
		{"@old.example.com", false},
		{"", true},
		{" old.example.com", true},
		{"old example.com", true},
		{`old".example.com`, true},
		{`old\example`, true},
	}

	for _, tt := range tests {
		err := ValidateSuffix(tt.suffix, "old suffix")
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateSuffix(%q) error = %v, wantErr %v", tt.suffix, err, tt.wantErr)
		}
	}
}

func TestValidateDomainURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://idcs-abc.identity.oraclecloud.com:443", false},
		{"https://idcs-abc.identity.oraclecloud.com", false},
		{"http://127.0.0.1:8080", false},
		{"http://localhost:9000", false},
		{"http://[::1]:9000", false},
		{"http://idcs-abc.identity.oraclecloud.com", true},
		{"http://10.0.0.5", true},
		{"", true},
		{"ftp://idcs-abc.identity.oraclecloud.com", true},
		{"https://", true},
		{"https://idcs-abc.identity.oraclecloud.com?x=1", true},
	}

	for _, tt := range tests {
		err := ValidateDomainURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateDomainURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}

func TestValidateFilePath(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "oci_api_key.pem")
	if err := os.WriteFile(keyFile, []byte("key"), 0600); err != nil {
		t.Fatalf("write temp key: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
		errMsg  string
	}{
		{"empty is optional", "", false, ""},
		{"absolute file", keyFile, false, ""},
		{"relative test file", "validation_test.go", false, ""},
		{"traversal", "../../etc/passwd", true, "traversal"},
		{"hidden traversal", "safe/../../etc/passwd", true, "traversal"},
		{"missing", filepath.Join(dir, "missing.pem"), true, "not found"},
		{"directory", dir, true, "not a regular file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilePath(tt.path, "KEY_FILE_PATH")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateFilePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error = %q, want substring %q", err, tt.errMsg)
			}
		})
	}
}

func TestValidateDomainURL_PlainHTTPMessage(t *testing.T) {
	err := ValidateDomainURL("http://idcs-abc.identity.oraclecloud.com")
	if err == nil || !strings.Contains(err.Error(), "must use https") {
		t.Errorf("error = %v, want a message asking for https", err)
	}
}
