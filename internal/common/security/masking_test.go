package security

import "testing"

func TestMaskUsername(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"user@example.com", "us****om"},
		{"test", "****"},
		{"a", "****"},
		{"abcde", "ab****de"},
	}

	for _, tt := range tests {
		if got := MaskUsername(tt.input); got != tt.expected {
			t.Errorf("MaskUsername(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestMaskAccessToken(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"eyJhbGciOiJSUzI1NiJ9.payload.sig", "eyJhbGci....sig"},
		{"short", "sh...ort"},
		{"ab", "a...b"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := MaskAccessToken(tt.input); got != tt.expected {
			t.Errorf("MaskAccessToken(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"idcscs-1234567890", "idcs****"},
		{"abcd", "****"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := MaskSecret(tt.input); got != tt.expected {
			t.Errorf("MaskSecret(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestMaskClientID(t *testing.T) {
	if got := MaskClientID("0123456789abcdef"); got != "01234567****" {
		t.Errorf("MaskClientID() = %q", got)
	}
	if got := MaskClientID("cid"); got != "cid****" {
		t.Errorf("MaskClientID(short) = %q", got)
	}
}

func TestMaskOCID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"ocid1.tenancy.oc1..aaaaaaaabbbbcc", "ocid1.tenancy.oc1..****bbbbcc"},
		{"ocid1.domain.oc1..abc", "ocid1.domain.oc1..****"},
		{"plainvalue", "pl****ue"},
		{"trailing.", "tr****g."},
	}

	for _, tt := range tests {
		if got := MaskOCID(tt.input); got != tt.expected {
			t.Errorf("MaskOCID(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"user@example.com", "us****@ex****"},
		{"a@b.c", "****@b.****"},
		{"ab@xy", "****@****"},
		{"nodomain", "no****in"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := MaskEmail(tt.input); got != tt.expected {
			t.Errorf("MaskEmail(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
