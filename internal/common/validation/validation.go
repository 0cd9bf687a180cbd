package validation

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ValidateOCID checks that value looks like an Oracle Cloud ID of the given
// resource type, e.g. "ocid1.tenancy.oc1..aaaa". An empty resourceType
// accepts any type.
func ValidateOCID(value, resourceType, fieldName string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	parts := strings.Split(value, ".")
	if len(parts) < 5 || parts[0] != "ocid1" {
		return fmt.Errorf("%s should be an OCID (format: ocid1.<type>.<realm>.[region].<unique>)", fieldName)
	}
	if resourceType != "" && parts[1] != resourceType {
		return fmt.Errorf("%s should be a %s OCID, got %s", fieldName, resourceType, parts[1])
	}
	if parts[len(parts)-1] == "" {
		return fmt.Errorf("%s has an empty unique id", fieldName)
	}
	return nil
}

// ValidateRequired returns an error naming every empty field, in order.
func ValidateRequired(fields map[string]string, order []string) error {
	var missing []string
	for _, name := range order {
		if strings.TrimSpace(fields[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateSuffix checks an email-domain suffix used for literal substitution.
// It must be non-empty and must not contain whitespace or double quotes, which
// would break the SCIM filter expression.
func ValidateSuffix(suffix, fieldName string) error {
	if suffix == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	if strings.TrimSpace(suffix) != suffix || strings.ContainsAny(suffix, " \t\r\n") {
		return fmt.Errorf("%s must not contain whitespace", fieldName)
	}
	if strings.ContainsAny(suffix, "\"\\") {
		return fmt.Errorf("%s must not contain quotes or backslashes", fieldName)
	}
	return nil
}

// ValidateDomainURL checks an identity domain base URL: https (plain http is
// allowed for loopback hosts only), a host, and no query.
func ValidateDomainURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("domain URL cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid domain URL: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("domain URL is missing a host")
	}
	switch {
	case u.Scheme == "https":
	case u.Scheme == "http" && isLoopback(u.Hostname()):
	default:
		return fmt.Errorf("domain URL must use https, or http on a loopback host (got %q)", raw)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("domain URL must not carry a query or fragment")
	}
	return nil
}

// ValidateFilePath checks that path names an existing regular file and, for
// relative paths, does not climb out of the working directory.
func ValidateFilePath(path, fieldName string) error {
	if path == "" {
		return nil
	}

	cleanPath := filepath.Clean(path)
	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return fmt.Errorf("%s: invalid path: %w", fieldName, err)
	}

	if !filepath.IsAbs(path) && strings.Contains(cleanPath, "..") {
		return fmt.Errorf("%s: path contains directory traversal (..) which is not allowed", fieldName)
	}

	fileInfo, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: file not found: %s", fieldName, path)
		}
		if os.IsPermission(err) {
			return fmt.Errorf("%s: permission denied: %s", fieldName, path)
		}
		return fmt.Errorf("%s: cannot access file: %w", fieldName, err)
	}

	if !fileInfo.Mode().IsRegular() {
		return fmt.Errorf("%s: not a regular file (is it a directory?): %s", fieldName, path)
	}
	return nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
