package protocol

import "strings"

var filterEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// QuoteFilterValue renders s as a SCIM filter string literal.
func QuoteFilterValue(s string) string {
	return `"` + filterEscaper.Replace(s) + `"`
}

// ContainsFilter builds `attr co "value"`.
func ContainsFilter(attr, value string) string {
	return attr + " co " + QuoteFilterValue(value)
}

// EmailTypePath builds the value-path selecting emails of one type,
// e.g. emails[type eq "work"].
func EmailTypePath(emailType string) string {
	return "emails[type eq " + QuoteFilterValue(emailType) + "]"
}
