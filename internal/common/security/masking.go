// Package security masks credentials and identifiers before they reach logs,
// audit files or the terminal.
package security

import "strings"

// MaskUsername shows the first and last two characters of a login.
// Values of four characters or fewer are fully masked.
func MaskUsername(username string) string {
	if len(username) <= 4 {
		return "****"
	}
	return username[:2] + "****" + username[len(username)-2:]
}

// MaskAccessToken keeps the first 8 and last 4 characters of long tokens,
// and splits shorter ones in half around "...".
func MaskAccessToken(token string) string {
	if len(token) == 0 {
		return ""
	}
	if len(token) <= 16 {
		return token[:len(token)/2] + "..." + token[len(token)/2:]
	}
	return token[:8] + "..." + token[len(token)-4:]
}

// MaskSecret keeps only the first four characters of a client secret.
func MaskSecret(secret string) string {
	if len(secret) == 0 {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}

// MaskClientID keeps the first 8 characters of an OAuth client id.
func MaskClientID(id string) string {
	if len(id) <= 8 {
		return id + "****"
	}
	return id[:8] + "****"
}

// MaskOCID keeps the resource-type prefix of an Oracle Cloud ID and the last
// six characters of its unique part:
// "ocid1.tenancy.oc1..aaaaaaaabbbbcc" becomes "ocid1.tenancy.oc1..****bbbbcc".
func MaskOCID(ocid string) string {
	sep := strings.LastIndex(ocid, ".")
	if sep < 0 || sep == len(ocid)-1 {
		return MaskUsername(ocid)
	}
	prefix, unique := ocid[:sep+1], ocid[sep+1:]
	if len(unique) <= 6 {
		return prefix + "****"
	}
	return prefix + "****" + unique[len(unique)-6:]
}

// MaskEmail masks both halves of an address:
// "user@example.com" becomes "us****@ex****".
func MaskEmail(email string) string {
	if len(email) == 0 {
		return ""
	}

	at := strings.IndexByte(email, '@')
	if at == -1 {
		return MaskUsername(email)
	}

	localPart, domain := email[:at], email[at+1:]

	maskedLocal := "****"
	if len(localPart) > 2 {
		maskedLocal = localPart[:2] + "****"
	}
	maskedDomain := "****"
	if len(domain) > 2 {
		maskedDomain = domain[:2] + "****"
	}
	return maskedLocal + "@" + maskedDomain
}
