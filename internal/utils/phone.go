package utils

import (
	"regexp"
	"strings"
)

// Canonical phone format: "+<country code> <subscriber number>",
// e.g. "+976 99112233".
var phoneRe = regexp.MustCompile(`^\+\d{1,3} \d{6,12}$`)

// NormalizePhone trims surrounding whitespace and collapses internal
// runs of spaces so that "+976  99112233 " and "+976 99112233" compare
// equal before validation and lookups.
func NormalizePhone(phone string) string {
	fields := strings.Fields(phone)
	return strings.Join(fields, " ")
}

// ValidPhone reports whether phone is in the canonical format.
func ValidPhone(phone string) bool {
	return phoneRe.MatchString(phone)
}
