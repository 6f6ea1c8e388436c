package util

import (
	"regexp"
	"strings"
)

// Mozambican mobile numbers: optional +258 prefix, then 8X or 9X and 7 digits.
var mozPhonePattern = regexp.MustCompile(`^(\+258)?[89]\d{8}$`)

// ValidPhoneNumber reports whether phone is a valid Mozambican mobile number.
// Accepts "+258 XX XXX XXXX", "+258XXXXXXXXX", "8XXXXXXXX" and "9XXXXXXXX".
func ValidPhoneNumber(phone string) bool {
	return mozPhonePattern.MatchString(strings.ReplaceAll(phone, " ", ""))
}

// NormalizePhoneNumber strips spaces and ensures the +258 country prefix.
func NormalizePhoneNumber(phone string) string {
	clean := strings.ReplaceAll(phone, " ", "")
	if !strings.HasPrefix(clean, "+258") {
		clean = "+258" + clean
	}
	return clean
}
