package domain

import "strings"

// NormalizeHumanName trims leading/trailing whitespace and collapses internal whitespace runs.
// It is used for owner full names and stand names.
func NormalizeHumanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeTaxiNumber returns the canonical form of a taxi number: trimmed and lowercased.
func NormalizeTaxiNumber(s string) TaxiNumber {
	return TaxiNumber(strings.ToLower(strings.TrimSpace(s)))
}

// ValidTaxiNumber reports whether n (already normalized) can be used as a taxi number.
// Numbers are used as cookie names and path segments, so only letters, digits and '-' are accepted.
func ValidTaxiNumber(n TaxiNumber) bool {
	if n == "" || len(n) > 32 {
		return false
	}
	for _, r := range string(n) {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return false
		}
	}
	return true
}
