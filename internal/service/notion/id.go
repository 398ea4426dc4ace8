package notion

import (
	"strings"

	"github.com/google/uuid"
)

// CompactIDToUUID converts a 32-hex compact page ID to the hyphenated UUID
// form the provider API expects. Already-hyphenated UUIDs pass through
// normalized.
func CompactIDToUUID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}

// UUIDToCompactID converts a hyphenated UUID to its URL-safe 32-hex form.
func UUIDToCompactID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(parsed.String(), "-", ""), nil
}

// IsCompactID reports whether s has the compact page-ID shape: exactly 32
// hex characters, no hyphens.
func IsCompactID(s string) bool {
	if len(s) != 32 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// IsNumeric reports whether s is a non-empty string of decimal digits.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
