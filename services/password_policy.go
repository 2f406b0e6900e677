package services

import (
	"strings"
	"unicode"
)

// Initial password requirements. New accounts start with the body of the
// national id (RUT without verifier digit) as password and must change it.
const (
	MinInitialPasswordLength = 6 // backend minimum
	MaxNationalIDBodyLength  = 9
)

// NormalizeNationalIDBody strips separators and an optional verifier suffix
// ("12.345.678-9" -> "12345678") and checks the body is all digits.
func NormalizeNationalIDBody(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "-"); i >= 0 {
		s = s[:i]
	}
	s = strings.NewReplacer(".", "", " ", "").Replace(s)

	if s == "" {
		return "", invalid("validation.user.missing_fields")
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return "", invalid("validation.user.national_id")
		}
	}
	if len(s) < MinInitialPasswordLength || len(s) > MaxNationalIDBodyLength {
		return "", invalid("validation.user.national_id")
	}
	return s, nil
}
