package utils

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	freeTextPattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-.,!?@#$%^&*()_+={}\[\]|\\:;"'<>/]+$`)
	tagPattern      = regexp.MustCompile(`^[a-zA-Z0-9\s\-]+$`)
	personName      = regexp.MustCompile(`^[a-zA-Z\s]+$`)
)

// IsFreeText reports whether s only uses the printable ASCII subset accepted
// for suggestion bodies and replies.
func IsFreeText(s string) bool {
	return freeTextPattern.MatchString(s)
}

// IsTag accepts letters, digits, spaces and hyphens, 1 to 50 characters after trimming.
func IsTag(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) >= 1 && len(s) <= 50 && tagPattern.MatchString(s)
}

func IsPersonName(s string) bool {
	return personName.MatchString(s)
}

// IsStrongPassword requires 8+ characters with an upper and lower case
// letter, a digit and one of @$!%*?&.
func IsStrongPassword(s string) bool {
	if len(s) < 8 {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(specials, r):
			special = true
		}
	}
	return upper && lower && digit && special
}
