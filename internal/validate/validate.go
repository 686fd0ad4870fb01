// Package validate holds the input validation rules shared by the user
// and auth handlers.
package validate

import (
	"regexp"
	"strings"
	"unicode"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether s looks like an email address.
// The check is intentionally loose: one @, no whitespace, a dot in the domain.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidatePassword checks password strength and returns a list of
// human-readable problems. An empty slice means the password is acceptable.
func ValidatePassword(s string) []string {
	var problems []string
	if len(s) < 8 {
		problems = append(problems, "Password must be at least 8 characters")
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		problems = append(problems, "Password must contain an uppercase letter")
	}
	if !hasLower {
		problems = append(problems, "Password must contain a lowercase letter")
	}
	if !hasDigit {
		problems = append(problems, "Password must contain a number")
	}
	return problems
}

// IsNotEmpty reports whether s contains any non-whitespace character.
func IsNotEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}
