package validation

import (
	"errors"
	"regexp"
	"strings"
)

// MinPasswordLength is the minimum accepted password length
const MinPasswordLength = 6

// emailRegex is a shape check, not RFC validation; the provider has the final say
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail checks that an email is present and regex-shaped.
// The format check only runs once the non-empty check passes.
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return errors.New("Email is required")
	}
	if !emailRegex.MatchString(email) {
		return errors.New("Enter a valid email address")
	}
	return nil
}

// ValidatePassword checks that a password is present and long enough
func ValidatePassword(password string) error {
	if password == "" {
		return errors.New("Password is required")
	}
	if len(password) < MinPasswordLength {
		return errors.New("Password must be at least 6 characters")
	}
	return nil
}
