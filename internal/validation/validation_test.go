package validation

import (
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		shouldErr bool
		errMsg    string
	}{
		// Valid emails
		{"valid simple", "user@example.com", false, ""},
		{"valid with plus", "user+tag@example.com", false, ""},
		{"valid subdomain", "user@mail.example.co.uk", false, ""},

		// Empty - must report the required error, not the format error
		{"empty", "", true, "Email is required"},
		{"whitespace only", "   ", true, "Email is required"},

		// Shape failures - only reported once non-empty check passes
		{"missing at", "userexample.com", true, "Enter a valid email address"},
		{"missing domain", "user@", true, "Enter a valid email address"},
		{"missing tld", "user@example", true, "Enter a valid email address"},
		{"contains space", "us er@example.com", true, "Enter a valid email address"},
		{"double at", "user@@example.com", true, "Enter a valid email address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.shouldErr && err == nil {
				t.Errorf("expected error but got none for email: %q", tt.email)
			}
			if !tt.shouldErr && err != nil {
				t.Errorf("unexpected error for valid email %q: %v", tt.email, err)
			}
			if tt.shouldErr && err != nil && err.Error() != tt.errMsg {
				t.Errorf("expected error %q, got %q", tt.errMsg, err.Error())
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name      string
		password  string
		shouldErr bool
		errMsg    string
	}{
		{"valid minimum length", "secret", false, ""},
		{"valid long", strings.Repeat("a", 64), false, ""},

		{"empty", "", true, "Password is required"},
		{"too short", "abc", true, "Password must be at least 6 characters"},
		{"five characters", "abcde", true, "Password must be at least 6 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.shouldErr && err == nil {
				t.Errorf("expected error but got none for password: %q", tt.password)
			}
			if !tt.shouldErr && err != nil {
				t.Errorf("unexpected error for valid password %q: %v", tt.password, err)
			}
			if tt.shouldErr && err != nil && err.Error() != tt.errMsg {
				t.Errorf("expected error %q, got %q", tt.errMsg, err.Error())
			}
		})
	}
}
