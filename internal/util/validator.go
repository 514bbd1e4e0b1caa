package util

import (
	"errors"
	"net/mail"
	"strings"
	"unicode"
)

// Password policy for registration.
const (
	PasswordMinLength = 16
	PasswordMaxLength = 64
)

// ValidateEmail returns an error for invalid e-mail addresses.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("invalid email")
	}
	return nil
}

// ValidatePassword checks length and character-class requirements.
func ValidatePassword(password string) error {
	if len(password) < PasswordMinLength {
		return errors.New("password must have at least 16 characters")
	}
	if len(password) > PasswordMaxLength {
		return errors.New("password must have at most 64 characters")
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	if !upper || !lower || !digit || !symbol {
		return errors.New("password must contain at least 1 number, 1 symbol and have a mixture of uppercase and lowercase letters")
	}
	return nil
}

// RequireString rejects blank values.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(field + " is required")
	}
	return nil
}
