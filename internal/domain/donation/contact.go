package donation

import (
	"errors"
	"regexp"
	"strings"
)

// Phone length bounds for an all-digit contact value.
const (
	MinPhoneDigits = 7
	MaxPhoneDigits = 14
)

// Contact validation errors. Each failure mode has its own message.
var (
	ErrContactRequired = errors.New("Contact is required")
	ErrPhoneLength     = errors.New("Phone number must be 7-14 digits")
	ErrInvalidEmail    = errors.New("Enter a valid email address")
)

var (
	digitsPattern = regexp.MustCompile(`^[0-9]+$`)
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// ContactKind identifies how a contact string will be used.
type ContactKind string

const (
	ContactPhone ContactKind = "phone"
	ContactEmail ContactKind = "email"
)

// ValidateContact checks a donor contact value.
// An all-digit value is treated as a phone number, anything else as an email address.
// PRE: none
// POST: Returns the detected kind, or an error describing the failure mode
func ValidateContact(raw string) (ContactKind, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", ErrContactRequired
	}
	if digitsPattern.MatchString(v) {
		if len(v) < MinPhoneDigits || len(v) > MaxPhoneDigits {
			return "", ErrPhoneLength
		}
		return ContactPhone, nil
	}
	if !emailPattern.MatchString(v) {
		return "", ErrInvalidEmail
	}
	return ContactEmail, nil
}

// IsEmailContact reports whether the contact is a valid email address.
func IsEmailContact(raw string) bool {
	kind, err := ValidateContact(raw)
	return err == nil && kind == ContactEmail
}
