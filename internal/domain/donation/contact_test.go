package donation_test

import (
	"strings"
	"testing"

	"dq/internal/domain/donation"
)

// TestValidateContact covers phone and email inputs.
func TestValidateContact(t *testing.T) {
	tests := []struct {
		name     string
		contact  string
		wantKind donation.ContactKind
		wantErr  error
	}{
		{name: "empty", contact: "", wantErr: donation.ErrContactRequired},
		{name: "whitespace only", contact: "   ", wantErr: donation.ErrContactRequired},
		{name: "six digits", contact: "123456", wantErr: donation.ErrPhoneLength},
		{name: "seven digits", contact: "1234567", wantKind: donation.ContactPhone},
		{name: "bangladesh mobile", contact: "01711111111", wantKind: donation.ContactPhone},
		{name: "fourteen digits", contact: "12345678901234", wantKind: donation.ContactPhone},
		{name: "fifteen digits", contact: "123456789012345", wantErr: donation.ErrPhoneLength},
		{name: "padded digits", contact: "  01711111111 ", wantKind: donation.ContactPhone},
		{name: "valid email", contact: "karim@example.org", wantKind: donation.ContactEmail},
		{name: "email without tld", contact: "karim@example", wantErr: donation.ErrInvalidEmail},
		{name: "email without local part", contact: "@example.org", wantErr: donation.ErrInvalidEmail},
		{name: "plus sign phone", contact: "+8801711111111", wantErr: donation.ErrInvalidEmail},
		{name: "email with space", contact: "ka rim@example.org", wantErr: donation.ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := donation.ValidateContact(tt.contact)
			if err != tt.wantErr {
				t.Fatalf("ValidateContact(%q) error = %v, want %v", tt.contact, err, tt.wantErr)
			}
			if kind != tt.wantKind {
				t.Errorf("ValidateContact(%q) kind = %q, want %q", tt.contact, kind, tt.wantKind)
			}
		})
	}
}

// TestValidateContact_DigitLengths checks every all-digit length from 1 to 20.
func TestValidateContact_DigitLengths(t *testing.T) {
	for n := 1; n <= 20; n++ {
		contact := strings.Repeat("9", n)
		_, err := donation.ValidateContact(contact)
		wantOK := n >= donation.MinPhoneDigits && n <= donation.MaxPhoneDigits
		if wantOK && err != nil {
			t.Errorf("length %d: unexpected error %v", n, err)
		}
		if !wantOK && err != donation.ErrPhoneLength {
			t.Errorf("length %d: got %v, want ErrPhoneLength", n, err)
		}
	}
}

// TestIsEmailContact distinguishes email contacts from phone numbers.
func TestIsEmailContact(t *testing.T) {
	if !donation.IsEmailContact("donor@example.com") {
		t.Error("expected email contact")
	}
	if donation.IsEmailContact("01711111111") {
		t.Error("phone number should not be an email contact")
	}
}
