package donation

import (
	"errors"
	"strings"
)

// Form field names used as keys in ValidationErrors.
const (
	FieldContact = "contact"
	FieldAmount  = "amount"
	FieldMethod  = "method"
)

// ErrUnsupportedMethod is returned for payment methods other than online.
var ErrUnsupportedMethod = errors.New("only online payment is available")

// ValidationErrors maps field names to the message shown next to the field.
type ValidationErrors map[string]string

// Error implements error.
func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, field := range []string{FieldContact, FieldAmount, FieldMethod} {
		if msg, ok := v[field]; ok {
			parts = append(parts, field+": "+msg)
		}
	}
	return "invalid donation: " + strings.Join(parts, "; ")
}

// Form is the donor-facing state of the donation detail page.
type Form struct {
	Purpose      string // donation category slug
	PurposeLabel string // donation category title
	Name         string
	Contact      string
	Behalf       string
	Method       string
	Selector     AmountSelector

	// Submitted is set on the first submit attempt. Untouched fields report no
	// errors before that.
	Submitted bool
}

// Errors returns field errors for the current state.
// PRE: none
// POST: Returns nil before the first submit attempt; otherwise nil when valid
func (f *Form) Errors() ValidationErrors {
	if !f.Submitted {
		return nil
	}
	errs := ValidationErrors{}
	if _, err := ValidateContact(f.Contact); err != nil {
		errs[FieldContact] = err.Error()
	}
	if err := ValidateAmount(f.Selector.Amount()); err != nil {
		errs[FieldAmount] = err.Error()
	}
	if f.Method != "" && f.Method != PaymentMethodOnline {
		errs[FieldMethod] = ErrUnsupportedMethod.Error()
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Submit marks the form as submitted and validates it.
// PRE: none
// POST: Submitted is true; returns the payload when valid, ValidationErrors otherwise
func (f *Form) Submit() (CachePayload, error) {
	f.Submitted = true
	if errs := f.Errors(); errs != nil {
		return CachePayload{}, errs
	}
	return CachePayload{
		Purpose:      f.Purpose,
		Contact:      strings.TrimSpace(f.Contact),
		Amount:       f.Selector.Amount(),
		PurposeLabel: f.PurposeLabel,
		Behalf:       strings.TrimSpace(f.Behalf),
		Name:         strings.TrimSpace(f.Name),
	}, nil
}
