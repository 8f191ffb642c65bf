package donation

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// CurrencySymbol is stripped from free-form amount input.
const CurrencySymbol = "৳"

// ErrInvalidAmount is returned when the effective amount is not positive.
var ErrInvalidAmount = errors.New("Enter a valid amount")

// ParseAmount converts free-form amount text into a number.
// The currency symbol, thousands separators and all whitespace are removed first.
// PRE: none
// POST: Returns the parsed value, or 0 when the text is not a number
func ParseAmount(raw string) float64 {
	cleaned := strings.ReplaceAll(raw, CurrencySymbol, "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.Join(strings.Fields(cleaned), "")
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ResolveAmount returns the amount a donor is actually giving.
// A selected preset always wins over stale custom text.
// PRE: none
// POST: Returns the preset when non-nil, else ParseAmount(custom)
func ResolveAmount(selectedPreset *float64, custom string) float64 {
	if selectedPreset != nil {
		return *selectedPreset
	}
	return ParseAmount(custom)
}

// ValidateAmount rejects non-positive amounts.
func ValidateAmount(amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
