package donationcategory

import (
	"encoding/json"
	"errors"
)

// PresetKind tags which preset layout a category uses.
type PresetKind string

const (
	PresetsFlat   PresetKind = "flat"
	PresetsTiered PresetKind = "tiered"
)

// Preset errors
var (
	ErrNoPresets       = errors.New("at least one of daily, monthly or amount presets is required")
	ErrMixedPresets    = errors.New("flat amount presets cannot be combined with daily or monthly presets")
	ErrNonPositiveStep = errors.New("preset amounts must be greater than zero")
)

// AmountPresets is either a flat list of amounts or daily/monthly tiers.
// Construct with Flat or Tiered so that the zero value and mixed layouts never reach
// the rest of the system.
type AmountPresets struct {
	Kind    PresetKind
	Amounts []float64 // flat only
	Daily   []float64 // tiered only
	Monthly []float64 // tiered only
}

// Flat returns flat-list presets.
func Flat(amounts ...float64) AmountPresets {
	return AmountPresets{Kind: PresetsFlat, Amounts: amounts}
}

// Tiered returns daily/monthly presets.
func Tiered(daily, monthly []float64) AmountPresets {
	return AmountPresets{Kind: PresetsTiered, Daily: daily, Monthly: monthly}
}

// rawPresets is the wire layout used by the backend and the admin form.
type rawPresets struct {
	Daily   []float64 `json:"daily,omitempty"`
	Monthly []float64 `json:"monthly,omitempty"`
	Amount  []float64 `json:"amount,omitempty"`
}

// FromLists builds presets from the three optional lists.
// PRE: none
// POST: Returns tiered presets when daily or monthly is set, flat when only amount is set,
// an error when both layouts are set or all lists are empty
func FromLists(daily, monthly, amount []float64) (AmountPresets, error) {
	tiered := len(daily) > 0 || len(monthly) > 0
	flat := len(amount) > 0
	switch {
	case tiered && flat:
		return AmountPresets{}, ErrMixedPresets
	case tiered:
		p := Tiered(daily, monthly)
		return p, p.Validate()
	case flat:
		p := Flat(amount...)
		return p, p.Validate()
	}
	return AmountPresets{}, ErrNoPresets
}

// Validate checks the presets hold at least one positive amount and no negative ones.
func (p AmountPresets) Validate() error {
	var all []float64
	switch p.Kind {
	case PresetsFlat:
		all = p.Amounts
	case PresetsTiered:
		all = append(append(all, p.Daily...), p.Monthly...)
	default:
		return ErrNoPresets
	}
	if len(all) == 0 {
		return ErrNoPresets
	}
	for _, v := range all {
		if v <= 0 {
			return ErrNonPositiveStep
		}
	}
	return nil
}

// IsTiered reports whether the category offers daily/monthly tabs.
func (p AmountPresets) IsTiered() bool {
	return p.Kind == PresetsTiered
}

// ForTab returns the preset list shown on the given tab ("daily" or "monthly").
// Flat presets ignore the tab.
func (p AmountPresets) ForTab(tab string) []float64 {
	if p.Kind == PresetsFlat {
		return p.Amounts
	}
	if tab == "monthly" {
		return p.Monthly
	}
	return p.Daily
}

// MarshalJSON writes the backend layout.
func (p AmountPresets) MarshalJSON() ([]byte, error) {
	return json.Marshal(rawPresets{Daily: p.Daily, Monthly: p.Monthly, Amount: p.Amounts})
}

// UnmarshalJSON reads the backend layout and rejects mixed layouts.
func (p *AmountPresets) UnmarshalJSON(data []byte) error {
	var raw rawPresets
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := FromLists(raw.Daily, raw.Monthly, raw.Amount)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
