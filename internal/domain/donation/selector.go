package donation

import "errors"

// Tab selects which tier of presets is active for a tiered category.
type Tab string

const (
	TabDaily   Tab = "daily"
	TabMonthly Tab = "monthly"
)

// ErrInvalidTab is returned for a tab other than daily or monthly.
var ErrInvalidTab = errors.New("amount tab must be one of: daily, monthly")

// ParseTab converts a query or form value into a Tab. Empty input means daily.
func ParseTab(raw string) (Tab, error) {
	switch Tab(raw) {
	case "", TabDaily:
		return TabDaily, nil
	case TabMonthly:
		return TabMonthly, nil
	}
	return "", ErrInvalidTab
}

// AmountSelector is the amount-picking state of the donation form.
// Tab only matters when the category offers tiered presets.
type AmountSelector struct {
	Tab            Tab
	SelectedPreset *float64
	CustomAmount   string
}

// NewAmountSelector starts a selector on the given tab with its first preset chosen.
// PRE: presets are the values of the active tier (or the flat list)
// POST: SelectedPreset is the first preset, or nil when presets is empty
func NewAmountSelector(tab Tab, presets []float64) AmountSelector {
	s := AmountSelector{Tab: tab}
	s.SelectedPreset = firstPreset(presets)
	return s
}

// SwitchTab moves to another tier.
// The selection resets to the first value of the new tier so a stale amount from the
// previous tier cannot persist, and the custom amount is cleared.
// PRE: presets are the values of the newly active tier
// POST: Tab updated, SelectedPreset is first preset or nil, CustomAmount is empty
func (s *AmountSelector) SwitchTab(tab Tab, presets []float64) {
	s.Tab = tab
	s.SelectedPreset = firstPreset(presets)
	s.CustomAmount = ""
}

// SelectPreset picks a preset value.
func (s *AmountSelector) SelectPreset(v float64) {
	s.SelectedPreset = &v
}

// SetCustomAmount records free-form text and drops any preset so the text takes effect.
func (s *AmountSelector) SetCustomAmount(text string) {
	s.CustomAmount = text
	s.SelectedPreset = nil
}

// Amount returns the effective amount for this selection.
func (s AmountSelector) Amount() float64 {
	return ResolveAmount(s.SelectedPreset, s.CustomAmount)
}

func firstPreset(presets []float64) *float64 {
	if len(presets) == 0 {
		return nil
	}
	v := presets[0]
	return &v
}
