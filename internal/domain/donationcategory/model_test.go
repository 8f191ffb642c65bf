package donationcategory_test

import (
	"encoding/json"
	"errors"
	"testing"

	"dq/internal/domain/donationcategory"
)

// TestDonationCategory_Validate tests validation of DonationCategory.
func TestDonationCategory_Validate(t *testing.T) {
	tests := []struct {
		name     string
		category donationcategory.DonationCategory
		wantErr  error
	}{
		{
			name:     "valid flat category",
			category: donationcategory.DonationCategory{Title: "Zakat", Slug: "zakat", Presets: donationcategory.Flat(500, 1000)},
		},
		{
			name: "valid tiered category",
			category: donationcategory.DonationCategory{Title: "Winter Fund", Slug: "winter-fund",
				Presets: donationcategory.Tiered([]float64{20, 50}, []float64{600})},
		},
		{
			name:     "empty title",
			category: donationcategory.DonationCategory{Slug: "zakat", Presets: donationcategory.Flat(500)},
			wantErr:  donationcategory.ErrEmptyTitle,
		},
		{
			name:     "empty slug",
			category: donationcategory.DonationCategory{Title: "Zakat", Presets: donationcategory.Flat(500)},
			wantErr:  donationcategory.ErrEmptySlug,
		},
		{
			name:     "no presets",
			category: donationcategory.DonationCategory{Title: "Zakat", Slug: "zakat"},
			wantErr:  donationcategory.ErrNoPresets,
		},
		{
			name:     "negative preset",
			category: donationcategory.DonationCategory{Title: "Zakat", Slug: "zakat", Presets: donationcategory.Flat(-1)},
			wantErr:  donationcategory.ErrNonPositiveStep,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.category.Validate(); err != tt.wantErr {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestFromLists checks which layout is chosen from the three preset lists.
func TestFromLists(t *testing.T) {
	p, err := donationcategory.FromLists([]float64{10}, nil, nil)
	if err != nil || !p.IsTiered() {
		t.Errorf("daily only: got %+v, %v; want tiered", p, err)
	}
	p, err = donationcategory.FromLists(nil, nil, []float64{100, 200})
	if err != nil || p.IsTiered() || len(p.Amounts) != 2 {
		t.Errorf("amount only: got %+v, %v; want flat", p, err)
	}
	if _, err := donationcategory.FromLists([]float64{10}, nil, []float64{100}); err != donationcategory.ErrMixedPresets {
		t.Errorf("mixed: error = %v, want ErrMixedPresets", err)
	}
	if _, err := donationcategory.FromLists(nil, nil, nil); err != donationcategory.ErrNoPresets {
		t.Errorf("empty: error = %v, want ErrNoPresets", err)
	}
}

// TestAmountPresets_ForTab returns the list for the active tab.
func TestAmountPresets_ForTab(t *testing.T) {
	tiered := donationcategory.Tiered([]float64{20}, []float64{600})
	if got := tiered.ForTab("monthly"); len(got) != 1 || got[0] != 600 {
		t.Errorf("ForTab(monthly) = %v", got)
	}
	if got := tiered.ForTab("daily"); len(got) != 1 || got[0] != 20 {
		t.Errorf("ForTab(daily) = %v", got)
	}
	flat := donationcategory.Flat(100)
	if got := flat.ForTab("monthly"); len(got) != 1 || got[0] != 100 {
		t.Errorf("flat ForTab(monthly) = %v", got)
	}
}

// TestDonationCategory_JSON reads the backend layout with top-level preset lists.
func TestDonationCategory_JSON(t *testing.T) {
	raw := `{"id":"c1","title":"Winter Fund","slug":"winter-fund","daily":[20,50],"monthly":[600],"expenseCategory":["blankets"]}`
	var c donationcategory.DonationCategory
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !c.Presets.IsTiered() || len(c.Presets.Daily) != 2 || c.ExpenseCategories[0] != "blankets" {
		t.Errorf("decoded = %+v", c)
	}

	out, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back map[string]any
	json.Unmarshal(out, &back)
	if _, ok := back["amount"]; ok {
		t.Errorf("tiered category should not write amount: %s", out)
	}
	if _, ok := back["daily"]; !ok {
		t.Errorf("expected daily in output: %s", out)
	}

	mixed := `{"title":"Legacy","slug":"legacy","daily":[1],"amount":[2]}`
	if err := json.Unmarshal([]byte(mixed), &c); err != nil {
		t.Fatalf("mixed presets: %v", err)
	}
	if !c.Presets.IsTiered() || len(c.Presets.Amounts) != 0 || c.Presets.Daily[0] != 1 {
		t.Errorf("mixed presets decoded as %+v, want daily tier only", c.Presets)
	}

	var empty donationcategory.DonationCategory
	if err := json.Unmarshal([]byte(`{"title":"Empty","slug":"empty"}`), &empty); !errors.Is(err, donationcategory.ErrNoPresets) {
		t.Errorf("no presets: error = %v, want ErrNoPresets", err)
	}
}
