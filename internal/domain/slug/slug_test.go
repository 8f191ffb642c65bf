package slug_test

import (
	"testing"

	"dq/internal/domain/slug"
)

func TestValidate(t *testing.T) {
	valid := []string{"winter-fund", "zakat", "a1-b2-c3"}
	invalid := []string{"", "Winter-Fund", "winter--fund", "-winter", "winter fund", "winter_fund"}
	for _, s := range valid {
		if err := slug.Validate(s); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", s, err)
		}
	}
	for _, s := range invalid {
		if err := slug.Validate(s); err == nil {
			t.Errorf("Validate(%q) = nil, want error", s)
		}
	}
}

func TestMake(t *testing.T) {
	tests := map[string]string{
		"Winter Fund":        "winter-fund",
		"  Eid -- Gifts 2025": "eid-gifts-2025",
		"!!!":                "",
	}
	for in, want := range tests {
		if got := slug.Make(in); got != want {
			t.Errorf("Make(%q) = %q, want %q", in, got, want)
		}
	}
}
