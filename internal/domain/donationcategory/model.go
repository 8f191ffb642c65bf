package donationcategory

import (
	"encoding/json"
	"errors"
	"strings"

	"dq/internal/domain/slug"
)

// Domain errors
var (
	ErrEmptyTitle = errors.New("donation category title cannot be empty")
	ErrEmptySlug  = errors.New("donation category slug cannot be empty")
)

// DonationCategory is a cause donors can give to, e.g. winter relief or zakat.
type DonationCategory struct {
	ID                string
	Title             string
	Subtitle          string
	Slug              string // unique, URL-safe
	Description       string
	Thumbnail         string // image URL
	VideoURL          string
	ExpenseCategories []string
	Presets           AmountPresets
}

// Validate checks if the DonationCategory has valid data.
// PRE: DonationCategory struct is populated
// POST: Returns nil if valid, error otherwise
func (c *DonationCategory) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return ErrEmptyTitle
	}
	if c.Slug == "" {
		return ErrEmptySlug
	}
	if err := slug.Validate(c.Slug); err != nil {
		return err
	}
	return c.Presets.Validate()
}

// wireCategory is the backend JSON layout. Preset lists sit at the top level.
type wireCategory struct {
	ID                string    `json:"id,omitempty"`
	Title             string    `json:"title"`
	Subtitle          string    `json:"subtitle,omitempty"`
	Slug              string    `json:"slug"`
	Description       string    `json:"description,omitempty"`
	Thumbnail         string    `json:"thumbnail,omitempty"`
	VideoURL          string    `json:"videoUrl,omitempty"`
	ExpenseCategories []string  `json:"expenseCategory,omitempty"`
	Daily             []float64 `json:"daily,omitempty"`
	Monthly           []float64 `json:"monthly,omitempty"`
	Amount            []float64 `json:"amount,omitempty"`
}

// MarshalJSON writes the backend layout.
func (c DonationCategory) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireCategory{
		ID: c.ID, Title: c.Title, Subtitle: c.Subtitle, Slug: c.Slug,
		Description: c.Description, Thumbnail: c.Thumbnail, VideoURL: c.VideoURL,
		ExpenseCategories: c.ExpenseCategories,
		Daily:             c.Presets.Daily, Monthly: c.Presets.Monthly, Amount: c.Presets.Amounts,
	})
}

// UnmarshalJSON reads the backend layout. Stored records may carry both layouts;
// the daily/monthly tiers win and the flat list is dropped. A record with no
// presets at all is still an error.
func (c *DonationCategory) UnmarshalJSON(data []byte) error {
	var w wireCategory
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if len(w.Daily) > 0 || len(w.Monthly) > 0 {
		w.Amount = nil
	}
	presets, err := FromLists(w.Daily, w.Monthly, w.Amount)
	if err != nil {
		return err
	}
	*c = DonationCategory{
		ID: w.ID, Title: w.Title, Subtitle: w.Subtitle, Slug: w.Slug,
		Description: w.Description, Thumbnail: w.Thumbnail, VideoURL: w.VideoURL,
		ExpenseCategories: w.ExpenseCategories,
		Presets:           presets,
	}
	return nil
}
