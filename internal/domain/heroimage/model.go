package heroimage

import (
	"errors"
	"sort"
)

// Domain errors
var (
	ErrEmptyImage    = errors.New("hero image requires an image")
	ErrNegativeOrder = errors.New("hero image order cannot be negative")
)

// HeroImage is a banner slide on the home page.
// Lower Order values are shown first. IsActive hides a slide without deleting it.
type HeroImage struct {
	ID          string `json:"id,omitempty"`
	Image       string `json:"image"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Order       int    `json:"order"`
	IsActive    bool   `json:"isActive"`
}

// Validate checks if the HeroImage has valid data.
// PRE: HeroImage struct is populated
// POST: Returns nil if valid, error otherwise
func (h *HeroImage) Validate() error {
	if h.Image == "" {
		return ErrEmptyImage
	}
	if h.Order < 0 {
		return ErrNegativeOrder
	}
	return nil
}

// Toggle flips visibility.
func (h *HeroImage) Toggle() {
	h.IsActive = !h.IsActive
}

// ActiveInOrder returns active slides sorted by Order ascending. Ties keep input order.
// INVARIANT: input slice is not mutated
func ActiveInOrder(images []HeroImage) []HeroImage {
	out := make([]HeroImage, 0, len(images))
	for _, h := range images {
		if h.IsActive {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
