package program

import (
	"errors"
	"strings"

	"dq/internal/domain/slug"
)

// Kind distinguishes long-running programs from one-off activities. Both share a shape.
type Kind string

const (
	KindProgram  Kind = "program"
	KindActivity Kind = "activity"
)

// Domain errors
var (
	ErrEmptyTitle = errors.New("title cannot be empty")
	ErrEmptyTag   = errors.New("tag cannot be empty")
)

// Program represents an NGO program or activity shown on the public site.
type Program struct {
	ID            string   `json:"id,omitempty"`
	Title         string   `json:"title"`
	Slug          string   `json:"slug,omitempty"`
	Tag           string   `json:"tag"`
	Description   string   `json:"description,omitempty"`
	Image         string   `json:"image,omitempty"`
	Media         []string `json:"media,omitempty"`
	Area          string   `json:"area,omitempty"`
	Duration      string   `json:"duration,omitempty"`
	Beneficiaries []string `json:"beneficiaries,omitempty"`
	Goals         []string `json:"goals,omitempty"`
}

// Validate checks if the Program has valid data. Slug is optional but must be URL-safe.
// PRE: Program struct is populated
// POST: Returns nil if valid, error otherwise
func (p *Program) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrEmptyTitle
	}
	if strings.TrimSpace(p.Tag) == "" {
		return ErrEmptyTag
	}
	if p.Slug != "" {
		if err := slug.Validate(p.Slug); err != nil {
			return err
		}
	}
	return nil
}
