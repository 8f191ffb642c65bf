package notice

import (
	"errors"
	"strings"
)

// Domain errors
var (
	ErrEmptyTitle   = errors.New("notice title cannot be empty")
	ErrEmptyContent = errors.New("notice content cannot be empty")
	ErrInvalidDate  = errors.New("notice date must be YYYY-MM-DD")
)

// DateLayout is the layout of Notice.Date.
const DateLayout = "2006-01-02"

// Notice is a public announcement. It has no slug and is addressed by ID.
// Content supports Markdown formatting.
type Notice struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Date     string `json:"date,omitempty"`
	Category string `json:"category,omitempty"`
	Content  string `json:"content"`
}

// Validate checks if the Notice has valid data.
// PRE: Notice struct is populated
// POST: Returns nil if valid, error otherwise
func (n *Notice) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return ErrEmptyTitle
	}
	if strings.TrimSpace(n.Content) == "" {
		return ErrEmptyContent
	}
	if n.Date != "" && !isDate(n.Date) {
		return ErrInvalidDate
	}
	return nil
}

// isDate accepts a YYYY-MM-DD prefix; backends often append a time component.
func isDate(s string) bool {
	if len(s) < len(DateLayout) {
		return false
	}
	for i, c := range s[:len(DateLayout)] {
		if i == 4 || i == 7 {
			if c != '-' {
				return false
			}
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
