package slug

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidSlug is returned for slugs that are not URL-safe.
var ErrInvalidSlug = errors.New("slug may only contain lowercase letters, digits and single hyphens")

var (
	validPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
)

// Validate checks that s is a URL-safe slug.
func Validate(s string) error {
	if !validPattern.MatchString(s) {
		return ErrInvalidSlug
	}
	return nil
}

// Make derives a slug from a title, e.g. "Winter Fund 2025" -> "winter-fund-2025".
// PRE: none
// POST: Returns a valid slug or "" when title has no letters or digits
func Make(title string) string {
	s := nonSlugChars.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}
