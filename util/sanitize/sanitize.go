// Package sanitize normalizes user-supplied text into safe identifiers.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// nonKebabRegex matches anything outside lowercase kebab-case.
	nonKebabRegex = regexp.MustCompile(`[^a-z0-9-]+`)

	// multiDashRegex matches multiple consecutive dashes
	multiDashRegex = regexp.MustCompile(`-+`)
)

// ForFilename sanitizes a string for use in a filename (kebab-case).
// Query text like "Generate a practice exam!" becomes "generate-a-practice-exam".
func ForFilename(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "-")
	// Remove non-alphanumeric characters, except hyphens
	s = nonKebabRegex.ReplaceAllString(s, "")
	// Collapse multiple hyphens
	s = multiDashRegex.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 { // Truncate long names
		s = s[:50]
	}
	return s
}
