// Package sanitize strips markup from user supplied text before it is stored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// maxPasses bounds how many layers of entity encoding are peeled off.
const maxPasses = 5

// Text trims s and removes every HTML tag. Values are stored as plain text,
// so entities are decoded and the result sanitized again until nothing
// changes; encoded markup cannot come back to life after the policy ran.
// Input still changing after maxPasses is returned in its escaped form.
func Text(s string) string {
	s = strings.TrimSpace(s)
	for range maxPasses {
		if s == "" {
			return ""
		}
		clean := strict.Sanitize(s)
		plain := strings.TrimSpace(html.UnescapeString(clean))
		if plain == s {
			return plain
		}
		s = plain
	}
	return strings.TrimSpace(strict.Sanitize(s))
}
