package content

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	slugPattern    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	slugStrip      = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugWhitespace = regexp.MustCompile(`\s+`)
	slugDashes     = regexp.MustCompile(`-{2,}`)
)

func ValidSlug(s string) bool {
	return len(s) >= 3 && slugPattern.MatchString(s)
}

// Slugify lowercases title, turns whitespace into dashes and drops every
// other non-alphanumeric character.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = strings.Map(func(r rune) rune {
		if r == '_' {
			return ' '
		}
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugWhitespace.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
