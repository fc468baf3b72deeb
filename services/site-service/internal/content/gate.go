package content

import (
	"time"

	"github.com/claryon/claryon-site/services/site-service/internal/model"
)

// IsPublic reports whether p passes the publication gate on the given day:
// published, dated, and the date is not after today.
func IsPublic(p model.Post, today time.Time) bool {
	if p.Status != model.PostPublished || p.PublicationDate == nil {
		return false
	}
	return !DateOf(*p.PublicationDate).After(DateOf(today))
}

// DateOf truncates t to its calendar date in t's own location, returned as UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const DateLayout = "2006-01-02"

// ParseDate parses YYYY-MM-DD. Empty input yields nil.
func ParseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
