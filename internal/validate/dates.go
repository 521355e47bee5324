package validate

import (
	"strings"
	"time"
)

// dateLayouts are the recognized numeric date forms, tried in order. The
// single-digit layout tokens accept both padded and unpadded components, so
// "2024-01-05" and "2024-1-5" parse under the same layout. For ambiguous
// values such as 03/04/2024 the day-first layout wins because it is tried
// first.
var dateLayouts = []string{
	"2006-1-2",
	"2-1-2006",
	"2/1/2006",
	"2006/1/2",
	"1/2/2006",
}

// parseDate parses a date literal exactly as it appears on the document.
// No clock access: the result depends only on the input string.
func parseDate(value string) (time.Time, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
