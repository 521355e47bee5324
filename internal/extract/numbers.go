package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var reNonNumeric = regexp.MustCompile(`[^\d,.\-]`)

// NormalizeNumber parses a numeric token under the given language's
// conventions. German uses '.' as the thousands separator and ',' as the
// decimal mark ("1.285,20"); English is the reverse ("1,285.20"). Currency
// symbols and stray characters are stripped first.
func NormalizeNumber(token, lang string) (decimal.Decimal, bool) {
	s := reNonNumeric.ReplaceAllString(strings.TrimSpace(token), "")
	if s == "" {
		return decimal.Decimal{}, false
	}

	var normalized string
	if lang == LangGerman {
		if strings.Contains(s, ",") {
			// Treat the last comma as the decimal mark.
			parts := strings.Split(s, ",")
			integer := strings.ReplaceAll(strings.Join(parts[:len(parts)-1], ""), ".", "")
			normalized = integer + "." + parts[len(parts)-1]
		} else {
			normalized = strings.ReplaceAll(s, ".", "")
		}
	} else {
		normalized = strings.ReplaceAll(s, ",", "")
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
