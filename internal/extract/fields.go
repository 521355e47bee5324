package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/finhub-tools/invoice-qc/internal/entity"
)

var (
	reInvoiceNoEN = regexp.MustCompile(`(?i)Invoice\s*(?:No\.?|Number)?\s*[:#]?\s*([A-Za-z0-9\-_/]+)`)
	reInvoiceNoDE = regexp.MustCompile(`(?i)(?:Rechnungs(?:nr\.|nummer)?|Belegnr\.?)\s*[:#]?\s*([A-Za-z0-9\-_/]+)`)

	reDate = regexp.MustCompile(`(\d{4}[-/]\d{1,2}[-/]\d{1,2}|\d{1,2}[-/]\d{1,2}[-/]\d{2,4})`)

	reAmountToken   = regexp.MustCompile(`([0-9.,]+)`)
	reLineItemToken = regexp.MustCompile(`[0-9]+(?:[.,][0-9]+)?`)
)

var (
	totalKeywordsEN = []string{"total", "subtotal", "grand total", "amount due"}
	totalKeywordsDE = []string{"gesamtwert", "gesamtbetrag", "betrag", "gesamt"}
	vatKeywordsEN   = []string{"tax", "vat"}
	vatKeywordsDE   = []string{"mwst", "ust", "umsatzsteuer"}
)

func guessInvoiceNumber(text, lang string) *string {
	re := reInvoiceNoEN
	if lang == LangGerman {
		re = reInvoiceNoDE
	}
	if m := re.FindStringSubmatch(text); m != nil {
		n := strings.TrimSpace(m[1])
		return &n
	}
	return nil
}

// guessDates treats the first date-looking token as the invoice date and the
// second, when present, as the due date. The literals are kept verbatim; the
// validation engine decides whether they parse.
func guessDates(text string) (invoiceDate, dueDate *string) {
	matches := reDate.FindAllString(text, 2)
	if len(matches) > 0 {
		invoiceDate = &matches[0]
	}
	if len(matches) > 1 {
		dueDate = &matches[1]
	}
	return invoiceDate, dueDate
}

// guessTotals scans lines bottom-up (totals usually sit near the end of an
// invoice) and assigns the last numeric token of a line to the first
// matching keyword bucket.
func guessTotals(text, lang string) (netTotal, taxAmount, grossTotal *decimal.Decimal) {
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		low := strings.ToLower(line)

		tokens := reAmountToken.FindAllString(line, -1)
		if len(tokens) == 0 {
			continue
		}
		val, ok := NormalizeNumber(tokens[len(tokens)-1], lang)
		if !ok {
			continue
		}

		if lang == LangGerman {
			switch {
			case taxAmount == nil && containsAny(low, vatKeywordsDE):
				taxAmount = &val
			case grossTotal == nil && containsAny(low, totalKeywordsDE):
				grossTotal = &val
			case netTotal == nil && strings.Contains(low, "netto"):
				netTotal = &val
			}
		} else {
			switch {
			case taxAmount == nil && containsAny(low, vatKeywordsEN):
				taxAmount = &val
			case grossTotal == nil && containsAny(low, totalKeywordsEN):
				grossTotal = &val
			case netTotal == nil && strings.Contains(low, "net"):
				netTotal = &val
			}
		}
	}
	return netTotal, taxAmount, grossTotal
}

// parseLineItems detects a table-like block by its header keywords and
// parses the following lines until the totals block starts. It aims at
// simple single-line positions: numeric tokens are read as quantity, unit
// price and line total, the remainder of the line as the description.
func parseLineItems(text, lang string) []entity.LineItem {
	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(ln); s != "" {
			lines = append(lines, s)
		}
	}

	start := 0
	for i, ln := range lines {
		if isLineItemHeader(strings.ToLower(ln), lang) {
			start = i + 1
			break
		}
	}

	stopKeywords := append(append([]string{}, totalKeywordsEN...), vatKeywordsEN...)
	if lang == LangGerman {
		stopKeywords = append(append([]string{}, totalKeywordsDE...), vatKeywordsDE...)
	}

	items := make([]entity.LineItem, 0)
	for _, ln := range lines[start:] {
		low := strings.ToLower(ln)
		if containsAny(low, stopKeywords) {
			break
		}

		tokens := reLineItemToken.FindAllString(ln, -1)
		if len(tokens) == 0 {
			// No numbers: likely a wrapped description, skip.
			continue
		}

		desc := strings.Trim(reLineItemToken.ReplaceAllString(ln, ""), " -:|,.")
		if desc == "" {
			desc = strings.TrimSpace(strings.TrimSuffix(ln, tokens[len(tokens)-1]))
		}

		qty, ok := NormalizeNumber(tokens[0], lang)
		if desc == "" || !ok {
			continue
		}

		item := entity.LineItem{Description: &desc, Quantity: &qty}
		if len(tokens) >= 2 {
			if v, ok := NormalizeNumber(tokens[1], lang); ok {
				item.UnitPrice = &v
			}
		}
		if len(tokens) >= 3 {
			if v, ok := NormalizeNumber(tokens[2], lang); ok {
				item.LineTotal = &v
			}
		}
		items = append(items, item)
	}
	return items
}

func isLineItemHeader(low, lang string) bool {
	if lang == LangGerman {
		return (strings.Contains(low, "pos") && strings.Contains(low, "artikel")) ||
			(strings.Contains(low, "artikelbeschreibung") && strings.Contains(low, "preis")) ||
			(strings.Contains(low, "menge") && strings.Contains(low, "bestellwert"))
	}
	return (strings.Contains(low, "description") && strings.Contains(low, "price")) ||
		(strings.Contains(low, "quantity") && strings.Contains(low, "description"))
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
