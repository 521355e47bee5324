package extract

import (
	"log/slog"
	"strings"

	"github.com/finhub-tools/invoice-qc/internal/entity"
)

// Extractor turns already-extracted invoice text into structured records.
// It is a best-effort upstream collaborator of the validation engine: a
// field it cannot grab is left absent, never guessed or zeroed, so the
// completeness rules can report it.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// ParseInvoiceText extracts a single invoice record from document text.
// Empty input yields an all-absent record; downstream validation then
// reports the missing fields, so a document that failed upstream text
// extraction still shows up in the batch report.
func (e *Extractor) ParseInvoiceText(text string) entity.Invoice {
	inv := entity.Invoice{LineItems: make([]entity.LineItem, 0)}
	if strings.TrimSpace(text) == "" {
		e.logger.Warn("no text to extract, returning empty invoice record")
		return inv
	}

	lang := DetectLanguage(text)

	inv.InvoiceNumber = guessInvoiceNumber(text, lang)
	inv.InvoiceDate, inv.DueDate = guessDates(text)
	inv.NetTotal, inv.TaxAmount, inv.GrossTotal = guessTotals(text, lang)
	inv.LineItems = parseLineItems(text, lang)

	// Seller and buyer names need layout context the plain-text heuristics
	// do not have; they stay absent rather than guessed.

	if low := strings.ToLower(text); strings.Contains(low, "eur") || strings.Contains(text, "€") {
		cur := "EUR"
		inv.Currency = &cur
	}

	e.logger.Debug("extracted invoice record",
		"lang", lang,
		"has_invoice_number", inv.InvoiceNumber != nil,
		"line_items", len(inv.LineItems),
	)
	return inv
}
