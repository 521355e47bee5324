package entity

import (
	"github.com/shopspring/decimal"
)

// Invoice is one parsed invoice record as produced by an upstream extractor
// (text heuristics, manual entry, or an API client). Every field an extractor
// may fail to grab is a pointer: nil means "absent on the document", which is
// distinct from an empty string or a zero amount. The validation engine turns
// absence into findings; it never substitutes defaults.
type Invoice struct {
	InvoiceNumber *string          `json:"invoice_number,omitempty"`
	InvoiceDate   *string          `json:"invoice_date,omitempty"`
	DueDate       *string          `json:"due_date,omitempty"`
	SellerName    *string          `json:"seller_name,omitempty"`
	SellerTaxID   *string          `json:"seller_tax_id,omitempty"`
	BuyerName     *string          `json:"buyer_name,omitempty"`
	BuyerTaxID    *string          `json:"buyer_tax_id,omitempty"`
	Currency      *string          `json:"currency,omitempty"`
	NetTotal      *decimal.Decimal `json:"net_total,omitempty"`
	TaxAmount     *decimal.Decimal `json:"tax_amount,omitempty"`
	GrossTotal    *decimal.Decimal `json:"gross_total,omitempty"`
	LineItems     []LineItem       `json:"line_items"`
}

// LineItem is a single position on an invoice, in document order.
type LineItem struct {
	Description *string          `json:"description,omitempty"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	LineTotal   *decimal.Decimal `json:"line_total,omitempty"`
}
