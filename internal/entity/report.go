package entity

import (
	"github.com/finhub-tools/invoice-qc/constants"
)

// Finding is one defect reported against an invoice.
type Finding struct {
	RuleID   constants.RuleID   `json:"rule_id"`
	Severity constants.Severity `json:"severity"`
	Message  string             `json:"message"`
	Field    *string            `json:"field"`
}

// InvoiceReport is the per-invoice validation outcome. ID is the invoice
// number when present, otherwise "#<position>" with the 1-based position of
// the record in the submitted batch.
type InvoiceReport struct {
	ID       string    `json:"id"`
	IsValid  bool      `json:"is_valid"`
	Findings []Finding `json:"findings"`
}

// RuleCount is one entry of the summary's top error categories.
type RuleCount struct {
	RuleID constants.RuleID `json:"rule_id"`
	Count  int              `json:"count"`
}

// BatchSummary aggregates a whole validation run. TopErrorCategories counts
// error-severity findings only, sorted descending by count and ascending by
// rule id on ties.
type BatchSummary struct {
	TotalInvoices      int         `json:"total_invoices"`
	ValidCount         int         `json:"valid_count"`
	InvalidCount       int         `json:"invalid_count"`
	TopErrorCategories []RuleCount `json:"top_error_categories"`
}

// BatchReport is the full result of validating one batch, in input order.
type BatchReport struct {
	Invoices []InvoiceReport `json:"invoices"`
	Summary  BatchSummary    `json:"summary"`
}
