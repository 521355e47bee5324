package constants

// RuleID identifies a validation rule. Values are stable: they appear in
// persisted reports and in the summary's top_error_categories.
type RuleID string

const (
	RuleMissingInvoiceNumber   RuleID = "missing_invoice_number"
	RuleUnparseableInvoiceDate RuleID = "unparseable_invoice_date"
	RuleMissingSellerName      RuleID = "missing_seller_name"
	RuleMissingBuyerName       RuleID = "missing_buyer_name"
	RuleTotalsMismatch         RuleID = "totals_mismatch"
	RuleLineItemsSumMismatch   RuleID = "line_items_sum_mismatch"
	RuleNegativeTotal          RuleID = "negative_total"
	RuleDuplicateInvoice       RuleID = "duplicate_invoice"
)

// Severity classifies a finding. An error-severity finding marks the
// invoice invalid; a warning is informational only.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)
