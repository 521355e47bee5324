package validate

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/finhub-tools/invoice-qc/constants"
	"github.com/finhub-tools/invoice-qc/internal/entity"
)

// tolerance is the absolute currency-unit deviation allowed by the
// arithmetic rules. It is deliberately not relative to the invoice
// magnitude; a 0.5 slack on a ten-euro invoice and on a million-euro
// invoice is a documented limitation of the source rules. The boundary is
// inclusive: a deviation of exactly 0.5 passes.
var tolerance = decimal.NewFromFloat(0.5)

// Violation is one rule hit before the engine stamps it with the rule's id
// and severity.
type Violation struct {
	Field   string
	Message string
}

// CheckFunc inspects one invoice, with read-only access to its batch, and
// returns zero or more violations. Checks must be pure: no clock, disk or
// network access, and no mutation of the record or the batch context.
type CheckFunc func(inv *entity.Invoice, batch *BatchContext) []Violation

// Rule couples a stable id and severity with its check.
type Rule struct {
	ID       constants.RuleID
	Severity constants.Severity
	Check    CheckFunc
}

// catalog is the fixed evaluation order. Report findings and summary
// tie-breaking depend on it, so entries must not be reordered; new rules go
// before the batch-scoped duplicate check, which stays last.
var catalog = []Rule{
	{ID: constants.RuleMissingInvoiceNumber, Severity: constants.SeverityError, Check: checkInvoiceNumber},
	{ID: constants.RuleUnparseableInvoiceDate, Severity: constants.SeverityError, Check: checkInvoiceDate},
	{ID: constants.RuleMissingSellerName, Severity: constants.SeverityError, Check: checkSellerName},
	{ID: constants.RuleMissingBuyerName, Severity: constants.SeverityError, Check: checkBuyerName},
	{ID: constants.RuleTotalsMismatch, Severity: constants.SeverityError, Check: checkTotals},
	{ID: constants.RuleLineItemsSumMismatch, Severity: constants.SeverityError, Check: checkLineItemsSum},
	{ID: constants.RuleNegativeTotal, Severity: constants.SeverityError, Check: checkNegativeTotals},
	{ID: constants.RuleDuplicateInvoice, Severity: constants.SeverityError, Check: checkDuplicate},
}

// Catalog returns the ordered rule catalog.
func Catalog() []Rule {
	return catalog
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func checkInvoiceNumber(inv *entity.Invoice, _ *BatchContext) []Violation {
	if isBlank(inv.InvoiceNumber) {
		return []Violation{{Field: "invoice_number", Message: "invoice number must not be empty"}}
	}
	return nil
}

func checkInvoiceDate(inv *entity.Invoice, _ *BatchContext) []Violation {
	if isBlank(inv.InvoiceDate) {
		return []Violation{{Field: "invoice_date", Message: "invoice date is missing"}}
	}
	if _, ok := parseDate(*inv.InvoiceDate); !ok {
		return []Violation{{
			Field:   "invoice_date",
			Message: fmt.Sprintf("invoice date %q is not a recognized date", strings.TrimSpace(*inv.InvoiceDate)),
		}}
	}
	return nil
}

func checkSellerName(inv *entity.Invoice, _ *BatchContext) []Violation {
	if isBlank(inv.SellerName) {
		return []Violation{{Field: "seller_name", Message: "seller name must not be empty"}}
	}
	return nil
}

func checkBuyerName(inv *entity.Invoice, _ *BatchContext) []Violation {
	if isBlank(inv.BuyerName) {
		return []Violation{{Field: "buyer_name", Message: "buyer name must not be empty"}}
	}
	return nil
}

// checkTotals verifies net_total + tax_amount against gross_total. It stays
// silent when any of the three is absent: missingness is reported by the
// completeness rules, not duplicated here.
func checkTotals(inv *entity.Invoice, _ *BatchContext) []Violation {
	if inv.NetTotal == nil || inv.TaxAmount == nil || inv.GrossTotal == nil {
		return nil
	}
	diff := inv.NetTotal.Add(*inv.TaxAmount).Sub(*inv.GrossTotal).Abs()
	if diff.GreaterThan(tolerance) {
		return []Violation{{
			Field: "gross_total",
			Message: fmt.Sprintf("net_total %s + tax_amount %s differs from gross_total %s by %s (tolerance %s)",
				inv.NetTotal, inv.TaxAmount, inv.GrossTotal, diff, tolerance),
		}}
	}
	return nil
}

// checkLineItemsSum verifies the sum of present line totals against
// net_total. Line items without a line_total contribute nothing; the
// per-line quantity*unit_price identity is intentionally not validated.
func checkLineItemsSum(inv *entity.Invoice, _ *BatchContext) []Violation {
	if inv.NetTotal == nil || len(inv.LineItems) == 0 {
		return nil
	}
	sum := decimal.Zero
	for _, item := range inv.LineItems {
		if item.LineTotal != nil {
			sum = sum.Add(*item.LineTotal)
		}
	}
	diff := sum.Sub(*inv.NetTotal).Abs()
	if diff.GreaterThan(tolerance) {
		return []Violation{{
			Field: "line_items",
			Message: fmt.Sprintf("line item totals sum to %s but net_total is %s (difference %s, tolerance %s)",
				sum, inv.NetTotal, diff, tolerance),
		}}
	}
	return nil
}

func checkNegativeTotals(inv *entity.Invoice, _ *BatchContext) []Violation {
	fields := []struct {
		name  string
		value *decimal.Decimal
	}{
		{"net_total", inv.NetTotal},
		{"tax_amount", inv.TaxAmount},
		{"gross_total", inv.GrossTotal},
	}
	var out []Violation
	for _, f := range fields {
		if f.value != nil && f.value.IsNegative() {
			out = append(out, Violation{
				Field:   f.name,
				Message: fmt.Sprintf("%s is %s; totals must not be negative", f.name, f.value),
			})
		}
	}
	return out
}

// checkDuplicate is the only batch-scoped rule. It fires for every record
// whose normalized (invoice_number, seller_name) pair occurs more than once
// in the batch.
func checkDuplicate(inv *entity.Invoice, batch *BatchContext) []Violation {
	if batch == nil || !batch.InDuplicateGroup(inv) {
		return nil
	}
	return []Violation{{
		Field: "invoice_number",
		Message: fmt.Sprintf("invoice number %q from seller %q appears more than once in this batch",
			strings.TrimSpace(*inv.InvoiceNumber), strings.TrimSpace(*inv.SellerName)),
	}}
}
