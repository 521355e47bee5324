package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/finhub-tools/invoice-qc/constants"
	"github.com/finhub-tools/invoice-qc/internal/entity"
)

// maxTopErrorCategories caps the summary's top_error_categories list.
const maxTopErrorCategories = 5

// ValidateBatch runs the full rule catalog over a batch of invoice records
// and returns the per-invoice reports plus the batch summary.
//
// The function is pure: output depends only on the input slice, report order
// matches input order, and running it twice on the same input yields an
// identical report. Data defects never abort the run; they become findings
// on the affected invoice.
func ValidateBatch(records []entity.Invoice) *entity.BatchReport {
	batch := NewBatchContext(records)

	reports := make([]entity.InvoiceReport, 0, len(records))
	errorCounts := make(map[constants.RuleID]int)
	validCount := 0

	for i := range records {
		inv := &records[i]

		findings := make([]entity.Finding, 0)
		for _, rule := range catalog {
			for _, v := range rule.Check(inv, batch) {
				f := entity.Finding{
					RuleID:   rule.ID,
					Severity: rule.Severity,
					Message:  v.Message,
				}
				if v.Field != "" {
					field := v.Field
					f.Field = &field
				}
				findings = append(findings, f)
				if rule.Severity == constants.SeverityError {
					errorCounts[rule.ID]++
				}
			}
		}

		valid := true
		for _, f := range findings {
			if f.Severity == constants.SeverityError {
				valid = false
				break
			}
		}
		if valid {
			validCount++
		}

		reports = append(reports, entity.InvoiceReport{
			ID:       reportID(inv, i),
			IsValid:  valid,
			Findings: findings,
		})
	}

	return &entity.BatchReport{
		Invoices: reports,
		Summary: entity.BatchSummary{
			TotalInvoices:      len(records),
			ValidCount:         validCount,
			InvalidCount:       len(records) - validCount,
			TopErrorCategories: topErrorCategories(errorCounts),
		},
	}
}

// reportID returns the invoice number when present, falling back to the
// record's 1-based position in the batch.
func reportID(inv *entity.Invoice, index int) string {
	if !isBlank(inv.InvoiceNumber) {
		return strings.TrimSpace(*inv.InvoiceNumber)
	}
	return fmt.Sprintf("#%d", index+1)
}

// topErrorCategories sorts error-severity rule frequencies descending by
// count, breaking ties ascending by rule id so that the ordering is
// deterministic across runs.
func topErrorCategories(counts map[constants.RuleID]int) []entity.RuleCount {
	out := make([]entity.RuleCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, entity.RuleCount{RuleID: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].RuleID < out[j].RuleID
	})
	if len(out) > maxTopErrorCategories {
		out = out[:maxTopErrorCategories]
	}
	return out
}
