package validate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finhub-tools/invoice-qc/constants"
	"github.com/finhub-tools/invoice-qc/internal/entity"
)

func TestValidateBatchTotalsMismatchScenario(t *testing.T) {
	// |100 + 10 - 111| = 1 > 0.5
	records := []entity.Invoice{{
		InvoiceNumber: strp("INV1"),
		SellerName:    strp("Acme"),
		InvoiceDate:   strp("2024-01-31"),
		BuyerName:     strp("Globex"),
		NetTotal:      dec("100"),
		TaxAmount:     dec("10"),
		GrossTotal:    dec("111"),
	}}

	report := ValidateBatch(records)

	require.Len(t, report.Invoices, 1)
	inv := report.Invoices[0]
	assert.Equal(t, "INV1", inv.ID)
	assert.False(t, inv.IsValid)
	require.Len(t, inv.Findings, 1)
	assert.Equal(t, constants.RuleTotalsMismatch, inv.Findings[0].RuleID)
	assert.Equal(t, constants.SeverityError, inv.Findings[0].Severity)

	assert.Equal(t, entity.BatchSummary{
		TotalInvoices: 1,
		ValidCount:    0,
		InvalidCount:  1,
		TopErrorCategories: []entity.RuleCount{
			{RuleID: constants.RuleTotalsMismatch, Count: 1},
		},
	}, report.Summary)
}

func TestValidateBatchDuplicateScenario(t *testing.T) {
	mk := func() entity.Invoice {
		return entity.Invoice{
			InvoiceNumber: strp("INV9"),
			SellerName:    strp("Acme"),
			InvoiceDate:   strp("2024-02-01"),
			BuyerName:     strp("Globex"),
			NetTotal:      dec("100"),
			TaxAmount:     dec("10"),
			GrossTotal:    dec("110"),
		}
	}
	records := []entity.Invoice{mk(), mk()}

	report := ValidateBatch(records)

	require.Len(t, report.Invoices, 2)
	for _, inv := range report.Invoices {
		assert.False(t, inv.IsValid)
		assert.Equal(t, []constants.RuleID{constants.RuleDuplicateInvoice}, ruleIDs(inv.Findings))
	}
	assert.Equal(t, 2, report.Summary.InvalidCount)
	assert.Equal(t, []entity.RuleCount{
		{RuleID: constants.RuleDuplicateInvoice, Count: 2},
	}, report.Summary.TopErrorCategories)
}

func TestValidateBatchCountsAlwaysAddUp(t *testing.T) {
	records := []entity.Invoice{
		completeInvoice(),
		{},
		{InvoiceNumber: strp("INV-2")},
		completeInvoice(), // duplicate of the first
	}

	report := ValidateBatch(records)

	s := report.Summary
	assert.Equal(t, len(records), s.TotalInvoices)
	assert.Equal(t, s.TotalInvoices, s.ValidCount+s.InvalidCount)
}

func TestValidateBatchPreservesInputOrderAndIndexFallback(t *testing.T) {
	records := []entity.Invoice{
		{InvoiceNumber: strp("B-2")},
		{},
		{InvoiceNumber: strp("A-1")},
	}

	report := ValidateBatch(records)

	require.Len(t, report.Invoices, 3)
	assert.Equal(t, "B-2", report.Invoices[0].ID)
	assert.Equal(t, "#2", report.Invoices[1].ID)
	assert.Equal(t, "A-1", report.Invoices[2].ID)
}

func TestValidateBatchIsIdempotent(t *testing.T) {
	records := []entity.Invoice{
		completeInvoice(),
		{InvoiceNumber: strp("INV-7"), SellerName: strp("Acme")},
		{},
	}

	first, err := json.Marshal(ValidateBatch(records))
	require.NoError(t, err)
	second, err := json.Marshal(ValidateBatch(records))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestValidateBatchEmpty(t *testing.T) {
	report := ValidateBatch(nil)

	assert.Empty(t, report.Invoices)
	assert.Equal(t, 0, report.Summary.TotalInvoices)
	assert.Empty(t, report.Summary.TopErrorCategories)
}

func TestTopErrorCategoriesOrdering(t *testing.T) {
	counts := map[constants.RuleID]int{
		constants.RuleMissingSellerName:      2,
		constants.RuleMissingBuyerName:       2,
		constants.RuleTotalsMismatch:         5,
		constants.RuleMissingInvoiceNumber:   1,
		constants.RuleNegativeTotal:          1,
		constants.RuleUnparseableInvoiceDate: 1,
	}

	got := topErrorCategories(counts)

	// Descending by count; ties ascending by rule id; capped at five.
	assert.Equal(t, []entity.RuleCount{
		{RuleID: constants.RuleTotalsMismatch, Count: 5},
		{RuleID: constants.RuleMissingBuyerName, Count: 2},
		{RuleID: constants.RuleMissingSellerName, Count: 2},
		{RuleID: constants.RuleMissingInvoiceNumber, Count: 1},
		{RuleID: constants.RuleNegativeTotal, Count: 1},
	}, got)
}

func TestValidateBatchFindingsFollowCatalogOrder(t *testing.T) {
	// A record violating several rules reports them in catalog order.
	report := ValidateBatch([]entity.Invoice{{
		NetTotal:   dec("-10"),
		TaxAmount:  dec("1"),
		GrossTotal: dec("100"),
	}})

	assert.Equal(t, []constants.RuleID{
		constants.RuleMissingInvoiceNumber,
		constants.RuleUnparseableInvoiceDate,
		constants.RuleMissingSellerName,
		constants.RuleMissingBuyerName,
		constants.RuleTotalsMismatch,
		constants.RuleNegativeTotal,
	}, ruleIDs(report.Invoices[0].Findings))
}
