package validate

import (
	"strings"

	"github.com/finhub-tools/invoice-qc/internal/entity"
)

// dupKey is the normalized (invoice_number, seller_name) pair duplicates are
// grouped by.
type dupKey struct {
	number string
	seller string
}

// BatchContext is the read-only batch-scoped state shared by all rules while
// one batch is validated. It is built once per ValidateBatch call and
// discarded with it; nothing survives across calls.
type BatchContext struct {
	duplicateGroups map[dupKey]int
}

// NewBatchContext indexes the batch for duplicate detection. Records whose
// invoice number or seller name is absent or blank are excluded from
// grouping, so missing data never produces a false duplicate.
func NewBatchContext(records []entity.Invoice) *BatchContext {
	counts := make(map[dupKey]int)
	for i := range records {
		if key, ok := duplicateKey(&records[i]); ok {
			counts[key]++
		}
	}
	groups := make(map[dupKey]int)
	for key, n := range counts {
		if n >= 2 {
			groups[key] = n
		}
	}
	return &BatchContext{duplicateGroups: groups}
}

// InDuplicateGroup reports whether the invoice shares its normalized
// (invoice_number, seller_name) pair with at least one other record in the
// batch. Every member of a duplicate group matches; no record is privileged
// as the original.
func (b *BatchContext) InDuplicateGroup(inv *entity.Invoice) bool {
	key, ok := duplicateKey(inv)
	if !ok {
		return false
	}
	return b.duplicateGroups[key] >= 2
}

func duplicateKey(inv *entity.Invoice) (dupKey, bool) {
	number := normalizeKeyPart(inv.InvoiceNumber)
	seller := normalizeKeyPart(inv.SellerName)
	if number == "" || seller == "" {
		return dupKey{}, false
	}
	return dupKey{number: number, seller: seller}, true
}

func normalizeKeyPart(s *string) string {
	if s == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*s))
}
