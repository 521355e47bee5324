package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/finhub-tools/invoice-qc/internal/common"
	"github.com/finhub-tools/invoice-qc/internal/entity"
)

// BuildBatchSchema returns a JSON-Schema (draft 2020-12 subset) for a batch
// payload as a generic map. The schema enforces structure only: a batch is
// an array of invoice objects with correctly typed fields. Completeness and
// business rules are the validation engine's job, so every field is
// nullable here.
func BuildBatchSchema() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": invoiceSchema(),
	}
}

func invoiceSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"invoice_number": textProp(),
			"invoice_date":   textProp(),
			"due_date":       textProp(),
			"seller_name":    textProp(),
			"seller_tax_id":  textProp(),
			"buyer_name":     textProp(),
			"buyer_tax_id":   textProp(),
			"currency":       textProp(),
			"net_total":      amountProp(),
			"tax_amount":     amountProp(),
			"gross_total":    amountProp(),
			"line_items": map[string]any{
				"type": []string{"array", "null"},
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"description": textProp(),
						"quantity":    amountProp(),
						"unit_price":  amountProp(),
						"line_total":  amountProp(),
					},
				},
			},
		},
	}
}

func textProp() map[string]any {
	return map[string]any{"type": []string{"string", "null"}}
}

// amountProp accepts JSON numbers and decimal strings; extractors that keep
// exact decimal representations submit strings.
func amountProp() map[string]any {
	return map[string]any{
		"type":    []string{"number", "string", "null"},
		"pattern": `^-?\d+(\.\d+)?$`,
	}
}

// DecodeBatch validates a raw batch payload against the batch schema and
// unmarshals it into invoice records. A payload that fails the schema is a
// caller contract violation (common.ErrInvalidInput); no partial batch is
// returned.
func DecodeBatch(data []byte) ([]entity.Invoice, error) {
	if err := validateAgainstSchema(BuildBatchSchema(), data); err != nil {
		return nil, common.InvalidInputErrorf("batch payload does not match the invoice schema: %v", err)
	}
	var records []entity.Invoice
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, common.InvalidInputErrorf("decode batch payload: %v", err)
	}
	return records, nil
}

// validateAgainstSchema validates data against schemaMap.
func validateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if err := compiled.Validate(v); err != nil {
		return err
	}
	return nil
}
