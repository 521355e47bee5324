package extract

import (
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testExtractor() *Extractor {
	return NewExtractor(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const sampleInvoiceEN = `Invoice Number: INV-2024-001
Date: 2024-01-15
Due date: 2024-02-14

Quantity Description Unit Price Amount
2 Widget 10.00 20.00
1 Gadget 80.00 80.00

Net total: 100.00
Tax (19%): 19.00
Total: 119.00 EUR
`

const sampleInvoiceDE = `Rechnung
Rechnungsnummer: RG-2024-0815
Datum: 15/01/2024

Menge Artikelbeschreibung Einzelpreis Bestellwert
2 Schraube 12,50 25,00

Gesamtwert: 25,00 €
MwSt: 3,99
`

func assertDecimal(t *testing.T, want string, got *decimal.Decimal) {
	t.Helper()
	require.NotNil(t, got)
	assert.True(t, got.Equal(decimal.RequireFromString(want)), "got %s, want %s", got, want)
}

func TestParseInvoiceTextEnglish(t *testing.T) {
	inv := testExtractor().ParseInvoiceText(sampleInvoiceEN)

	require.NotNil(t, inv.InvoiceNumber)
	assert.Equal(t, "INV-2024-001", *inv.InvoiceNumber)
	require.NotNil(t, inv.InvoiceDate)
	assert.Equal(t, "2024-01-15", *inv.InvoiceDate)
	require.NotNil(t, inv.DueDate)
	assert.Equal(t, "2024-02-14", *inv.DueDate)

	assertDecimal(t, "100.00", inv.NetTotal)
	assertDecimal(t, "19.00", inv.TaxAmount)
	assertDecimal(t, "119.00", inv.GrossTotal)

	require.NotNil(t, inv.Currency)
	assert.Equal(t, "EUR", *inv.Currency)

	require.Len(t, inv.LineItems, 2)
	assert.Equal(t, "Widget", *inv.LineItems[0].Description)
	assertDecimal(t, "2", inv.LineItems[0].Quantity)
	assertDecimal(t, "10.00", inv.LineItems[0].UnitPrice)
	assertDecimal(t, "20.00", inv.LineItems[0].LineTotal)
	assert.Equal(t, "Gadget", *inv.LineItems[1].Description)

	// Names are never guessed from plain text.
	assert.Nil(t, inv.SellerName)
	assert.Nil(t, inv.BuyerName)
}

func TestParseInvoiceTextGerman(t *testing.T) {
	inv := testExtractor().ParseInvoiceText(sampleInvoiceDE)

	require.NotNil(t, inv.InvoiceNumber)
	assert.Equal(t, "RG-2024-0815", *inv.InvoiceNumber)
	require.NotNil(t, inv.InvoiceDate)
	assert.Equal(t, "15/01/2024", *inv.InvoiceDate)
	assert.Nil(t, inv.DueDate)

	// No "Netto" line in the document, so the net total stays absent.
	assert.Nil(t, inv.NetTotal)
	assertDecimal(t, "3.99", inv.TaxAmount)
	assertDecimal(t, "25.00", inv.GrossTotal)

	require.NotNil(t, inv.Currency)
	assert.Equal(t, "EUR", *inv.Currency)

	require.Len(t, inv.LineItems, 1)
	assert.Equal(t, "Schraube", *inv.LineItems[0].Description)
	assertDecimal(t, "2", inv.LineItems[0].Quantity)
	assertDecimal(t, "12.50", inv.LineItems[0].UnitPrice)
	assertDecimal(t, "25.00", inv.LineItems[0].LineTotal)
}

func TestParseInvoiceTextEmpty(t *testing.T) {
	for _, text := range []string{"", "   \n\t "} {
		inv := testExtractor().ParseInvoiceText(text)

		assert.Nil(t, inv.InvoiceNumber)
		assert.Nil(t, inv.InvoiceDate)
		assert.Nil(t, inv.NetTotal)
		assert.Nil(t, inv.Currency)
		require.NotNil(t, inv.LineItems)
		assert.Empty(t, inv.LineItems)
	}
}
