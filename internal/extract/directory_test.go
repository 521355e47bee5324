package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_invoice.txt"), []byte(sampleInvoiceEN), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_empty.txt"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte("not an invoice"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	records, stats, err := testExtractor().ExtractDirectory(dir)
	require.NoError(t, err)

	// Lexical filename order: the empty document comes first.
	require.Len(t, records, 2)
	assert.Nil(t, records[0].InvoiceNumber)
	require.NotNil(t, records[1].InvoiceNumber)
	assert.Equal(t, "INV-2024-001", *records[1].InvoiceNumber)

	assert.Equal(t, DirectoryStats{Scanned: 3, Matched: 2, Extracted: 1, Empty: 1}, stats)
}

func TestExtractDirectoryMissing(t *testing.T) {
	_, _, err := testExtractor().ExtractDirectory(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
