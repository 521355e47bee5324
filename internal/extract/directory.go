package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/finhub-tools/invoice-qc/constants"
	"github.com/finhub-tools/invoice-qc/internal/entity"
)

// DirectoryStats summarizes one directory extraction pass.
type DirectoryStats struct {
	Scanned   int
	Matched   int
	Extracted int
	Empty     int
}

// ExtractDirectory extracts one invoice record per allowed file in dir, in
// lexical filename order so batches are reproducible. Unreadable files
// become all-absent records rather than aborting the batch; the validation
// report must account for every document.
func (e *Extractor) ExtractDirectory(dir string) ([]entity.Invoice, DirectoryStats, error) {
	var stats DirectoryStats

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, stats, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		stats.Scanned++
		ext := constants.NormalizeExt(filepath.Ext(entry.Name()))
		if _, ok := constants.AllowedExtensions[ext]; !ok {
			continue
		}
		stats.Matched++
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	records := make([]entity.Invoice, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			e.logger.Error("failed to read invoice text", "path", path, "error", err)
			stats.Empty++
			records = append(records, entity.Invoice{LineItems: make([]entity.LineItem, 0)})
			continue
		}

		inv := e.ParseInvoiceText(string(data))
		if inv.InvoiceNumber == nil {
			stats.Empty++
		} else {
			stats.Extracted++
		}
		records = append(records, inv)
		e.logger.Info("processed invoice text", "path", path)
	}

	return records, stats, nil
}
