package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/finhub-tools/invoice-qc/internal/entity"
)

// Service renders validation reports as XLSX workbooks for back-office
// review.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ReportXLSX returns an XLSX workbook (as bytes) for a batch report: one
// findings sheet with a row per finding (and a row per clean invoice), plus
// a summary sheet.
func (s *Service) ReportXLSX(report *entity.BatchReport) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const findingsSheet = "Findings"
	const summarySheet = "Summary"

	if err := f.SetSheetName("Sheet1", findingsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	if index, err := f.GetSheetIndex(findingsSheet); err == nil {
		f.SetActiveSheet(index)
	}

	headers := []string{"Invoice", "Valid", "Rule", "Severity", "Field", "Message"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(findingsSheet, cell, h)
	}

	write := func(sheet string, col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	row := 2
	findingRows := 0
	for _, inv := range report.Invoices {
		if len(inv.Findings) == 0 {
			write(findingsSheet, 1, row, inv.ID)
			write(findingsSheet, 2, row, inv.IsValid)
			write(findingsSheet, 6, row, "no findings")
			row++
			continue
		}
		for _, finding := range inv.Findings {
			write(findingsSheet, 1, row, inv.ID)
			write(findingsSheet, 2, row, inv.IsValid)
			write(findingsSheet, 3, row, string(finding.RuleID))
			write(findingsSheet, 4, row, string(finding.Severity))
			if finding.Field != nil {
				write(findingsSheet, 5, row, *finding.Field)
			}
			write(findingsSheet, 6, row, finding.Message)
			row++
			findingRows++
		}
	}

	write(summarySheet, 1, 1, "Total invoices")
	write(summarySheet, 2, 1, report.Summary.TotalInvoices)
	write(summarySheet, 1, 2, "Valid")
	write(summarySheet, 2, 2, report.Summary.ValidCount)
	write(summarySheet, 1, 3, "Invalid")
	write(summarySheet, 2, 3, report.Summary.InvalidCount)

	write(summarySheet, 1, 5, "Top error categories")
	for i, cat := range report.Summary.TopErrorCategories {
		write(summarySheet, 1, 6+i, string(cat.RuleID))
		write(summarySheet, 2, 6+i, cat.Count)
	}

	// Widen a few columns
	_ = f.SetColWidth(findingsSheet, "A", "A", 18)
	_ = f.SetColWidth(findingsSheet, "C", "C", 26)
	_ = f.SetColWidth(findingsSheet, "F", "F", 72)
	_ = f.SetColWidth(summarySheet, "A", "A", 26)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"invoices", len(report.Invoices),
		"finding_rows", findingRows,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
