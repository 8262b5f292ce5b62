package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/finsight/invoice-pipeline/internal/core/domain"
	"github.com/finsight/invoice-pipeline/internal/core/ports"
)

// Service produces an XLSX workbook from a job's extraction results.
type Service struct {
	jobs    ports.JobRepository
	results ports.ResultRepository
	logger  *slog.Logger
}

func NewService(jobs ports.JobRepository, results ports.ResultRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{jobs: jobs, results: results, logger: logger}
}

// ExportJobXLSX returns workbook bytes for the given job, one row per
// extracted result. Works for any job that has results, including jobs
// that finished with partial document failures.
func (s *Service) ExportJobXLSX(ctx context.Context, jobID string) ([]byte, error) {
	start := time.Now()

	if _, err := s.jobs.GetByID(ctx, jobID); err != nil {
		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}
	results, err := s.results.ListByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Extracted Data"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	// Drop the default sheet so the workbook opens on the data.
	_ = f.DeleteSheet("Sheet1")
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Document",
		"Page",
		"Original Term",
		"Canonical Term",
		"Value",
		"Confidence",
		"Evidence",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, r := range results {
		writeResultRow(f, sheet, i+2, r)
	}

	_ = f.SetColWidth(sheet, "A", "A", 32) // document
	_ = f.SetColWidth(sheet, "B", "B", 8)  // page
	_ = f.SetColWidth(sheet, "C", "D", 24) // terms
	_ = f.SetColWidth(sheet, "E", "E", 14) // value
	_ = f.SetColWidth(sheet, "F", "F", 12) // confidence
	_ = f.SetColWidth(sheet, "G", "G", 60) // evidence

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"job_id", jobID,
		"rows", len(results),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeResultRow(f *excelize.File, sheet string, row int, r domain.Result) {
	write := func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
	write(1, r.DocName)
	write(2, r.Page)
	write(3, r.OriginalTerm)
	write(4, r.Canonical)
	write(5, r.Value)
	write(6, r.Confidence)
	write(7, r.Evidence)
}
