package usecase

import (
	"context"
	"log/slog"

	"github.com/finsight/invoice-pipeline/internal/core/domain"
	"github.com/finsight/invoice-pipeline/internal/core/ports"
)

// ProgressFunc reports per-file progress: current is 1-based and reaches
// total exactly once per batch.
type ProgressFunc func(current, total int, filename string)

// BatchRunner processes documents sequentially. The external completion
// API is rate-limited and billed per call, so sequential is the safe
// default; it also keeps result ordering trivially aligned with input
// ordering.
type BatchRunner struct {
	extractor ports.DocumentExtractor
	logger    *slog.Logger
}

func NewBatchRunner(extractor ports.DocumentExtractor, logger *slog.Logger) *BatchRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchRunner{extractor: extractor, logger: logger}
}

// ProcessBatch returns exactly one outcome per input document, in input
// order. A failing document yields a zero-page placeholder and the batch
// continues; a single bad file never aborts the run. onProgress fires
// after every document, success or failure.
func (b *BatchRunner) ProcessBatch(
	ctx context.Context,
	documents []domain.Document,
	invoiceType domain.InvoiceType,
	onProgress ProgressFunc,
) []domain.ExtractionOutcome {
	outcomes := make([]domain.ExtractionOutcome, 0, len(documents))

	for i, doc := range documents {
		outcome, err := b.extractor.ExtractDocument(ctx, doc, invoiceType)
		if err != nil {
			b.logger.Warn("document extraction failed, continuing batch",
				"document", doc.Name, "position", i+1, "total", len(documents), "error", err)
			outcome = domain.ExtractionOutcome{
				Filename:   doc.Name,
				TotalPages: 0,
				Records:    []domain.ExtractedRecord{},
			}
		}
		outcomes = append(outcomes, outcome)

		if onProgress != nil {
			onProgress(i+1, len(documents), doc.Name)
		}
	}

	return outcomes
}
