package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/finsight/invoice-pipeline/internal/core/domain"
	"github.com/finsight/invoice-pipeline/internal/core/extraction"
	"github.com/finsight/invoice-pipeline/internal/core/ports"
)

// ExtractorAdapter runs one document through the extraction path chosen at
// job creation: PDF-to-text plus a text completion for machine-printed
// invoices, or a vision completion over the raw bytes for images and
// handwritten documents.
type ExtractorAdapter struct {
	storage    ports.ObjectStorage
	pdf        ports.PDFTextExtractor
	completion ports.CompletionService
}

func NewExtractorAdapter(
	storage ports.ObjectStorage,
	pdf ports.PDFTextExtractor,
	completion ports.CompletionService,
) *ExtractorAdapter {
	return &ExtractorAdapter{
		storage:    storage,
		pdf:        pdf,
		completion: completion,
	}
}

// ExtractDocument returns an outcome whose Records slice is empty when the
// model produced nothing parseable; that is not an error. Errors are
// reserved for transport failures, missing blobs and, on the text path,
// documents without a text layer.
func (a *ExtractorAdapter) ExtractDocument(
	ctx context.Context,
	doc domain.Document,
	invoiceType domain.InvoiceType,
) (domain.ExtractionOutcome, error) {
	data, err := a.readBlob(ctx, doc)
	if err != nil {
		return domain.ExtractionOutcome{}, err
	}

	if invoiceType == domain.InvoiceHandwritten {
		return a.extractVision(ctx, doc, data)
	}
	return a.extractText(ctx, doc, data)
}

func (a *ExtractorAdapter) extractText(ctx context.Context, doc domain.Document, data []byte) (domain.ExtractionOutcome, error) {
	text, pages, err := a.pdf.ExtractText(ctx, data)
	if err != nil {
		return domain.ExtractionOutcome{}, fmt.Errorf("extract pdf text from %s: %w", doc.Name, err)
	}
	if strings.TrimSpace(text) == "" {
		return domain.ExtractionOutcome{}, domain.WrapError(
			domain.ErrNoTextContent, "extract pdf text",
			fmt.Errorf("%s has no text layer, possibly a scanned document", doc.Name),
		)
	}

	raw, err := a.completion.ExtractFromText(ctx, text, pages)
	if err != nil {
		return domain.ExtractionOutcome{}, fmt.Errorf("text completion for %s: %w", doc.Name, err)
	}

	return domain.ExtractionOutcome{
		Filename:   doc.Name,
		TotalPages: pages,
		Records:    extraction.ParseRecords(raw, pages),
		RawText:    text,
	}, nil
}

func (a *ExtractorAdapter) extractVision(ctx context.Context, doc domain.Document, data []byte) (domain.ExtractionOutcome, error) {
	raw, err := a.completion.ExtractFromImage(ctx, mimeTypeFor(doc.Name), data)
	if err != nil {
		return domain.ExtractionOutcome{}, fmt.Errorf("vision completion for %s: %w", doc.Name, err)
	}

	// The whole file goes to the model in one shot; the true page count
	// is unknown, so page clamping uses a fixed ceiling.
	return domain.ExtractionOutcome{
		Filename:   doc.Name,
		TotalPages: 1,
		Records:    extraction.ParseRecords(raw, extraction.VisionPageBound),
	}, nil
}

func (a *ExtractorAdapter) readBlob(ctx context.Context, doc domain.Document) ([]byte, error) {
	if doc.StoragePath == "" {
		return nil, fmt.Errorf("document %s has no stored blob", doc.Name)
	}
	reader, err := a.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open blob for %s: %w", doc.Name, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read blob for %s: %w", doc.Name, err)
	}
	return data, nil
}

func mimeTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
