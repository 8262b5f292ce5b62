package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/finsight/invoice-pipeline/internal/core/domain"
)

// Extractor pulls the text layer out of machine-printed PDFs. Scanned or
// image-only documents surface domain.ErrNoTextContent so the caller can
// suggest the vision path instead of reporting a generic failure.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) ExtractText(_ context.Context, data []byte) (string, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}

	pages := reader.NumPage()
	var b strings.Builder
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			// A single malformed page should not sink the document.
			continue
		}
		b.WriteString(content)
		b.WriteString("\n\n")
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", pages, domain.WrapError(
			domain.ErrNoTextContent, "extract pdf text",
			fmt.Errorf("no text layer found across %d pages", pages),
		)
	}
	return text, pages, nil
}
