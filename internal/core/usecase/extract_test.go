package usecase

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/finsight/invoice-pipeline/internal/core/domain"
)

func storedDoc(t *testing.T, storage *storageFake, name, key string) domain.Document {
	t.Helper()
	if err := storage.Save(context.Background(), key, bytes.NewReader([]byte("%PDF"))); err != nil {
		t.Fatalf("seed storage: %v", err)
	}
	return domain.Document{ID: "doc-1", JobID: "job-1", Name: name, StoragePath: key}
}

func TestExtractDocumentTextPath(t *testing.T) {
	storage := &storageFake{}
	doc := storedDoc(t, storage, "invoice.pdf", "job-1/doc-1_invoice.pdf")
	completion := &completionFake{textResponse: `[{"term":"GST","value":"Rs. 2,340.00","page":7,"confidence":98,"evidence":"GST (18%)"}]`}
	adapter := NewExtractorAdapter(storage, &pdfFake{text: "GST (18%): Rs. 2,340.00", pages: 3}, completion)

	outcome, err := adapter.ExtractDocument(context.Background(), doc, domain.InvoiceRegular)
	if err != nil {
		t.Fatalf("ExtractDocument() error = %v", err)
	}
	if completion.textCalls != 1 || completion.visionCalls != 0 {
		t.Fatalf("expected text path, got text=%d vision=%d", completion.textCalls, completion.visionCalls)
	}
	if outcome.TotalPages != 3 || outcome.RawText == "" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(outcome.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(outcome.Records))
	}
	r := outcome.Records[0]
	if r.Value != "2340.00" {
		t.Fatalf("expected sanitized value, got %q", r.Value)
	}
	if r.Page != 3 {
		t.Fatalf("expected page clamped to document length, got %d", r.Page)
	}
}

func TestExtractDocumentVisionPath(t *testing.T) {
	storage := &storageFake{}
	doc := storedDoc(t, storage, "scan.png", "job-1/doc-1_scan.png")
	completion := &completionFake{visionResponse: `{"results":[{"term":"Total","value":"$4,725.00","page":1,"confidence":98}]}`}
	adapter := NewExtractorAdapter(storage, &pdfFake{err: errors.New("must not be called")}, completion)

	outcome, err := adapter.ExtractDocument(context.Background(), doc, domain.InvoiceHandwritten)
	if err != nil {
		t.Fatalf("ExtractDocument() error = %v", err)
	}
	if completion.visionCalls != 1 || completion.textCalls != 0 {
		t.Fatalf("expected vision path, got text=%d vision=%d", completion.textCalls, completion.visionCalls)
	}
	if len(outcome.Records) != 1 || outcome.Records[0].Value != "4725.00" {
		t.Fatalf("unexpected records: %+v", outcome.Records)
	}
}

func TestExtractDocumentNoTextLayer(t *testing.T) {
	storage := &storageFake{}
	doc := storedDoc(t, storage, "scanned.pdf", "job-1/doc-1_scanned.pdf")
	adapter := NewExtractorAdapter(storage, &pdfFake{text: "   ", pages: 2}, &completionFake{})

	_, err := adapter.ExtractDocument(context.Background(), doc, domain.InvoiceRegular)
	if !domain.IsKind(err, domain.ErrNoTextContent) {
		t.Fatalf("expected ErrNoTextContent, got %v", err)
	}
}

func TestExtractDocumentUnparseableOutputIsNotAnError(t *testing.T) {
	storage := &storageFake{}
	doc := storedDoc(t, storage, "invoice.pdf", "job-1/doc-1_invoice.pdf")
	completion := &completionFake{textResponse: "I could not find any structured data."}
	adapter := NewExtractorAdapter(storage, &pdfFake{text: "some text", pages: 1}, completion)

	outcome, err := adapter.ExtractDocument(context.Background(), doc, domain.InvoiceRegular)
	if err != nil {
		t.Fatalf("ExtractDocument() error = %v", err)
	}
	if len(outcome.Records) != 0 {
		t.Fatalf("expected zero records, got %+v", outcome.Records)
	}
}

func TestExtractDocumentTransportErrorSurfaces(t *testing.T) {
	storage := &storageFake{}
	doc := storedDoc(t, storage, "invoice.pdf", "job-1/doc-1_invoice.pdf")
	completion := &completionFake{err: errors.New("429 too many requests")}
	adapter := NewExtractorAdapter(storage, &pdfFake{text: "text", pages: 1}, completion)

	if _, err := adapter.ExtractDocument(context.Background(), doc, domain.InvoiceRegular); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestExtractDocumentMissingBlob(t *testing.T) {
	adapter := NewExtractorAdapter(&storageFake{}, &pdfFake{}, &completionFake{})
	doc := domain.Document{ID: "doc-1", Name: "lost.pdf"}

	if _, err := adapter.ExtractDocument(context.Background(), doc, domain.InvoiceRegular); err == nil {
		t.Fatalf("expected error for document without stored blob")
	}
}
