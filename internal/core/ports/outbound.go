package ports

import (
	"context"
	"io"

	"github.com/finsight/invoice-pipeline/internal/core/domain"
)

// JobRepository persists job state. Progress writes are advisory and may
// be applied out of order by a retried stage; terminal writes are not.
type JobRepository interface {
	Create(ctx context.Context, job *domain.Job) error
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Job, error)
	MarkRunning(ctx context.Context, id string, progress int, message string) error
	UpdateProgress(ctx context.Context, id string, progress int, message string) error
	Complete(ctx context.Context, id string, documentsProcessed, totalRecords int, message string) error
	Fail(ctx context.Context, id string, message string) error
}

// DocumentRepository persists uploaded file metadata.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	ListByJob(ctx context.Context, jobID string) ([]domain.Document, error)
}

// ResultRepository persists canonicalized extraction results. BulkInsert
// is atomic as a set: either every row lands or none do.
type ResultRepository interface {
	BulkInsert(ctx context.Context, results []domain.Result) error
	ListByJob(ctx context.Context, jobID string) ([]domain.Result, error)
}

// SynonymRepository manages the user-editable term mapping table.
// Upsert coalesces a duplicate term (case-insensitive) into an update.
type SynonymRepository interface {
	Upsert(ctx context.Context, term, canonical string) (*domain.Synonym, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Synonym, error)
}

// ObjectStorage stores uploaded file blobs. Writes are best-effort from
// the ingest flow's point of view.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue hands queued job ids to the pipeline worker.
type MessageQueue interface {
	PublishJobQueued(ctx context.Context, jobID string) error
	SubscribeJobQueued(ctx context.Context, handler func(context.Context, string) error) error
}

// CompletionService is the external model boundary. Both extraction calls
// return the raw output text; parsing tolerance lives with the caller.
// Implementations must bias toward reproducible output (low temperature),
// since financial figures must not vary materially run-to-run.
type CompletionService interface {
	ExtractFromText(ctx context.Context, docText string, totalPages int) (string, error)
	ExtractFromImage(ctx context.Context, mimeType string, data []byte) (string, error)
	GenerateAnswer(ctx context.Context, prompt string) (string, error)
}

// PDFTextExtractor converts a machine-printed PDF into plain text with a
// page count. Returns domain.ErrNoTextContent when the document has no
// text layer (scanned/image-only).
type PDFTextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, int, error)
}

// DocumentExtractor runs one document through the extraction path chosen
// at job creation. It never fails for model-level issues (unparseable
// output yields an empty record list); it fails for transport errors and,
// on the text path, for documents without a text layer.
type DocumentExtractor interface {
	ExtractDocument(ctx context.Context, doc domain.Document, invoiceType domain.InvoiceType) (domain.ExtractionOutcome, error)
}
