package ports

import (
	"context"

	"github.com/finsight/invoice-pipeline/internal/core/domain"
)

// JobUpload is one file in a job submission.
type JobUpload struct {
	Filename  string
	SizeBytes int64
	Data      []byte
}

// JobCreator is the inbound contract for job submission. CreateJob
// returns as soon as the job is registered and queued; the pipeline runs
// on the worker side.
type JobCreator interface {
	CreateJob(ctx context.Context, uploads []JobUpload, invoiceType domain.InvoiceType) (*domain.Job, error)
}

// JobProcessor is the inbound contract for asynchronous pipeline runs.
type JobProcessor interface {
	RunJob(ctx context.Context, jobID string) error
}

// JobReader is the inbound read model for polling consumers.
type JobReader interface {
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Job, error)
}

// ResultReader serves persisted results for display, export and chat.
type ResultReader interface {
	ListByJob(ctx context.Context, jobID string) ([]domain.Result, error)
}

// ResultAnswerer answers free-form questions over a job's results.
type ResultAnswerer interface {
	Answer(ctx context.Context, jobID, question string) (string, error)
}
