package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finsight/invoice-pipeline/internal/core/domain"
	"github.com/finsight/invoice-pipeline/internal/core/ports"
)

type CreateJobUseCase struct {
	jobs    ports.JobRepository
	docs    ports.DocumentRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
	logger  *slog.Logger
}

func NewCreateJobUseCase(
	jobs ports.JobRepository,
	docs ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	logger *slog.Logger,
) *CreateJobUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreateJobUseCase{
		jobs:    jobs,
		docs:    docs,
		storage: storage,
		queue:   queue,
		logger:  logger,
	}
}

// CreateJob registers a job with its documents and queues it for the
// pipeline worker. Blob storage is best-effort: a failed write leaves the
// document with an empty storage path and ingestion continues. The queue
// publish is not best-effort; a job that can never run is an ingest error.
func (uc *CreateJobUseCase) CreateJob(
	ctx context.Context,
	uploads []ports.JobUpload,
	invoiceType domain.InvoiceType,
) (*domain.Job, error) {
	if len(uploads) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create job", fmt.Errorf("no files provided"))
	}
	if !invoiceType.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create job", fmt.Errorf("unknown invoice type %q", invoiceType))
	}

	now := time.Now().UTC()
	job := &domain.Job{
		ID:          uuid.NewString(),
		Status:      domain.JobQueued,
		InvoiceType: invoiceType,
		Progress:    0,
		Message:     fmt.Sprintf("Queued %d documents", len(uploads)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	for _, upload := range uploads {
		doc := &domain.Document{
			ID:        uuid.NewString(),
			JobID:     job.ID,
			Name:      upload.Filename,
			SizeBytes: upload.SizeBytes,
			Status:    domain.StatusUploaded,
			CreatedAt: time.Now().UTC(),
		}

		storageKey := fmt.Sprintf("%s/%s_%s", job.ID, doc.ID, sanitizeFilename(upload.Filename))
		if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(upload.Data)); err != nil {
			uc.logger.Warn("blob store failed, continuing without storage path",
				"job_id", job.ID, "document", upload.Filename, "error", err)
		} else {
			doc.StoragePath = storageKey
		}

		if err := uc.docs.Create(ctx, doc); err != nil {
			return nil, fmt.Errorf("create document %s: %w", upload.Filename, err)
		}
	}

	if err := uc.queue.PublishJobQueued(ctx, job.ID); err != nil {
		return nil, fmt.Errorf("publish job queued event: %w", err)
	}

	uc.logger.Info("job queued", "job_id", job.ID, "documents", len(uploads), "invoice_type", invoiceType)
	return job, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
