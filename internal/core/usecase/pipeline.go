package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finsight/invoice-pipeline/internal/core/domain"
	"github.com/finsight/invoice-pipeline/internal/core/extraction"
	"github.com/finsight/invoice-pipeline/internal/core/ports"
)

// Progress milestones for the job state machine. The per-document span
// between extractionFloor and mappingMark is filled proportionally by the
// batch progress callback.
const (
	initializingMark = 5
	extractionFloor  = 10
	extractionSpan   = 60
	mappingMark      = 75
	savingMark       = 85
	finalizingMark   = 95
	doneMark         = 100
)

type ProcessJobUseCase struct {
	jobs     ports.JobRepository
	docs     ports.DocumentRepository
	results  ports.ResultRepository
	synonyms ports.SynonymRepository
	batch    *BatchRunner
	logger   *slog.Logger

	// Small pause before the terminal write so polling clients observe
	// the finalizing stage.
	finalizeDelay time.Duration
}

func NewProcessJobUseCase(
	jobs ports.JobRepository,
	docs ports.DocumentRepository,
	results ports.ResultRepository,
	synonyms ports.SynonymRepository,
	batch *BatchRunner,
	logger *slog.Logger,
) *ProcessJobUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessJobUseCase{
		jobs:          jobs,
		docs:          docs,
		results:       results,
		synonyms:      synonyms,
		batch:         batch,
		logger:        logger,
		finalizeDelay: 500 * time.Millisecond,
	}
}

// RunJob drives one job from queued to a terminal state. Per-document
// extraction failures are absorbed by the batch runner; failures loading
// the job, its documents, the synonym snapshot, or writing the result set
// flip the job to error. A run that extracts nothing at all still ends in
// done with zero records.
func (uc *ProcessJobUseCase) RunJob(ctx context.Context, jobID string) error {
	job, err := uc.jobs.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", jobID, err)
	}
	if job.Status == domain.JobDone || job.Status == domain.JobError {
		uc.logger.Info("job already terminal, skipping", "job_id", jobID, "status", job.Status)
		return nil
	}

	if err := uc.run(ctx, job); err != nil {
		uc.markFailed(ctx, jobID, err)
		return fmt.Errorf("job %s: %w", jobID, err)
	}
	return nil
}

func (uc *ProcessJobUseCase) run(ctx context.Context, job *domain.Job) error {
	if err := uc.jobs.MarkRunning(ctx, job.ID, initializingMark, "Initializing extraction engine..."); err != nil {
		return fmt.Errorf("mark running: %w", err)
	}

	// Synonym snapshot is taken once per run; edits made while the job
	// runs do not affect this run's canonicalization.
	synonymRows, err := uc.synonyms.List(ctx)
	if err != nil {
		return fmt.Errorf("load synonym snapshot: %w", err)
	}
	snapshot := domain.NewSynonymSet(synonymRows)
	uc.logger.Info("synonym snapshot loaded", "job_id", job.ID, "mappings", len(snapshot))

	documents, err := uc.docs.ListByJob(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("load job documents: %w", err)
	}
	if len(documents) == 0 {
		return fmt.Errorf("job has no documents")
	}

	outcomes := uc.batch.ProcessBatch(ctx, documents, job.InvoiceType, func(current, total int, filename string) {
		progress := extractionFloor + extractionSpan*current/total
		message := fmt.Sprintf("Extracting data from %s (%d/%d)...", filename, current, total)
		if err := uc.jobs.UpdateProgress(ctx, job.ID, progress, message); err != nil {
			uc.logger.Warn("progress update failed", "job_id", job.ID, "error", err)
		}
	})

	if err := uc.jobs.UpdateProgress(ctx, job.ID, mappingMark, "Mapping extracted terms to canonical fields..."); err != nil {
		uc.logger.Warn("progress update failed", "job_id", job.ID, "error", err)
	}

	results := uc.assembleResults(job.ID, documents, outcomes, snapshot)

	if err := uc.jobs.UpdateProgress(ctx, job.ID, savingMark, "Saving extracted data..."); err != nil {
		uc.logger.Warn("progress update failed", "job_id", job.ID, "error", err)
	}

	// The one step treated as fatal rather than per-document-tolerant:
	// a partial result set for a job would be inconsistent.
	if len(results) > 0 {
		if err := uc.results.BulkInsert(ctx, results); err != nil {
			return fmt.Errorf("persist results: %w", err)
		}
	}

	if err := uc.jobs.UpdateProgress(ctx, job.ID, finalizingMark, "Finalizing..."); err != nil {
		uc.logger.Warn("progress update failed", "job_id", job.ID, "error", err)
	}
	if uc.finalizeDelay > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(uc.finalizeDelay):
		}
	}

	summary := fmt.Sprintf("Successfully extracted %d financial terms from %d documents", len(results), len(documents))
	if err := uc.jobs.Complete(ctx, job.ID, len(documents), len(results), summary); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}

	uc.logger.Info("job complete", "job_id", job.ID, "documents", len(documents), "records", len(results))
	return nil
}

// assembleResults canonicalizes every extracted record against the
// job-start synonym snapshot and builds the persistable rows. Documents
// that yielded nothing are skipped with a note; that is not a job error.
func (uc *ProcessJobUseCase) assembleResults(
	jobID string,
	documents []domain.Document,
	outcomes []domain.ExtractionOutcome,
	snapshot domain.SynonymSet,
) []domain.Result {
	now := time.Now().UTC()
	results := make([]domain.Result, 0)

	for i, outcome := range outcomes {
		doc := documents[i]
		if len(outcome.Records) == 0 {
			uc.logger.Info("no records extracted for document", "job_id", jobID, "document", doc.Name)
			continue
		}
		for _, record := range outcome.Records {
			results = append(results, domain.Result{
				ID:           uuid.NewString(),
				JobID:        jobID,
				DocID:        doc.ID,
				DocName:      doc.Name,
				Page:         record.Page,
				OriginalTerm: record.Term,
				Canonical:    extraction.Canonicalize(record.Term, snapshot),
				Value:        record.Value,
				Confidence:   record.Confidence,
				Evidence:     record.Evidence,
				CreatedAt:    now,
			})
		}
	}
	return results
}

// markFailed records the terminal error state. It deliberately survives
// a canceled run context so a timed-out job still lands in error instead
// of running forever from the client's point of view.
func (uc *ProcessJobUseCase) markFailed(ctx context.Context, jobID string, cause error) {
	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	message := "Processing failed: " + cause.Error()
	if err := uc.jobs.Fail(failCtx, jobID, message); err != nil {
		uc.logger.Error("failed to mark job as error", "job_id", jobID, "error", err, "cause", cause)
	}
}
