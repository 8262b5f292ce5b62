package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/finsight/invoice-pipeline/internal/core/domain"
)

type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(ctx context.Context, job *domain.Job) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO jobs (
	id, status, invoice_type, progress, documents_processed, total_records, message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
		job.ID, string(job.Status), string(job.InvoiceType), job.Progress,
		job.DocumentsProcessed, job.TotalRecords, job.Message, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, status, invoice_type, progress, documents_processed, total_records, message, created_at, updated_at
FROM jobs
WHERE id = $1
`, id)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrJobNotFound, "get job", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}
	return job, nil
}

func (r *JobRepository) ListRecent(ctx context.Context, limit int) ([]domain.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, status, invoice_type, progress, documents_processed, total_records, message, created_at, updated_at
FROM jobs
ORDER BY created_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job row: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

func (r *JobRepository) MarkRunning(ctx context.Context, id string, progress int, message string) error {
	return r.update(ctx, "mark job running", `
UPDATE jobs
SET status = $2, progress = $3, message = $4, updated_at = $5
WHERE id = $1
`, id, string(domain.JobRunning), progress, message, time.Now().UTC())
}

// UpdateProgress only touches running jobs so a late advisory write can
// never resurrect a job that already failed.
func (r *JobRepository) UpdateProgress(ctx context.Context, id string, progress int, message string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE jobs
SET progress = $2, message = $3, updated_at = $4
WHERE id = $1 AND status = $5
`, id, progress, message, time.Now().UTC(), string(domain.JobRunning))
	if err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}
	return nil
}

func (r *JobRepository) Complete(ctx context.Context, id string, documentsProcessed, totalRecords int, message string) error {
	return r.update(ctx, "complete job", `
UPDATE jobs
SET status = $2, progress = 100, documents_processed = $3, total_records = $4, message = $5, updated_at = $6
WHERE id = $1
`, id, string(domain.JobDone), documentsProcessed, totalRecords, message, time.Now().UTC())
}

func (r *JobRepository) Fail(ctx context.Context, id string, message string) error {
	return r.update(ctx, "fail job", `
UPDATE jobs
SET status = $2, message = $3, updated_at = $4
WHERE id = $1
`, id, string(domain.JobError), message, time.Now().UTC())
}

func (r *JobRepository) update(ctx context.Context, operation, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrJobNotFound, operation, fmt.Errorf("no rows updated"))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var job domain.Job
	var status, invoiceType string
	err := row.Scan(
		&job.ID, &status, &invoiceType, &job.Progress,
		&job.DocumentsProcessed, &job.TotalRecords, &job.Message, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	job.InvoiceType = domain.InvoiceType(invoiceType)
	return &job, nil
}
