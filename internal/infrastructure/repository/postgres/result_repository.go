package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/finsight/invoice-pipeline/internal/core/domain"
)

type ResultRepository struct {
	db *sql.DB
}

func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// BulkInsert writes all rows in one transaction. A partial result set
// would silently misreport a job's extraction, so either every row lands
// or the job fails.
func (r *ResultRepository) BulkInsert(ctx context.Context, results []domain.Result) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin results tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const query = `
INSERT INTO results (
	id, job_id, doc_id, doc_name, page, original_term, canonical, value, confidence, evidence, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`
	for _, result := range results {
		if _, err := tx.ExecContext(ctx, query,
			result.ID, result.JobID, result.DocID, result.DocName, result.Page,
			result.OriginalTerm, result.Canonical, result.Value, result.Confidence,
			result.Evidence, result.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert result %s: %w", result.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit results tx: %w", err)
	}
	return nil
}

func (r *ResultRepository) ListByJob(ctx context.Context, jobID string) ([]domain.Result, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, job_id, doc_id, doc_name, page, original_term, canonical, value, confidence, evidence, created_at
FROM results
WHERE job_id = $1
ORDER BY doc_name ASC, page ASC, created_at ASC
`, jobID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []domain.Result
	for rows.Next() {
		var result domain.Result
		if err := rows.Scan(
			&result.ID, &result.JobID, &result.DocID, &result.DocName, &result.Page,
			&result.OriginalTerm, &result.Canonical, &result.Value, &result.Confidence,
			&result.Evidence, &result.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}
