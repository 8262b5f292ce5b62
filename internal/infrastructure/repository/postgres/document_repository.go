package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/finsight/invoice-pipeline/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, job_id, name, size_bytes, storage_path, status, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7)
`,
		doc.ID, doc.JobID, doc.Name, doc.SizeBytes, doc.StoragePath, string(doc.Status), doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// ListByJob returns documents in upload order so batch progress counts
// match what the user submitted.
func (r *DocumentRepository) ListByJob(ctx context.Context, jobID string) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, job_id, name, size_bytes, storage_path, status, created_at
FROM documents
WHERE job_id = $1
ORDER BY created_at ASC, id ASC
`, jobID)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		var status string
		if err := rows.Scan(&doc.ID, &doc.JobID, &doc.Name, &doc.SizeBytes, &doc.StoragePath, &status, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		doc.Status = domain.DocumentStatus(status)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}
