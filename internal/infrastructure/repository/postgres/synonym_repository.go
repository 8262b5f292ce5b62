package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finsight/invoice-pipeline/internal/core/domain"
)

type SynonymRepository struct {
	db *sql.DB
}

func NewSynonymRepository(db *sql.DB) *SynonymRepository {
	return &SynonymRepository{db: db}
}

// Upsert relies on the unique index over lower(term): submitting an
// existing term under any casing updates that row in place instead of
// creating a duplicate mapping.
func (r *SynonymRepository) Upsert(ctx context.Context, term, canonical string) (*domain.Synonym, error) {
	row := r.db.QueryRowContext(ctx, `
INSERT INTO synonyms (id, term, canonical, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT ((lower(term))) DO UPDATE
SET term = EXCLUDED.term, canonical = EXCLUDED.canonical
RETURNING id, term, canonical, created_at
`, uuid.NewString(), term, canonical, time.Now().UTC())

	var synonym domain.Synonym
	if err := row.Scan(&synonym.ID, &synonym.Term, &synonym.Canonical, &synonym.CreatedAt); err != nil {
		return nil, fmt.Errorf("upsert synonym: %w", err)
	}
	return &synonym, nil
}

func (r *SynonymRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM synonyms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete synonym: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete synonym rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrSynonymNotFound, "delete synonym", fmt.Errorf("id %s", id))
	}
	return nil
}

func (r *SynonymRepository) List(ctx context.Context) ([]domain.Synonym, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, term, canonical, created_at
FROM synonyms
ORDER BY term ASC
`)
	if err != nil {
		return nil, fmt.Errorf("query synonyms: %w", err)
	}
	defer rows.Close()

	var synonyms []domain.Synonym
	for rows.Next() {
		var synonym domain.Synonym
		if err := rows.Scan(&synonym.ID, &synonym.Term, &synonym.Canonical, &synonym.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan synonym row: %w", err)
		}
		synonyms = append(synonyms, synonym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate synonyms: %w", err)
	}
	return synonyms, nil
}
