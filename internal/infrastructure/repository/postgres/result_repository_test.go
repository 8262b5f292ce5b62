package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/finsight/invoice-pipeline/internal/core/domain"
)

func newResultRepoWithMock(t *testing.T) (*ResultRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &ResultRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestBulkInsertWritesAllRowsInOneTransaction(t *testing.T) {
	repo, mock, done := newResultRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	results := []domain.Result{
		{ID: "r1", JobID: "job-1", DocID: "d1", DocName: "a.pdf", Page: 1, OriginalTerm: "Sub Total", Canonical: "Subtotal", Value: "100.00", Confidence: 90, CreatedAt: now},
		{ID: "r2", JobID: "job-1", DocID: "d1", DocName: "a.pdf", Page: 2, OriginalTerm: "GST", Canonical: "GST", Value: "10.00", Confidence: 95, CreatedAt: now},
	}

	mock.ExpectBegin()
	for _, r := range results {
		mock.ExpectExec("INSERT INTO results").
			WithArgs(r.ID, r.JobID, r.DocID, r.DocName, r.Page, r.OriginalTerm, r.Canonical, r.Value, r.Confidence, r.Evidence, r.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	if err := repo.BulkInsert(context.Background(), results); err != nil {
		t.Fatalf("BulkInsert() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestBulkInsertRollsBackOnFailure(t *testing.T) {
	repo, mock, done := newResultRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	results := []domain.Result{
		{ID: "r1", JobID: "job-1", DocID: "d1", DocName: "a.pdf", Page: 1, OriginalTerm: "Total", Canonical: "Total", Value: "100.00", Confidence: 90, CreatedAt: now},
	}

	errInsert := errors.New("disk full")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO results").WillReturnError(errInsert)
	mock.ExpectRollback()

	err := repo.BulkInsert(context.Background(), results)
	if !errors.Is(err, errInsert) {
		t.Fatalf("expected insert error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestBulkInsertNoopOnEmptySet(t *testing.T) {
	repo, mock, done := newResultRepoWithMock(t)
	defer done()

	if err := repo.BulkInsert(context.Background(), nil); err != nil {
		t.Fatalf("BulkInsert() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
