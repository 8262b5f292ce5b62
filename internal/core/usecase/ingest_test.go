package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/finsight/invoice-pipeline/internal/core/domain"
	"github.com/finsight/invoice-pipeline/internal/core/ports"
)

func TestCreateJobSuccess(t *testing.T) {
	jobs := &jobRepoFake{}
	docs := &docRepoFake{}
	storage := &storageFake{}
	queue := &queueFake{}
	uc := NewCreateJobUseCase(jobs, docs, storage, queue, nil)

	job, err := uc.CreateJob(context.Background(), []ports.JobUpload{
		{Filename: "invoice one.pdf", SizeBytes: 5, Data: []byte("%PDF!")},
		{Filename: "invoice-two.pdf", SizeBytes: 4, Data: []byte("%PDF")},
	}, domain.InvoiceRegular)
	if err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}
	if job.ID == "" || job.Status != domain.JobQueued {
		t.Fatalf("unexpected job: %+v", job)
	}
	if len(docs.created) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs.created))
	}
	if docs.created[0].StoragePath == "" {
		t.Fatalf("expected storage path on first document")
	}
	if !strings.Contains(docs.created[0].StoragePath, "invoice_one.pdf") {
		t.Fatalf("expected sanitized storage key, got %s", docs.created[0].StoragePath)
	}
	if len(queue.published) != 1 || queue.published[0] != job.ID {
		t.Fatalf("expected job id published once, got %v", queue.published)
	}
}

func TestCreateJobRejectsEmptyUpload(t *testing.T) {
	uc := NewCreateJobUseCase(&jobRepoFake{}, &docRepoFake{}, &storageFake{}, &queueFake{}, nil)

	_, err := uc.CreateJob(context.Background(), nil, domain.InvoiceRegular)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateJobRejectsUnknownInvoiceType(t *testing.T) {
	uc := NewCreateJobUseCase(&jobRepoFake{}, &docRepoFake{}, &storageFake{}, &queueFake{}, nil)

	_, err := uc.CreateJob(context.Background(), []ports.JobUpload{{Filename: "a.pdf"}}, "typed")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateJobContinuesWhenBlobStoreFails(t *testing.T) {
	jobs := &jobRepoFake{}
	docs := &docRepoFake{}
	storage := &storageFake{saveErr: errors.New("bucket down")}
	queue := &queueFake{}
	uc := NewCreateJobUseCase(jobs, docs, storage, queue, nil)

	job, err := uc.CreateJob(context.Background(), []ports.JobUpload{
		{Filename: "invoice.pdf", SizeBytes: 4, Data: []byte("%PDF")},
	}, domain.InvoiceHandwritten)
	if err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}
	if len(docs.created) != 1 || docs.created[0].StoragePath != "" {
		t.Fatalf("expected document without storage path, got %+v", docs.created)
	}
	if len(queue.published) != 1 || queue.published[0] != job.ID {
		t.Fatalf("expected job still queued, got %v", queue.published)
	}
}

func TestCreateJobQueueErrorSurfaces(t *testing.T) {
	uc := NewCreateJobUseCase(&jobRepoFake{}, &docRepoFake{}, &storageFake{}, &queueFake{err: errors.New("queue down")}, nil)

	_, err := uc.CreateJob(context.Background(), []ports.JobUpload{
		{Filename: "invoice.pdf", SizeBytes: 4, Data: []byte("%PDF")},
	}, domain.InvoiceRegular)
	if err == nil || !strings.Contains(err.Error(), "publish job queued event") {
		t.Fatalf("expected publish error, got %v", err)
	}
}
