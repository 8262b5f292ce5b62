package usecase

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/finsight/invoice-pipeline/internal/core/domain"
)

// progressWrite records one MarkRunning/UpdateProgress call.
type progressWrite struct {
	Progress int
	Message  string
}

type jobRepoFake struct {
	created    *domain.Job
	createErr  error
	getErr     error
	runningErr error

	progressCalls []progressWrite
	completed     bool
	docsProcessed int
	totalRecords  int
	finalMessage  string
	failed        bool
	failMessage   string
	completeErr   error
}

func (f *jobRepoFake) Create(_ context.Context, job *domain.Job) error {
	if f.createErr != nil {
		return f.createErr
	}
	copyJob := *job
	f.created = &copyJob
	return nil
}

func (f *jobRepoFake) GetByID(_ context.Context, id string) (*domain.Job, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.created != nil && f.created.ID == id {
		copyJob := *f.created
		return &copyJob, nil
	}
	return &domain.Job{ID: id, Status: domain.JobQueued, InvoiceType: domain.InvoiceRegular}, nil
}

func (f *jobRepoFake) ListRecent(context.Context, int) ([]domain.Job, error) {
	return nil, errors.New("not implemented")
}

func (f *jobRepoFake) MarkRunning(_ context.Context, _ string, progress int, message string) error {
	if f.runningErr != nil {
		return f.runningErr
	}
	f.progressCalls = append(f.progressCalls, progressWrite{Progress: progress, Message: message})
	return nil
}

func (f *jobRepoFake) UpdateProgress(_ context.Context, _ string, progress int, message string) error {
	f.progressCalls = append(f.progressCalls, progressWrite{Progress: progress, Message: message})
	return nil
}

func (f *jobRepoFake) Complete(_ context.Context, _ string, documentsProcessed, totalRecords int, message string) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	f.completed = true
	f.docsProcessed = documentsProcessed
	f.totalRecords = totalRecords
	f.finalMessage = message
	return nil
}

func (f *jobRepoFake) Fail(_ context.Context, _ string, message string) error {
	f.failed = true
	f.failMessage = message
	return nil
}

type docRepoFake struct {
	created   []domain.Document
	createErr error
	listErr   error
}

func (f *docRepoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, *doc)
	return nil
}

func (f *docRepoFake) ListByJob(_ context.Context, jobID string) ([]domain.Document, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Document, 0, len(f.created))
	for _, doc := range f.created {
		if doc.JobID == jobID {
			out = append(out, doc)
		}
	}
	return out, nil
}

type resultRepoFake struct {
	inserted  []domain.Result
	insertErr error
	listErr   error
}

func (f *resultRepoFake) BulkInsert(_ context.Context, results []domain.Result) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, results...)
	return nil
}

func (f *resultRepoFake) ListByJob(_ context.Context, jobID string) ([]domain.Result, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Result, 0, len(f.inserted))
	for _, r := range f.inserted {
		if r.JobID == jobID {
			out = append(out, r)
		}
	}
	return out, nil
}

type synonymRepoFake struct {
	rows    []domain.Synonym
	listErr error
}

func (f *synonymRepoFake) Upsert(_ context.Context, term, canonical string) (*domain.Synonym, error) {
	for i := range f.rows {
		if strings.EqualFold(f.rows[i].Term, term) {
			f.rows[i].Canonical = canonical
			copyRow := f.rows[i]
			return &copyRow, nil
		}
	}
	row := domain.Synonym{ID: "syn-" + term, Term: term, Canonical: canonical}
	f.rows = append(f.rows, row)
	return &row, nil
}

func (f *synonymRepoFake) Delete(_ context.Context, id string) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return errors.New("synonym not found")
}

func (f *synonymRepoFake) List(context.Context) ([]domain.Synonym, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.Synonym(nil), f.rows...), nil
}

type storageFake struct {
	saved   map[string]string
	saveErr error
	openErr error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if f.saved == nil {
		f.saved = map[string]string{}
	}
	f.saved[key] = string(raw)
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	body, ok := f.saved[key]
	if !ok {
		return nil, errors.New("blob not found: " + key)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishJobQueued(_ context.Context, jobID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, jobID)
	return nil
}

func (f *queueFake) SubscribeJobQueued(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

// extractorFake returns canned outcomes keyed by document name and can be
// told to fail specific documents.
type extractorFake struct {
	outcomes map[string]domain.ExtractionOutcome
	failures map[string]error
	calls    []string
}

func (f *extractorFake) ExtractDocument(_ context.Context, doc domain.Document, _ domain.InvoiceType) (domain.ExtractionOutcome, error) {
	f.calls = append(f.calls, doc.Name)
	if err, ok := f.failures[doc.Name]; ok {
		return domain.ExtractionOutcome{}, err
	}
	if outcome, ok := f.outcomes[doc.Name]; ok {
		return outcome, nil
	}
	return domain.ExtractionOutcome{Filename: doc.Name, TotalPages: 1, Records: []domain.ExtractedRecord{}}, nil
}

type completionFake struct {
	textResponse   string
	visionResponse string
	answer         string
	err            error

	textCalls   int
	visionCalls int
	lastPrompt  string
}

func (f *completionFake) ExtractFromText(_ context.Context, _ string, _ int) (string, error) {
	f.textCalls++
	if f.err != nil {
		return "", f.err
	}
	return f.textResponse, nil
}

func (f *completionFake) ExtractFromImage(_ context.Context, _ string, _ []byte) (string, error) {
	f.visionCalls++
	if f.err != nil {
		return "", f.err
	}
	return f.visionResponse, nil
}

func (f *completionFake) GenerateAnswer(_ context.Context, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.lastPrompt = prompt
	return f.answer, nil
}

type pdfFake struct {
	text  string
	pages int
	err   error
}

func (f *pdfFake) ExtractText(context.Context, []byte) (string, int, error) {
	if f.err != nil {
		return "", 0, f.err
	}
	return f.text, f.pages, nil
}
