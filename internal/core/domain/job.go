package domain

import "time"

type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobError   JobStatus = "error"
)

// InvoiceType selects the extraction path at upload time.
type InvoiceType string

const (
	InvoiceRegular     InvoiceType = "regular"     // machine-printed PDFs, text path
	InvoiceHandwritten InvoiceType = "handwritten" // images or handwritten PDFs, vision path
)

func (t InvoiceType) Valid() bool {
	return t == InvoiceRegular || t == InvoiceHandwritten
}

// Job is one upload-to-results processing run. Only the pipeline worker
// mutates a job after creation; status transitions are queued -> running ->
// done, or running -> error. done and error are terminal.
type Job struct {
	ID                 string      `json:"id"`
	Status             JobStatus   `json:"status"`
	InvoiceType        InvoiceType `json:"invoice_type"`
	Progress           int         `json:"progress"`
	DocumentsProcessed int         `json:"documents_processed"`
	TotalRecords       int         `json:"total_records"`
	Message            string      `json:"message"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}
