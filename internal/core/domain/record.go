package domain

import "time"

// ExtractedRecord is one (term, value) pair found on one page of one
// document, as recovered from model output. Value has already been run
// through the sanitizer; a record with an empty term or value does not
// survive parsing.
type ExtractedRecord struct {
	Page       int    `json:"page"`
	Term       string `json:"term"`
	Value      string `json:"value"`
	Evidence   string `json:"evidence"`
	Confidence int    `json:"confidence"`
}

// ExtractionOutcome is the per-document output of the extractor adapter.
// A failed document inside a batch is represented by zero pages and an
// empty Records slice, never by a missing entry.
type ExtractionOutcome struct {
	Filename   string
	TotalPages int
	Records    []ExtractedRecord
	RawText    string
}

// Result is the persisted, canonicalized form of an ExtractedRecord.
// Created once in bulk after all documents in a job finish extraction;
// never mutated.
type Result struct {
	ID           string    `json:"id"`
	JobID        string    `json:"job_id"`
	DocID        string    `json:"doc_id"`
	DocName      string    `json:"doc_name"`
	Page         int       `json:"page"`
	OriginalTerm string    `json:"original_term"`
	Canonical    string    `json:"canonical"`
	Value        string    `json:"value"`
	Confidence   int       `json:"confidence"`
	Evidence     string    `json:"evidence"`
	CreatedAt    time.Time `json:"created_at"`
}
