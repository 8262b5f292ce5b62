package domain

import (
	"strings"
	"time"
)

// Synonym is a user-managed mapping from a raw extracted term to its
// canonical field name. Terms are unique under case-insensitive
// comparison; lookups are case-insensitive.
type Synonym struct {
	ID        string    `json:"id"`
	Term      string    `json:"term"`
	Canonical string    `json:"canonical"`
	CreatedAt time.Time `json:"created_at"`
}

// SynonymSet is an immutable lookup snapshot keyed by lowercased term.
// The pipeline loads one snapshot per job run; synonym edits made while
// a job is running do not affect that run.
type SynonymSet map[string]string

func NewSynonymSet(synonyms []Synonym) SynonymSet {
	set := make(SynonymSet, len(synonyms))
	for _, s := range synonyms {
		set[strings.ToLower(strings.TrimSpace(s.Term))] = s.Canonical
	}
	return set
}

func (s SynonymSet) Lookup(term string) (string, bool) {
	canonical, ok := s[strings.ToLower(strings.TrimSpace(term))]
	return canonical, ok
}
