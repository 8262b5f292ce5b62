package extraction

import (
	"strings"

	"github.com/finsight/invoice-pipeline/internal/core/domain"
)

// Canonicalize maps a raw extracted term to its canonical field name.
// An exact case-insensitive synonym match is authoritative. Otherwise a
// short list of heuristics covers common financial terms users rarely
// pre-register; each heuristic only fires when the synonym set actually
// carries the target key. Unmatched terms pass through unchanged.
func Canonicalize(term string, synonyms domain.SynonymSet) string {
	if canonical, ok := synonyms.Lookup(term); ok {
		return canonical
	}

	lower := strings.ToLower(strings.TrimSpace(term))
	switch {
	case strings.Contains(lower, "subtotal") || lower == "sub total" || lower == "sub-total":
		if canonical, ok := synonyms.Lookup("subtotal"); ok {
			return canonical
		}
	case strings.Contains(lower, "discount"):
		if canonical, ok := synonyms.Lookup("discount"); ok {
			return canonical
		}
	case strings.Contains(lower, "tax") && !strings.Contains(lower, "gst"):
		if canonical, ok := synonyms.Lookup("tax"); ok {
			return canonical
		}
	}
	return term
}
