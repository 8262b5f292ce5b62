package extraction

import (
	"testing"

	"github.com/finsight/invoice-pipeline/internal/core/domain"
)

func TestCanonicalizeExactMatchCaseInsensitive(t *testing.T) {
	synonyms := domain.SynonymSet{"g.s.t": "GST"}
	if got := Canonicalize("G.S.T", synonyms); got != "GST" {
		t.Fatalf("Canonicalize(G.S.T) = %q, want GST", got)
	}
}

func TestCanonicalizeSubtotalFallback(t *testing.T) {
	synonyms := domain.SynonymSet{"subtotal": "Subtotal Amount"}
	for _, term := range []string{"Sub-Total", "Sub Total", "subtotal amt", "SUBTOTAL"} {
		if got := Canonicalize(term, synonyms); got != "Subtotal Amount" {
			t.Errorf("Canonicalize(%q) = %q, want Subtotal Amount", term, got)
		}
	}
}

func TestCanonicalizeDiscountFallback(t *testing.T) {
	synonyms := domain.SynonymSet{"discount": "Discount"}
	if got := Canonicalize("Total Discount", synonyms); got != "Discount" {
		t.Fatalf("Canonicalize(Total Discount) = %q, want Discount", got)
	}
}

func TestCanonicalizeTaxFallbackSkipsGST(t *testing.T) {
	synonyms := domain.SynonymSet{"tax": "Tax"}
	if got := Canonicalize("Service Tax", synonyms); got != "Tax" {
		t.Fatalf("Canonicalize(Service Tax) = %q, want Tax", got)
	}
	// GST terms must not collapse into the generic tax mapping.
	if got := Canonicalize("GST Tax", synonyms); got != "GST Tax" {
		t.Fatalf("Canonicalize(GST Tax) = %q, want pass-through", got)
	}
}

func TestCanonicalizeFallbackRequiresMappingKey(t *testing.T) {
	// Heuristic target absent from the synonym set: term passes through.
	if got := Canonicalize("Sub-Total", domain.SynonymSet{}); got != "Sub-Total" {
		t.Fatalf("Canonicalize(Sub-Total) = %q, want pass-through", got)
	}
}

func TestCanonicalizePassThrough(t *testing.T) {
	if got := Canonicalize("Freight", domain.SynonymSet{}); got != "Freight" {
		t.Fatalf("Canonicalize(Freight) = %q, want Freight", got)
	}
}
