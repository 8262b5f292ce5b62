package extraction

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/finsight/invoice-pipeline/internal/core/domain"
)

const (
	defaultConfidence = 90
	maxEvidenceLen    = 200

	// VisionPageBound caps the page field for single-shot vision
	// extraction, where the true page count is unknown.
	VisionPageBound = 10
)

var arrayPattern = regexp.MustCompile(`\[[\s\S]*\]`)

// rawRecord tolerates the model emitting numbers where strings are
// expected and vice versa.
type rawRecord struct {
	Page       any `json:"page"`
	Term       any `json:"term"`
	Value      any `json:"value"`
	Evidence   any `json:"evidence"`
	Confidence any `json:"confidence"`
}

// parseStrategy attempts to recover a record list from raw model output.
// Strategies are tried in order; the first hit wins.
type parseStrategy func(text string) ([]rawRecord, bool)

var strategies = []parseStrategy{
	parseTopLevelArray,
	parseWrappedObject,
	parseEmbeddedArray,
}

// ParseRecords recovers extraction records from an arbitrary model output
// blob. The model's structured-output mode is not reliable across
// documents, so the parser is maximally tolerant: output that resists
// every strategy yields an empty slice, never an error. pageBound clamps
// the per-record page field (total pages for the text path,
// VisionPageBound for the vision path).
func ParseRecords(text string, pageBound int) []domain.ExtractedRecord {
	var raw []rawRecord
	for _, strategy := range strategies {
		if records, ok := strategy(text); ok {
			raw = records
			break
		}
	}
	if pageBound < 1 {
		pageBound = 1
	}

	records := make([]domain.ExtractedRecord, 0, len(raw))
	for _, r := range raw {
		term := strings.TrimSpace(asString(r.Term))
		value := SanitizeValue(asString(r.Value))
		if term == "" || value == "" {
			continue
		}
		records = append(records, domain.ExtractedRecord{
			Page:       clamp(asInt(r.Page, 1), 1, pageBound),
			Term:       term,
			Value:      value,
			Evidence:   truncate(strings.TrimSpace(asString(r.Evidence)), maxEvidenceLen),
			Confidence: clamp(asInt(r.Confidence, defaultConfidence), 0, 100),
		})
	}
	return records
}

func parseTopLevelArray(text string) ([]rawRecord, bool) {
	var records []rawRecord
	if err := json.Unmarshal([]byte(text), &records); err != nil {
		return nil, false
	}
	return records, true
}

// parseWrappedObject handles the model wrapping the array in an object:
// a "results" key is authoritative, any other array-valued key is
// accepted, and a bare single record is wrapped into a one-element list.
func parseWrappedObject(text string) ([]rawRecord, bool) {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &wrapper); err != nil {
		return nil, false
	}

	if raw, ok := wrapper["results"]; ok {
		if records, ok := decodeArray(raw); ok {
			return records, true
		}
	}
	for key, raw := range wrapper {
		if key == "results" {
			continue
		}
		if records, ok := decodeArray(raw); ok {
			return records, true
		}
	}

	var single rawRecord
	if err := json.Unmarshal([]byte(text), &single); err == nil {
		if asString(single.Term) != "" && asString(single.Value) != "" {
			return []rawRecord{single}, true
		}
	}
	return nil, false
}

func parseEmbeddedArray(text string) ([]rawRecord, bool) {
	match := arrayPattern.FindString(text)
	if match == "" {
		return nil, false
	}
	return parseTopLevelArray(match)
}

func decodeArray(raw json.RawMessage) ([]rawRecord, bool) {
	var records []rawRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, false
	}
	return records, true
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func asInt(v any, fallback int) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
	}
	return fallback
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// truncate caps s at max runes. Cutting at a byte offset could split a
// multibyte rune and persist invalid UTF-8.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	seen := 0
	for i := range s {
		if seen == max {
			return s[:i]
		}
		seen++
	}
	return s
}
