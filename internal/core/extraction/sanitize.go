package extraction

import (
	"regexp"
	"strings"
)

var (
	numericPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	currencyMarks  = strings.NewReplacer("$", "", "Rs.", "", "%", "", ",", "")
)

// SanitizeValue normalizes a raw value string as emitted by the extraction
// model into a plain numeric string. Currency symbols, thousands separators
// and percent signs are stripped; a leading minus sign survives stripping
// because discounts must keep their sign. Digits are preserved verbatim,
// without rounding or re-padding decimal places.
//
// Returns an empty string when nothing numeric remains; callers drop such
// records.
func SanitizeValue(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	negative := strings.HasPrefix(value, "-")

	value = strings.TrimSpace(currencyMarks.Replace(value))
	value = strings.ReplaceAll(value, " ", "")

	value = keepRunes(value, func(r rune) bool {
		return r >= '0' && r <= '9' || r == '.' || r == '-'
	})
	if negative && !strings.HasPrefix(value, "-") {
		value = "-" + value
	}

	if numericPattern.MatchString(value) {
		return value
	}

	// Last resort: digits and decimal point only, sign re-applied.
	digits := keepRunes(value, func(r rune) bool {
		return r >= '0' && r <= '9' || r == '.'
	})
	if digits == "" {
		return ""
	}
	if negative {
		return "-" + digits
	}
	return digits
}

func keepRunes(s string, keep func(rune) bool) string {
	return strings.Map(func(r rune) rune {
		if keep(r) {
			return r
		}
		return -1
	}, s)
}
