package ocr

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	hyphenatedPattern = regexp.MustCompile(`\d{4}-\d{4}-\d{4}`)
	digitRunPattern   = regexp.MustCompile(`\d{12}`)
)

// ExtractTrackingNumber pulls a tracking-number candidate out of raw
// recognized text. It first looks for the canonical hyphenated form; failing
// that it strips whitespace and reformats any 12-digit run, because the
// recognizer often loses hyphens or breaks the number across lines. Returns
// false when neither tier matches.
func ExtractTrackingNumber(text string) (string, bool) {
	if match := hyphenatedPattern.FindString(text); match != "" {
		return match, true
	}

	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)

	if run := digitRunPattern.FindString(stripped); run != "" {
		return run[0:4] + "-" + run[4:8] + "-" + run[8:12], true
	}
	return "", false
}

// IsCanonicalTrackingNumber reports whether the value already has the
// 4-4-4 digit shape.
func IsCanonicalTrackingNumber(value string) bool {
	return len(value) == 14 && hyphenatedPattern.FindString(value) == value
}
