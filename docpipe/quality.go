package docpipe

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// EstimateQuality scores extracted text from 0 to 100 by comparing
// alphanumeric runes against noise runes. Noise is anything that is not a
// letter, digit, whitespace or one of ". , ; : % - ( )". Blank text scores 0.
//
// score = round(100 * A / (A + N + 1))
func EstimateQuality(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	alnum, noise := 0, 0
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			alnum++
		case unicode.IsSpace(r) || isAllowedPunct(r):
		default:
			noise++
		}
	}
	score := int(math.Round(100 * float64(alnum) / float64(alnum+noise+1)))
	return max(0, min(100, score))
}

func isAllowedPunct(r rune) bool {
	switch r {
	case '.', ',', ';', ':', '%', '-', '(', ')':
		return true
	}
	return false
}

// numericCellRe matches thousands-separated or decimal figures (1,234,567 / 12.50).
var numericCellRe = regexp.MustCompile(`\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+\.\d+`)

// DetectTableSignals counts lines that look like table rows: three or more
// commas, a pipe, or a formatted figure.
func DetectTableSignals(text string) int {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.Count(line, ",") >= 3 || strings.Contains(line, "|") || numericCellRe.MatchString(line) {
			count++
		}
	}
	return count
}
