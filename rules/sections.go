package rules

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Anchors are the statement headings Sections looks for.
var Anchors = []string{
	"balance sheet",
	"statement of profit and loss",
	"cash flow",
	"notes",
	"related party",
	"auditor",
	"esg",
	"brsr",
}

// EvidenceLimit caps Evidence.
const EvidenceLimit = 5

// Section is a statement heading found in a document.
type Section struct {
	Title  string `json:"title"`
	Offset int    `json:"offset"`
}

// Sections returns the anchors present in text, in Anchors order, with the
// byte offset in text of their first case-insensitive occurrence.
func Sections(text string) []Section {
	var out []Section
	for _, a := range Anchors {
		if i := indexFold(text, a); i >= 0 {
			out = append(out, Section{Title: a, Offset: i})
		}
	}
	return out
}

// indexFold is strings.Index with rune-wise case folding. Offsets refer to s
// itself, which a search over strings.ToLower(s) cannot guarantee.
func indexFold(s, substr string) int {
	for i := range s {
		if hasPrefixFold(s[i:], substr) {
			return i
		}
	}
	return -1
}

func hasPrefixFold(s, prefix string) bool {
	for _, pr := range prefix {
		r, size := utf8.DecodeRuneInString(s)
		if size == 0 || unicode.ToLower(r) != unicode.ToLower(pr) {
			return false
		}
		s = s[size:]
	}
	return true
}

// Evidence returns the first EvidenceLimit non-blank lines of text, trimmed.
func Evidence(text string) []string {
	var out []string
	for line := range strings.Lines(text) {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
			if len(out) == EvidenceLimit {
				break
			}
		}
	}
	return out
}
