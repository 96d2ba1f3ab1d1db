package rules

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hazyhaar/filingscan/ingest"
)

// TopTermsLimit caps Analytics.TopTerms.
const TopTermsLimit = 8

var (
	termRe    = regexp.MustCompile(`\b[a-z]{4,}\b`)
	numericRe = regexp.MustCompile(`[-+]?\d[\d,]*(?:\.\d+)?`)
)

// TermCount is a word and how often it occurs.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// Analytics is a descriptive summary of the corpus.
type Analytics struct {
	Documents        int         `json:"documents"`
	Chunks           int         `json:"chunks"`
	Tokens           int         `json:"tokens"`
	TopTerms         []TermCount `json:"top_terms"`
	RiskIndicators   []TermCount `json:"risk_indicators"`
	NumericMentions  int         `json:"numeric_mentions"`
	NumericAggregate float64     `json:"numeric_aggregate"`
}

// Analytics summarizes the corpus. Tokens are runs of four or more ASCII
// letters in the lower-cased corpus. Top terms are ranked by count; equal
// counts keep the order in which the terms first appear. Risk indicators
// are whole-word counts, in rule book order.
func (e *Engine) Analytics(s *ingest.Session) (*Analytics, error) {
	if err := requireDocuments(s); err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}
	text := corpus(s)

	counts := make(map[string]int)
	var order []string
	tokens := termRe.FindAllString(text, -1)
	for _, t := range tokens {
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > TopTermsLimit {
		order = order[:TopTermsLimit]
	}
	top := make([]TermCount, len(order))
	for i, t := range order {
		top[i] = TermCount{Term: t, Count: counts[t]}
	}

	indicators := make([]TermCount, len(e.book.RiskIndicators))
	for i, w := range e.book.RiskIndicators {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)
		indicators[i] = TermCount{Term: w, Count: len(re.FindAllStringIndex(text, -1))}
	}

	mentions, sum := numericTotals(text)

	a := &Analytics{
		Documents:        len(s.Documents),
		Chunks:           s.Chunks.Len(),
		Tokens:           len(tokens),
		TopTerms:         top,
		RiskIndicators:   indicators,
		NumericMentions:  mentions,
		NumericAggregate: sum,
	}
	e.logger.Debug("rules: analytics computed", "documents", a.Documents, "tokens", a.Tokens)
	return a, nil
}

// numericTotals counts parseable numbers and sums them. Thousands
// separators are dropped before parsing.
func numericTotals(text string) (int, float64) {
	n, sum := 0, 0.0
	for _, m := range numericRe.FindAllString(text, -1) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			continue
		}
		n++
		sum += v
	}
	return n, math.Round(sum*100) / 100
}
