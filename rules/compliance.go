package rules

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/filingscan/ingest"
)

// Status is the tri-state outcome of one rule.
type Status string

const (
	StatusCompliant    Status = "Compliant"
	StatusPartial      Status = "Partial"
	StatusNonCompliant Status = "Non-Compliant"
)

// Ratio thresholds. Both are exclusive: a ratio must exceed them.
const (
	CompliantAbove = 0.65
	PartialAbove   = 0.30
)

// Classify maps a match ratio to a Status.
func Classify(ratio float64) Status {
	switch {
	case ratio > CompliantAbove:
		return StatusCompliant
	case ratio > PartialAbove:
		return StatusPartial
	default:
		return StatusNonCompliant
	}
}

// Finding is the evaluated status of one rule against the corpus.
type Finding struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Severity    string   `json:"severity,omitempty"`
	Keywords    []string `json:"keywords"`
	Matches     int      `json:"matches"`
	Ratio       float64  `json:"ratio"`
	Status      Status   `json:"status"`
	Explanation string   `json:"explanation"`
}

// Compliance evaluates every rule in the book. A document matches a rule
// when its lower-cased text contains at least one of the rule's keywords.
// The ratio is taken over all documents in the session, failed ones
// included. The returned slice is never nil on success.
func (e *Engine) Compliance(s *ingest.Session) ([]Finding, error) {
	if err := requireDocuments(s); err != nil {
		return nil, fmt.Errorf("compliance: %w", err)
	}

	texts := make([]string, len(s.Documents))
	for i, d := range s.Documents {
		texts[i] = strings.ToLower(d.Text)
	}

	findings := make([]Finding, 0, len(e.book.Rules))
	unresolved := 0
	for _, r := range e.book.Rules {
		matches := 0
		for _, t := range texts {
			if containsAny(t, r.Keywords) {
				matches++
			}
		}
		ratio := float64(matches) / float64(len(texts))
		status := Classify(ratio)
		if status != StatusCompliant {
			unresolved++
		}
		findings = append(findings, Finding{
			ID:          r.ID,
			Label:       r.Label,
			Severity:    r.Severity,
			Keywords:    r.Keywords,
			Matches:     matches,
			Ratio:       ratio,
			Status:      status,
			Explanation: explain(r, status, matches, len(texts)),
		})
	}

	e.logger.Debug("rules: compliance evaluated",
		"documents", len(texts), "rules", len(findings), "unresolved", unresolved)
	return findings, nil
}

// Unresolved counts findings that are not Compliant.
func Unresolved(findings []Finding) int {
	n := 0
	for _, f := range findings {
		if f.Status != StatusCompliant {
			n++
		}
	}
	return n
}

func explain(r Rule, status Status, matches, total int) string {
	if status == StatusCompliant {
		return fmt.Sprintf("Evidence found in %d of %d documents.", matches, total)
	}
	return fmt.Sprintf("Found in %d of %d documents. Add or review disclosures for %s (look for: %s).",
		matches, total, r.Label, strings.Join(r.Keywords, ", "))
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
