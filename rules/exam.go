package rules

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/filingscan/ingest"
	"github.com/hazyhaar/filingscan/intel"
)

// Recommendation is the exam's binary outcome.
type Recommendation string

const (
	RecommendEscalate Recommendation = "Escalate to forensic review"
	RecommendMonitor  Recommendation = "Continue standard monitoring"
)

// Exam thresholds. Both are exclusive.
const (
	UnresolvedAbove = 2
	HighRiskAbove   = 1

	// HighRiskMinScore is the minimum intel risk score counted as high risk.
	HighRiskMinScore = 2
	// HighRiskLimit caps Assessment.HighRiskNews.
	HighRiskLimit = 5
)

// Recommend is the exam decision table.
func Recommend(unresolved, highRisk int) Recommendation {
	if unresolved > UnresolvedAbove || highRisk > HighRiskAbove {
		return RecommendEscalate
	}
	return RecommendMonitor
}

// Assessment is the preliminary risk triage.
type Assessment struct {
	UnresolvedCompliance int            `json:"unresolved_compliance"`
	WeakControls         []string       `json:"weak_controls"`
	HighRiskNews         []intel.Item   `json:"high_risk_news"`
	Recommendation       Recommendation `json:"recommendation"`
	Escalate             bool           `json:"escalate"`
}

// Exam combines compliance findings, weak-control phrases found in the
// corpus and high-risk intelligence items into a recommendation.
//
// findings and items must come from a prior Compliance run and intel
// refresh; nil means "not computed" and yields ErrNotReady. Empty non-nil
// slices are valid. items are expected in their ranked order.
func (e *Engine) Exam(s *ingest.Session, findings []Finding, items []intel.Item) (*Assessment, error) {
	if err := requireDocuments(s); err != nil {
		return nil, fmt.Errorf("exam: %w", err)
	}
	if findings == nil {
		return nil, fmt.Errorf("exam: %w", notReady("compliance not evaluated"))
	}
	if items == nil {
		return nil, fmt.Errorf("exam: %w", notReady("intelligence not refreshed"))
	}

	text := corpus(s)
	weak := []string{}
	for _, p := range e.book.WeakControls {
		if strings.Contains(text, p) {
			weak = append(weak, p)
		}
	}

	news := intel.HighRisk(items, HighRiskMinScore, HighRiskLimit)
	if news == nil {
		news = []intel.Item{}
	}
	unresolved := Unresolved(findings)
	rec := Recommend(unresolved, len(news))

	e.logger.Debug("rules: exam assessed",
		"unresolved", unresolved, "high_risk", len(news), "weak_controls", len(weak),
		"recommendation", string(rec))

	return &Assessment{
		UnresolvedCompliance: unresolved,
		WeakControls:         weak,
		HighRiskNews:         news,
		Recommendation:       rec,
		Escalate:             rec == RecommendEscalate,
	}, nil
}
