package rules

import (
	"fmt"
	"strconv"
	"strings"
)

// ClauseType selects how EvaluateClause checks a clause.
type ClauseType string

const (
	ClausePresence           ClauseType = "presence"
	ClauseNumericConsistency ClauseType = "numeric_consistency"
	ClauseCrossStatement     ClauseType = "cross_statement"
)

// ClauseResult is the outcome of one clause check.
type ClauseResult struct {
	Type       ClauseType `json:"type"`
	OK         bool       `json:"ok"`
	Reasoning  string     `json:"reasoning"`
	Confidence float64    `json:"confidence"`
	Severity   string     `json:"severity"`
}

// EvaluateClause checks a single clause. Payload keys by type:
//
//	presence:            evidence_text, required_keywords (comma separated)
//	numeric_consistency: lhs, rhs, tolerance (default 0)
//	cross_statement:     mapping_ok ("true" passes)
func EvaluateClause(typ ClauseType, payload map[string]string) (ClauseResult, error) {
	var (
		res ClauseResult
		err error
	)
	switch typ {
	case ClausePresence:
		res = presence(payload["evidence_text"], payload["required_keywords"])
	case ClauseNumericConsistency:
		res, err = numericConsistency(payload["lhs"], payload["rhs"], payload["tolerance"])
	case ClauseCrossStatement:
		res = crossStatement(payload["mapping_ok"])
	default:
		return ClauseResult{}, fmt.Errorf("unsupported clause type %q", typ)
	}
	if err != nil {
		return ClauseResult{}, err
	}
	res.Type = typ
	res.Severity = "HIGH"
	if res.OK {
		res.Severity = "LOW"
	}
	return res, nil
}

func presence(evidence, required string) ClauseResult {
	haystack := strings.ToLower(evidence)
	ok := true
	for _, k := range strings.Split(required, ",") {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && !strings.Contains(haystack, k) {
			ok = false
			break
		}
	}
	if ok {
		return ClauseResult{OK: true, Reasoning: "All mandatory keywords found.", Confidence: 0.92}
	}
	return ClauseResult{Reasoning: "One or more mandatory keywords missing.", Confidence: 0.78}
}

func numericConsistency(lhs, rhs, tolerance string) (ClauseResult, error) {
	if tolerance == "" {
		tolerance = "0"
	}
	l, err := strconv.ParseFloat(strings.TrimSpace(lhs), 64)
	if err != nil {
		return ClauseResult{}, fmt.Errorf("numeric_consistency: lhs: %w", err)
	}
	r, err := strconv.ParseFloat(strings.TrimSpace(rhs), 64)
	if err != nil {
		return ClauseResult{}, fmt.Errorf("numeric_consistency: rhs: %w", err)
	}
	tol, err := strconv.ParseFloat(strings.TrimSpace(tolerance), 64)
	if err != nil {
		return ClauseResult{}, fmt.Errorf("numeric_consistency: tolerance: %w", err)
	}

	diff := l - r
	if diff < 0 {
		diff = -diff
	}
	if diff <= tol {
		return ClauseResult{OK: true, Reasoning: fmt.Sprintf("|%g - %g| <= %g", l, r, tol), Confidence: 0.95}, nil
	}
	return ClauseResult{Reasoning: fmt.Sprintf("Difference exceeds tolerance (%g).", tol), Confidence: 0.85}, nil
}

func crossStatement(mappingOK string) ClauseResult {
	if strings.EqualFold(strings.TrimSpace(mappingOK), "true") {
		return ClauseResult{OK: true, Reasoning: "Cross-statement linkage validated.", Confidence: 0.90}
	}
	return ClauseResult{Reasoning: "Cross-statement linkage failed.", Confidence: 0.72}
}
