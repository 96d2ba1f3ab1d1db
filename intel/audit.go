package intel

import "math"

// AuditFirmRisk scores an audit firm's regulatory exposure in [0, 1] from
// its recent violation count, repeated high-severity violations and the
// number of entities it audits. Each input saturates (30, 10 and 20).
func AuditFirmRisk(recentViolations, repeatHighSeverity, entities int) float64 {
	base := saturate(recentViolations, 30)
	severity := saturate(repeatHighSeverity, 10)
	spread := saturate(entities, 20)
	score := math.Min(1, 0.5*base+0.35*severity+0.15*spread)
	return math.Round(score*10000) / 10000
}

func saturate(v, at int) float64 {
	if v <= 0 {
		return 0
	}
	return math.Min(float64(v)/float64(at), 1)
}

// RepeatViolations returns the clauses that occur more than once in history,
// with their counts.
func RepeatViolations(history []string) map[string]int {
	counts := make(map[string]int)
	for _, c := range history {
		counts[c]++
	}
	for c, n := range counts {
		if n < 2 {
			delete(counts, c)
		}
	}
	return counts
}

// FirmHistory is an audit firm's enforcement record.
type FirmHistory struct {
	AuditFirm          string   `json:"audit_firm"`
	RecentViolations   int      `json:"recent_violations"`
	RepeatHighSeverity int      `json:"repeat_high_severity"`
	EntityIDs          []string `json:"entity_ids"`
	ClauseHistory      []string `json:"clause_history"`
}

// FirmAssessment is the scored FirmHistory.
type FirmAssessment struct {
	AuditFirm        string         `json:"audit_firm"`
	RiskScore        float64        `json:"risk_score"`
	RepeatViolations map[string]int `json:"repeat_violations"`
}

// Assess scores h.
func (h FirmHistory) Assess() FirmAssessment {
	return FirmAssessment{
		AuditFirm:        h.AuditFirm,
		RiskScore:        AuditFirmRisk(h.RecentViolations, h.RepeatHighSeverity, len(h.EntityIDs)),
		RepeatViolations: RepeatViolations(h.ClauseHistory),
	}
}
