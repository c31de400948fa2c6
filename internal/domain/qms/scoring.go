package qms

import (
	"fmt"
	"math"
)

// Snapshot is the full record set every aggregate view is derived from.
type Snapshot struct {
	CARs          []CAR          `json:"cars"`
	CAPs          []CAP          `json:"caps"`
	Verifications []Verification `json:"verifications"`
	Risks         []RiskEntry    `json:"risks"`
	Documents     []Document     `json:"documents"`
	FlightDocs    []FlightDoc    `json:"flight_docs"`
	Audits        []Audit        `json:"audits"`
	Contractors   []Contractor   `json:"contractors"`
	Managers      Roster         `json:"managers"`
}

type ScoreBand string

const (
	ScoreExcellent      ScoreBand = "Excellent"
	ScoreGood           ScoreBand = "Good"
	ScoreSatisfactory   ScoreBand = "Satisfactory"
	ScoreNeedsAttention ScoreBand = "Needs Attention"
	ScoreCritical       ScoreBand = "Critical"
)

func BandForScore(total int) ScoreBand {
	switch {
	case total >= 90:
		return ScoreExcellent
	case total >= 75:
		return ScoreGood
	case total >= 60:
		return ScoreSatisfactory
	case total >= 40:
		return ScoreNeedsAttention
	default:
		return ScoreCritical
	}
}

type Pillar struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Score       int    `json:"score"`
	Max         int    `json:"max"`
	Description string `json:"description"`
}

type ComplianceScore struct {
	Total       int       `json:"total"`
	Band        ScoreBand `json:"band"`
	Pillars     []Pillar  `json:"pillars"`
	RiskPenalty int       `json:"risk_penalty"`
	RiskBonus   int       `json:"risk_bonus"`
}

// roundHalfUp matches the rounding the score has always been displayed with.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func ratio(num int, den int) float64 {
	if den == 0 {
		return 1
	}
	return math.Min(1, float64(num)/float64(den))
}

func clampInt(v int, lo int, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Score is a pure reduction over the snapshot. Every pillar awards full credit
// when its denominator is zero, so an empty snapshot scores exactly 100.
func Score(s Snapshot, today Date) ComplianceScore {
	totalCARs := len(s.CARs)
	closedCARs, overdueCARs, criticalOpen := 0, 0, 0
	for _, c := range s.CARs {
		if c.Status == CARStatusClosed {
			closedCARs++
		}
		if CAROverdue(c, today) {
			overdueCARs++
		}
		if c.Severity == SeverityCritical && c.Status != CARStatusClosed {
			criticalOpen++
		}
	}

	completeCAPs := 0
	for _, c := range s.CAPs {
		if DeriveCAPStatus(c) == CAPStatusComplete {
			completeCAPs++
		}
	}

	expiredDocs := 0
	for _, d := range s.FlightDocs {
		if IsOverdue(d.ExpiryDate, today) {
			expiredDocs++
		}
	}

	auditsDone := 0
	for _, a := range s.Audits {
		if a.Status == AuditCompleted {
			auditsDone++
		}
	}

	topContractors := 0
	for _, c := range s.Contractors {
		if c.IsTopRated() {
			topContractors++
		}
	}

	openCriticalRisks, treatedRisks := 0, 0
	for _, r := range s.Risks {
		if r.ResidualBand() == BandCritical && r.Status != RiskClosed {
			openCriticalRisks++
		}
		if r.IsTreated() {
			treatedRisks++
		}
	}

	p1 := clampInt(roundHalfUp(25*ratio(closedCARs, totalCARs)), 0, 25)
	p2 := clampInt(roundHalfUp(20*ratio(completeCAPs, totalCARs)), 0, 20)
	p3 := clampInt(25-5*overdueCARs-8*criticalOpen, 0, 25)

	p4 := 20
	if n := len(s.FlightDocs); n > 0 {
		p4 = clampInt(roundHalfUp(20*(1-float64(expiredDocs)/float64(n))), 0, 20)
	}

	auditComponent := 5 * ratio(auditsDone, len(s.Audits))
	contractorComponent := 5 * ratio(topContractors, len(s.Contractors))
	p5 := clampInt(roundHalfUp(auditComponent+contractorComponent), 0, 10)

	riskPenalty := min(10, 5*openCriticalRisks)
	riskBonus := 0
	if n := len(s.Risks); n > 0 {
		riskBonus = roundHalfUp(5 * float64(treatedRisks) / float64(n))
	}

	total := clampInt(p1+p2+max(0, p3-riskPenalty)+p4+p5+riskBonus, 0, 100)

	return ComplianceScore{
		Total:       total,
		Band:        BandForScore(total),
		RiskPenalty: riskPenalty,
		RiskBonus:   riskBonus,
		Pillars: []Pillar{
			{Key: "capa_closure", Label: "CAPA Closure", Score: p1, Max: 25,
				Description: fmt.Sprintf("%d/%d CARs closed", closedCARs, totalCARs)},
			{Key: "cap_compliance", Label: "CAP Compliance", Score: p2, Max: 20,
				Description: fmt.Sprintf("%d/%d CAPs complete", completeCAPs, totalCARs)},
			{Key: "no_overdue_critical", Label: "No Overdue/Critical", Score: p3, Max: 25,
				Description: fmt.Sprintf("%d overdue, %d critical open", overdueCARs, criticalOpen)},
			{Key: "document_currency", Label: "Document Currency", Score: p4, Max: 20,
				Description: fmt.Sprintf("%d/%d docs current", len(s.FlightDocs)-expiredDocs, len(s.FlightDocs))},
			{Key: "audit_contractors", Label: "Audit & Contractors", Score: p5, Max: 10,
				Description: fmt.Sprintf("%d audits done, %d approved contractors", auditsDone, topContractors)},
		},
	}
}

// PillarByKey returns the pillar with key, or false.
func (c ComplianceScore) PillarByKey(key string) (Pillar, bool) {
	for _, p := range c.Pillars {
		if p.Key == key {
			return p, true
		}
	}
	return Pillar{}, false
}
