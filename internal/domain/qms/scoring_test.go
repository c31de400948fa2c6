package qms

import (
	"testing"
	"time"
)

func TestScore_EmptySnapshotIsFullMarks(t *testing.T) {
	got := Score(Snapshot{}, NewDate(2026, time.January, 1))
	if got.Total != 100 {
		t.Fatalf("Score(empty).Total = %d, want 100", got.Total)
	}
	if got.Band != ScoreExcellent || got.RiskBonus != 0 || got.RiskPenalty != 0 {
		t.Fatalf("Score(empty) = %#v", got)
	}
	for _, p := range got.Pillars {
		if p.Score != p.Max {
			t.Fatalf("pillar %s = %d/%d", p.Key, p.Score, p.Max)
		}
	}
}

func TestScore_PillarArithmetic(t *testing.T) {
	today := NewDate(2026, time.June, 15)
	s := Snapshot{
		CARs: []CAR{
			{ID: "CAR-1", Status: CARStatusClosed, Severity: SeverityMinor, DueDate: today.AddDays(-10)},
			{ID: "CAR-2", Status: CARStatusOpen, Severity: SeverityCritical, DueDate: today.AddDays(-1)},
			{ID: "CAR-3", Status: CARStatusInProgress, Severity: SeverityMajor, DueDate: today.AddDays(30)},
		},
		CAPs: []CAP{
			{CARID: "CAR-1", ImmediateAction: "a", RootCauseAnalysis: "b", CorrectiveAction: "c", PreventiveAction: "d",
				EvidenceFiles: []EvidenceFile{{Name: "e.pdf", URL: "u"}}},
			{CARID: "CAR-3", ImmediateAction: "a"},
		},
		FlightDocs: []FlightDoc{
			{ExpiryDate: today.AddDays(-1)},
			{ExpiryDate: today.AddDays(100)},
			{ExpiryDate: today.AddDays(100)},
		},
		Audits:      []Audit{{Status: AuditCompleted}, {Status: AuditScheduled}},
		Contractors: []Contractor{{Rating: "A+"}, {Rating: "B"}, {Rating: "A"}},
		Risks: []RiskEntry{
			{Status: RiskOpen, ResidualSeverity: 5, ResidualLikelihood: 4},
			{Status: RiskUnderTreatment, TreatmentAction: "fence", ResidualSeverity: 2, ResidualLikelihood: 2},
		},
	}

	got := Score(s, today)
	want := map[string]int{
		"capa_closure":        8,  // round(25/3)
		"cap_compliance":      7,  // round(20/3)
		"no_overdue_critical": 12, // 25 - 5 - 8
		"document_currency":   13, // round(20*2/3)
		"audit_contractors":   6,  // round(2.5 + 3.333)
	}
	for key, score := range want {
		p, ok := got.PillarByKey(key)
		if !ok || p.Score != score {
			t.Fatalf("pillar %s = %d, want %d", key, p.Score, score)
		}
	}
	if got.RiskPenalty != 5 || got.RiskBonus != 3 {
		t.Fatalf("risk penalty/bonus = %d/%d, want 5/3", got.RiskPenalty, got.RiskBonus)
	}
	if wantTotal := 8 + 7 + (12 - 5) + 13 + 6 + 3; got.Total != wantTotal {
		t.Fatalf("Total = %d, want %d", got.Total, wantTotal)
	}
	if got.Band != ScoreNeedsAttention {
		t.Fatalf("Band = %s", got.Band)
	}
}

func TestScore_PenaltiesFloorAtZero(t *testing.T) {
	today := NewDate(2026, time.June, 15)
	var cars []CAR
	for i := 0; i < 10; i++ {
		cars = append(cars, CAR{Status: CARStatusOpen, Severity: SeverityCritical, DueDate: today.AddDays(-5)})
	}
	risks := []RiskEntry{
		{Status: RiskOpen, ResidualSeverity: 5, ResidualLikelihood: 5},
		{Status: RiskOpen, ResidualSeverity: 5, ResidualLikelihood: 5},
		{Status: RiskOpen, ResidualSeverity: 5, ResidualLikelihood: 5},
	}
	flight := []FlightDoc{{ExpiryDate: today.AddDays(-1)}}

	got := Score(Snapshot{CARs: cars, Risks: risks, FlightDocs: flight}, today)
	if got.Total < 0 || got.Total > 100 {
		t.Fatalf("Total = %d out of range", got.Total)
	}
	if p, _ := got.PillarByKey("no_overdue_critical"); p.Score != 0 {
		t.Fatalf("P3 = %d, want 0", p.Score)
	}
	if got.RiskPenalty != 10 {
		t.Fatalf("RiskPenalty = %d, want capped 10", got.RiskPenalty)
	}
	// P1 0, P2 0, P3 0, P4 0, P5 10.
	if got.Total != 10 || got.Band != ScoreCritical {
		t.Fatalf("Total = %d (%s), want 10 Critical", got.Total, got.Band)
	}
}

func TestScore_CompletedCARNotOverdueButNotClosed(t *testing.T) {
	today := NewDate(2026, time.June, 15)
	s := Snapshot{CARs: []CAR{{Status: CARStatusCompleted, Severity: SeverityMinor, DueDate: today.AddDays(-3)}}}
	got := Score(s, today)
	if p, _ := got.PillarByKey("no_overdue_critical"); p.Score != 25 {
		t.Fatalf("P3 = %d, want 25", p.Score)
	}
	if p, _ := got.PillarByKey("capa_closure"); p.Score != 0 {
		t.Fatalf("P1 = %d, want 0", p.Score)
	}
}

func TestRoundHalfUp(t *testing.T) {
	cases := map[float64]int{0: 0, 0.5: 1, 1.49: 1, 2.5: 3, 12.5: 13, 24.999: 25}
	for in, want := range cases {
		if got := roundHalfUp(in); got != want {
			t.Fatalf("roundHalfUp(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestBandForScore(t *testing.T) {
	cases := []struct {
		total int
		want  ScoreBand
	}{
		{100, ScoreExcellent}, {90, ScoreExcellent}, {89, ScoreGood}, {75, ScoreGood},
		{74, ScoreSatisfactory}, {60, ScoreSatisfactory}, {59, ScoreNeedsAttention},
		{40, ScoreNeedsAttention}, {39, ScoreCritical}, {0, ScoreCritical},
	}
	for _, tc := range cases {
		if got := BandForScore(tc.total); got != tc.want {
			t.Fatalf("BandForScore(%d) = %s, want %s", tc.total, got, tc.want)
		}
	}
}
