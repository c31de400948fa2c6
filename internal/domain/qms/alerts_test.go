package qms

import (
	"testing"
	"time"
)

func TestCollectAlerts_ExclusionLists(t *testing.T) {
	today := NewDate(2026, time.April, 1)
	s := Snapshot{
		CARs: []CAR{
			{ID: "CAR-open", Status: CARStatusOpen, DueDate: today.AddDays(3)},
			{ID: "CAR-closed", Status: CARStatusClosed, DueDate: today.AddDays(-3)},
			{ID: "CAR-far", Status: CARStatusOpen, DueDate: today.AddDays(40)},
		},
		FlightDocs: []FlightDoc{
			{ID: "FD-valid", Status: "Valid", ExpiryDate: today.AddDays(-2)},
			{ID: "FD-expired", Status: FlightDocExpired, ExpiryDate: today.AddDays(-2)},
		},
		Audits: []Audit{
			{ID: "AUD-sched", Status: AuditScheduled, Date: today.AddDays(-1)},
			{ID: "AUD-soon", Status: AuditScheduled, Date: today.AddDays(5)},
			{ID: "AUD-done", Status: AuditCompleted, Date: today.AddDays(-10)},
		},
		Risks: []RiskEntry{
			{ID: "RSK-open", Status: RiskOpen, TargetDate: today.AddDays(-4)},
			{ID: "RSK-mon", Status: RiskMonitoring, TargetDate: today.AddDays(-4)},
			{ID: "RSK-soon", Status: RiskOpen, TargetDate: today.AddDays(4)},
		},
	}

	got := CollectAlerts(s, today)
	ids := make([]string, 0, len(got))
	for _, a := range got {
		ids = append(ids, a.ID)
	}
	want := []string{"RSK-open", "FD-valid", "AUD-sched", "CAR-open"}
	if len(ids) != len(want) {
		t.Fatalf("CollectAlerts() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("CollectAlerts() = %v, want %v", ids, want)
		}
	}
	if got[0].State != DueOverdue || got[3].State != DueApproaching || got[3].Days != 3 {
		t.Fatalf("states = %#v", got)
	}
}

func TestBuildDashboard_Counts(t *testing.T) {
	today := NewDate(2026, time.April, 1)
	s := Snapshot{
		CARs: []CAR{
			{Status: CARStatusOpen, Severity: SeverityMajor},
			{Status: CARStatusOpen, Severity: SeverityMinor},
			{Status: CARStatusClosed, Severity: SeverityMajor},
		},
		Audits:     []Audit{{Status: AuditScheduled}, {Status: AuditCompleted}},
		FlightDocs: []FlightDoc{{ExpiryDate: today.AddDays(10)}, {ExpiryDate: today.AddDays(90)}},
	}
	d := BuildDashboard(s, today)
	if d.CARsByStatus[CARStatusOpen] != 2 || d.CARsBySeverity[SeverityMajor] != 2 {
		t.Fatalf("counts = %#v %#v", d.CARsByStatus, d.CARsBySeverity)
	}
	if d.ScheduledAudits != 1 || d.FlightDocsDueSoon != 1 {
		t.Fatalf("dashboard = %#v", d)
	}
	if d.Score.Total != Score(s, today).Total {
		t.Fatalf("dashboard score differs from Score()")
	}
}
