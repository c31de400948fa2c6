package qms

import "sort"

type AlertSource string

const (
	AlertCAR       AlertSource = "car"
	AlertFlightDoc AlertSource = "flight_doc"
	AlertAudit     AlertSource = "audit"
	AlertRisk      AlertSource = "risk"
)

// Alert is one banner item.
type Alert struct {
	Source AlertSource `json:"source"`
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	Due    Date        `json:"due"`
	Days   int         `json:"days"`
	State  DueState    `json:"state"`
}

func newAlert(source AlertSource, id string, title string, due Date, today Date) Alert {
	days, _ := DaysUntil(due, today)
	return Alert{Source: source, ID: id, Title: title, Due: due, Days: days, State: Classify(due, today)}
}

func dueSoon(d Date, today Date) bool {
	return IsOverdue(d, today) || IsApproaching(d, today)
}

// CollectAlerts applies each record type's status exclusion list and
// returns items ordered most urgent first.
func CollectAlerts(s Snapshot, today Date) []Alert {
	alerts := make([]Alert, 0)
	for _, c := range s.CARs {
		if c.Status.IsTerminal() || !dueSoon(c.DueDate, today) {
			continue
		}
		alerts = append(alerts, newAlert(AlertCAR, c.ID, c.Title, c.DueDate, today))
	}
	for _, d := range s.FlightDocs {
		if d.Status == FlightDocExpired || d.Status == FlightDocApproved || !dueSoon(d.ExpiryDate, today) {
			continue
		}
		alerts = append(alerts, newAlert(AlertFlightDoc, d.ID, d.Title, d.ExpiryDate, today))
	}
	for _, a := range s.Audits {
		if a.Status != AuditScheduled || !IsOverdue(a.Date, today) {
			continue
		}
		alerts = append(alerts, newAlert(AlertAudit, a.ID, a.Title, a.Date, today))
	}
	for _, r := range s.Risks {
		if r.Status == RiskClosed || r.Status == RiskMonitoring || !IsOverdue(r.TargetDate, today) {
			continue
		}
		alerts = append(alerts, newAlert(AlertRisk, r.ID, r.HazardDescription, r.TargetDate, today))
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Days < alerts[j].Days
	})
	return alerts
}

// Dashboard is the aggregate the home view renders.
type Dashboard struct {
	CARsByStatus      map[CARStatus]int `json:"cars_by_status"`
	CARsBySeverity    map[Severity]int  `json:"cars_by_severity"`
	ScheduledAudits   int               `json:"scheduled_audits"`
	FlightDocsDueSoon int               `json:"flight_docs_due_soon"`
	Risks             RiskStats         `json:"risks"`
	Score             ComplianceScore   `json:"score"`
	Alerts            []Alert           `json:"alerts"`
}

func BuildDashboard(s Snapshot, today Date) Dashboard {
	d := Dashboard{
		CARsByStatus:   make(map[CARStatus]int),
		CARsBySeverity: make(map[Severity]int),
		Risks:          SummarizeRisks(s.Risks),
		Score:          Score(s, today),
		Alerts:         CollectAlerts(s, today),
	}
	for _, c := range s.CARs {
		d.CARsByStatus[c.Status]++
		d.CARsBySeverity[c.Severity]++
	}
	for _, a := range s.Audits {
		if a.Status == AuditScheduled {
			d.ScheduledAudits++
		}
	}
	for _, f := range s.FlightDocs {
		if dueSoon(f.ExpiryDate, today) {
			d.FlightDocsDueSoon++
		}
	}
	return d
}
