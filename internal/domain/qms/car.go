package qms

import (
	"fmt"
	"strings"
	"time"
)

type Severity string

const (
	SeverityMinor    Severity = "Minor"
	SeverityMajor    Severity = "Major"
	SeverityCritical Severity = "Critical"
)

func ParseSeverity(raw string) (Severity, error) {
	trimmed := strings.TrimSpace(raw)
	for _, s := range []Severity{SeverityMinor, SeverityMajor, SeverityCritical} {
		if strings.EqualFold(trimmed, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCARSeverity, raw)
}

type CARStatus string

const (
	CARStatusOpen                CARStatus = "Open"
	CARStatusInProgress          CARStatus = "In Progress"
	CARStatusPendingVerification CARStatus = "Pending Verification"
	CARStatusClosed              CARStatus = "Closed"
	// CARStatusOverdue is only persisted as an explicit verification outcome.
	CARStatusOverdue CARStatus = "Overdue"
	// CARStatusCompleted is a legacy value treated like Closed by the due-date policy.
	CARStatusCompleted CARStatus = "Completed"
)

var carStatuses = []CARStatus{
	CARStatusOpen,
	CARStatusInProgress,
	CARStatusPendingVerification,
	CARStatusClosed,
	CARStatusOverdue,
	CARStatusCompleted,
}

func ParseCARStatus(raw string) (CARStatus, error) {
	trimmed := strings.TrimSpace(raw)
	for _, s := range carStatuses {
		if strings.EqualFold(trimmed, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCARStatus, raw)
}

// IsTerminal reports statuses that stop due-date alerting.
func (s CARStatus) IsTerminal() bool {
	return s == CARStatusClosed || s == CARStatusCompleted
}

// CAR is a Corrective Action Request.
type CAR struct {
	ID                      string    `json:"id"`
	Title                   string    `json:"title"`
	FindingDescription      string    `json:"finding_description"`
	QMSClause               string    `json:"qms_clause"`
	Severity                Severity  `json:"severity"`
	Status                  CARStatus `json:"status"`
	Department              string    `json:"department"`
	ResponsibleManager      string    `json:"responsible_manager"`
	ResponsibleManagerEmail string    `json:"responsible_manager_email,omitempty"`
	DateRaised              Date      `json:"date_raised"`
	DueDate                 Date      `json:"due_date"`
	RaisedBy                string    `json:"raised_by"`
	RaisedByName            string    `json:"raised_by_name"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

const maxDerivedTitle = 80

// DefaultCARTitle derives a title from the finding when none is given.
func DefaultCARTitle(title string, finding string, id string) string {
	if trimmed := strings.TrimSpace(title); trimmed != "" {
		return trimmed
	}
	finding = strings.TrimSpace(finding)
	if finding == "" {
		return id
	}
	runes := []rune(finding)
	if len(runes) > maxDerivedTitle {
		runes = runes[:maxDerivedTitle]
	}
	return string(runes)
}

// CARPatch carries a field edit. Status is deliberately absent.
type CARPatch struct {
	Title                   *string
	FindingDescription      *string
	QMSClause               *string
	Severity                *Severity
	Department              *string
	ResponsibleManager      *string
	ResponsibleManagerEmail *string
	DateRaised              *Date
	DueDate                 *Date
}

// Apply returns a copy of car with the patch applied; status never changes.
func (p CARPatch) Apply(car CAR) CAR {
	out := car
	if p.Title != nil {
		out.Title = strings.TrimSpace(*p.Title)
	}
	if p.FindingDescription != nil {
		out.FindingDescription = strings.TrimSpace(*p.FindingDescription)
	}
	if p.QMSClause != nil {
		out.QMSClause = strings.TrimSpace(*p.QMSClause)
	}
	if p.Severity != nil {
		out.Severity = *p.Severity
	}
	if p.Department != nil {
		out.Department = strings.TrimSpace(*p.Department)
	}
	if p.ResponsibleManager != nil {
		out.ResponsibleManager = strings.TrimSpace(*p.ResponsibleManager)
	}
	if p.ResponsibleManagerEmail != nil {
		out.ResponsibleManagerEmail = strings.TrimSpace(*p.ResponsibleManagerEmail)
	}
	if p.DateRaised != nil {
		out.DateRaised = *p.DateRaised
	}
	if p.DueDate != nil {
		out.DueDate = *p.DueDate
	}
	out.Title = DefaultCARTitle(out.Title, out.FindingDescription, out.ID)
	return out
}
