package qms

import (
	"fmt"
	"strings"
	"time"
)

// RegisterKind names one of the peripheral registers.
type RegisterKind string

const (
	RegisterDocuments   RegisterKind = "documents"
	RegisterFlightDocs  RegisterKind = "flight_docs"
	RegisterAudits      RegisterKind = "audits"
	RegisterContractors RegisterKind = "contractors"
)

var RegisterKinds = []RegisterKind{RegisterDocuments, RegisterFlightDocs, RegisterAudits, RegisterContractors}

func ParseRegisterKind(raw string) (RegisterKind, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")
	for _, kind := range RegisterKinds {
		if normalized == string(kind) {
			return kind, nil
		}
	}
	switch normalized {
	case "flightdocs":
		return RegisterFlightDocs, nil
	case "docs":
		return RegisterDocuments, nil
	}
	return "", fmt.Errorf("unknown register %q", raw)
}

// IDPrefix is used when a register row arrives without an id.
func (k RegisterKind) IDPrefix() string {
	switch k {
	case RegisterDocuments:
		return "DOC"
	case RegisterFlightDocs:
		return "FD"
	case RegisterAudits:
		return "AUD"
	case RegisterContractors:
		return "CON"
	default:
		return "REC"
	}
}

// CanEditRegister applies the per-register write roles.
func (r Role) CanEditRegister(kind RegisterKind) bool {
	switch kind {
	case RegisterDocuments:
		return r.CanEditRecords()
	case RegisterFlightDocs, RegisterAudits:
		return r.IsQualityManagerClass()
	case RegisterContractors:
		return r == RoleAdmin
	default:
		return false
	}
}

type Document struct {
	ID         string    `json:"id" yaml:"id"`
	Title      string    `json:"title" yaml:"title"`
	Rev        string    `json:"rev" yaml:"rev"`
	Status     string    `json:"status" yaml:"status"`
	DocSection string    `json:"doc_section" yaml:"doc_section"`
	Category   string    `json:"category" yaml:"category"`
	Owner      string    `json:"owner" yaml:"owner"`
	Date       Date      `json:"date" yaml:"date"`
	ExpiryDate Date      `json:"expiry_date" yaml:"expiry_date"`
	ApprovedBy string    `json:"approved_by" yaml:"approved_by"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"-"`
}

// FlightDoc is a certificate, licence or approval with an expiry date.
type FlightDoc struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	DocType     string    `json:"doc_type" yaml:"doc_type"`
	IssuingBody string    `json:"issuing_body" yaml:"issuing_body"`
	IssueDate   Date      `json:"issue_date" yaml:"issue_date"`
	ExpiryDate  Date      `json:"expiry_date" yaml:"expiry_date"`
	Status      string    `json:"status" yaml:"status"`
	Notes       string    `json:"notes" yaml:"notes"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"-"`
}

type Audit struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Type      string    `json:"type" yaml:"type"`
	Status    string    `json:"status" yaml:"status"`
	Lead      string    `json:"lead" yaml:"lead"`
	Scope     string    `json:"scope" yaml:"scope"`
	Date      Date      `json:"date" yaml:"date"`
	Findings  int       `json:"findings" yaml:"findings"`
	Obs       int       `json:"obs" yaml:"obs"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

type Contractor struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Category  string    `json:"category" yaml:"category"`
	Status    string    `json:"status" yaml:"status"`
	Rating    string    `json:"rating" yaml:"rating"`
	Contact   string    `json:"contact" yaml:"contact"`
	Country   string    `json:"country" yaml:"country"`
	LastAudit Date      `json:"last_audit" yaml:"last_audit"`
	NextAudit Date      `json:"next_audit" yaml:"next_audit"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

const (
	FlightDocExpired  = "Expired"
	FlightDocApproved = "Approved"
	AuditScheduled    = "Scheduled"
	AuditCompleted    = "Completed"
)

// IsTopRated reports contractors rated A+ or A.
func (c Contractor) IsTopRated() bool {
	return c.Rating == "A+" || c.Rating == "A"
}

// DisplayTitle is the human label a register row carries into the change log.
func (d Document) DisplayTitle() string   { return d.Title }
func (d FlightDoc) DisplayTitle() string  { return d.Title }
func (a Audit) DisplayTitle() string      { return a.Title }
func (c Contractor) DisplayTitle() string { return c.Name }
