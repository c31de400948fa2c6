package qms

import (
	"strings"
	"time"
)

type CAPStatus string

const (
	CAPStatusPending  CAPStatus = "Pending"
	CAPStatusComplete CAPStatus = "Complete"
)

// CAP is a Corrective Action Plan. It belongs to exactly one CAR.
type CAP struct {
	ID                string         `json:"id"`
	CARID             string         `json:"car_id"`
	ImmediateAction   string         `json:"immediate_action"`
	RootCauseAnalysis string         `json:"root_cause_analysis"`
	CorrectiveAction  string         `json:"corrective_action"`
	PreventiveAction  string         `json:"preventive_action"`
	EvidenceFiles     []EvidenceFile `json:"evidence_files"`
	// Legacy single-file fields mirror the first evidence entry for older readers.
	EvidenceFilename string    `json:"evidence_filename,omitempty"`
	EvidenceURL      string    `json:"evidence_url,omitempty"`
	Status           CAPStatus `json:"status"`
	SubmittedBy      string    `json:"submitted_by"`
	SubmittedByName  string    `json:"submitted_by_name"`
	SubmittedAt      time.Time `json:"submitted_at"`
}

// TextComplete reports whether the four narrative fields are filled.
func (c CAP) TextComplete() bool {
	return strings.TrimSpace(c.ImmediateAction) != "" &&
		strings.TrimSpace(c.RootCauseAnalysis) != "" &&
		strings.TrimSpace(c.CorrectiveAction) != "" &&
		strings.TrimSpace(c.PreventiveAction) != ""
}

// AllFilled is the CAP completeness gate: four narrative fields plus at least one evidence file.
func (c CAP) AllFilled() bool {
	return c.TextComplete() && len(c.EvidenceFiles) > 0
}

// DeriveCAPStatus is the single source of truth for CAP.Status.
func DeriveCAPStatus(c CAP) CAPStatus {
	if c.AllFilled() {
		return CAPStatusComplete
	}
	return CAPStatusPending
}

// AddEvidence appends files in order and refreshes the legacy mirror fields.
func (c *CAP) AddEvidence(files ...EvidenceFile) {
	c.EvidenceFiles = AppendEvidence(c.EvidenceFiles, files...)
	c.syncLegacyEvidence()
}

// RemoveEvidence drops exactly one entry; removing the last one clears the legacy fields.
func (c *CAP) RemoveEvidence(index int) error {
	next, err := RemoveEvidenceAt(c.EvidenceFiles, index)
	if err != nil {
		return err
	}
	c.EvidenceFiles = next
	c.syncLegacyEvidence()
	return nil
}

func (c *CAP) syncLegacyEvidence() {
	if len(c.EvidenceFiles) == 0 {
		c.EvidenceFilename = ""
		c.EvidenceURL = ""
		return
	}
	c.EvidenceFilename = c.EvidenceFiles[0].Name
	c.EvidenceURL = c.EvidenceFiles[0].URL
}
