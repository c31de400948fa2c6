package qms

import (
	"fmt"
	"strings"
	"time"
)

type RiskBand string

const (
	BandLow      RiskBand = "Low"
	BandMedium   RiskBand = "Medium"
	BandHigh     RiskBand = "High"
	BandCritical RiskBand = "Critical"
)

// Rating is the product of a severity/likelihood pair and its band.
type Rating struct {
	Index int      `json:"index"`
	Band  RiskBand `json:"band"`
}

// Rate is the only place a risk band is computed.
func Rate(severity int, likelihood int) (Rating, error) {
	if severity < 1 || severity > 5 {
		return Rating{}, fmt.Errorf("%w: got %d", ErrSeverityOutOfRange, severity)
	}
	if likelihood < 1 || likelihood > 5 {
		return Rating{}, fmt.Errorf("%w: got %d", ErrLikelihoodOutOfRange, likelihood)
	}
	index := severity * likelihood
	return Rating{Index: index, Band: bandFor(index)}, nil
}

func bandFor(index int) RiskBand {
	switch {
	case index >= 15:
		return BandCritical
	case index >= 10:
		return BandHigh
	case index >= 5:
		return BandMedium
	default:
		return BandLow
	}
}

// ICAO SMS severity scale.
var severityLabels = map[int]string{
	5: "Catastrophic",
	4: "Hazardous",
	3: "Major",
	2: "Minor",
	1: "Negligible",
}

var likelihoodLabels = map[int]string{
	5: "Frequent",
	4: "Occasional",
	3: "Remote",
	2: "Improbable",
	1: "Extremely Improbable",
}

func SeverityLabel(n int) string   { return severityLabels[n] }
func LikelihoodLabel(n int) string { return likelihoodLabels[n] }

var RiskCategories = []string{
	"Flight Operations",
	"Ground Operations",
	"Training",
	"Maintenance",
	"Security",
	"Environmental",
	"Organisational",
}

// MatrixCell is one cell of the 5x5 matrix.
type MatrixCell struct {
	Severity   int    `json:"severity"`
	Likelihood int    `json:"likelihood"`
	Rating     Rating `json:"rating"`
}

// Matrix returns rows from severity 5 down to 1, columns likelihood 1 to 5.
func Matrix() [][]MatrixCell {
	rows := make([][]MatrixCell, 0, 5)
	for s := 5; s >= 1; s-- {
		row := make([]MatrixCell, 0, 5)
		for l := 1; l <= 5; l++ {
			rating, _ := Rate(s, l)
			row = append(row, MatrixCell{Severity: s, Likelihood: l, Rating: rating})
		}
		rows = append(rows, row)
	}
	return rows
}

type RiskStatus string

const (
	RiskOpen           RiskStatus = "Open"
	RiskUnderTreatment RiskStatus = "Under Treatment"
	RiskMonitoring     RiskStatus = "Monitoring"
	RiskClosed         RiskStatus = "Closed"
)

func ParseRiskStatus(raw string) (RiskStatus, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return RiskOpen, nil
	}
	for _, s := range []RiskStatus{RiskOpen, RiskUnderTreatment, RiskMonitoring, RiskClosed} {
		if strings.EqualFold(trimmed, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRiskStatus, raw)
}

// RiskEntry is a hazard register row. Index and rating fields are projections of the pairs.
type RiskEntry struct {
	ID                 string     `json:"id" yaml:"id"`
	Category           string     `json:"category" yaml:"category"`
	HazardDescription  string     `json:"hazard_description" yaml:"hazard_description"`
	Consequence        string     `json:"consequence" yaml:"consequence"`
	Severity           int        `json:"severity" yaml:"severity"`
	Likelihood         int        `json:"likelihood" yaml:"likelihood"`
	ExistingControls   string     `json:"existing_controls" yaml:"existing_controls"`
	TreatmentAction    string     `json:"treatment_action" yaml:"treatment_action"`
	ResponsiblePerson  string     `json:"responsible_person" yaml:"responsible_person"`
	TargetDate         Date       `json:"target_date" yaml:"target_date"`
	ResidualSeverity   int        `json:"residual_severity" yaml:"residual_severity"`
	ResidualLikelihood int        `json:"residual_likelihood" yaml:"residual_likelihood"`
	InherentIndex      int        `json:"inherent_index" yaml:"-"`
	InherentRating     RiskBand   `json:"inherent_rating" yaml:"-"`
	ResidualIndex      int        `json:"residual_index" yaml:"-"`
	ResidualRating     RiskBand   `json:"residual_rating" yaml:"-"`
	Status             RiskStatus `json:"status" yaml:"status"`
	LinkedCARID        string     `json:"linked_car_id,omitempty" yaml:"linked_car_id"`
	ReviewNotes        string     `json:"review_notes,omitempty" yaml:"review_notes"`
	CreatedAt          time.Time  `json:"created_at" yaml:"-"`
	UpdatedAt          time.Time  `json:"updated_at" yaml:"-"`
}

// Derive fills the index and rating projections. A missing residual pair
// falls back to the inherent pair; any value outside 1..5 is rejected.
func (r *RiskEntry) Derive() error {
	if r.ResidualSeverity == 0 {
		r.ResidualSeverity = r.Severity
	}
	if r.ResidualLikelihood == 0 {
		r.ResidualLikelihood = r.Likelihood
	}

	inherent, err := Rate(r.Severity, r.Likelihood)
	if err != nil {
		return fmt.Errorf("inherent risk: %w", err)
	}
	residual, err := Rate(r.ResidualSeverity, r.ResidualLikelihood)
	if err != nil {
		return fmt.Errorf("residual risk: %w", err)
	}

	r.InherentIndex = inherent.Index
	r.InherentRating = inherent.Band
	r.ResidualIndex = residual.Index
	r.ResidualRating = residual.Band
	return nil
}

// ResidualBand rates the stored residual pair, falling back to the stored rating
// only for rows whose pair cannot be rated.
func (r RiskEntry) ResidualBand() RiskBand {
	if rating, err := Rate(r.ResidualSeverity, r.ResidualLikelihood); err == nil {
		return rating.Band
	}
	return r.ResidualRating
}

// IsTreated means a treatment action exists and the risk has left Open.
func (r RiskEntry) IsTreated() bool {
	return strings.TrimSpace(r.TreatmentAction) != "" && r.Status != RiskOpen
}

type RiskStats struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	High     int `json:"high"`
	Open     int `json:"open"`
	Closed   int `json:"closed"`
}

// SummarizeRisks counts critical/high by residual band among non-closed entries.
func SummarizeRisks(risks []RiskEntry) RiskStats {
	stats := RiskStats{Total: len(risks)}
	for _, r := range risks {
		band := r.ResidualBand()
		if r.Status != RiskClosed {
			switch band {
			case BandCritical:
				stats.Critical++
			case BandHigh:
				stats.High++
			}
		}
		switch r.Status {
		case RiskOpen:
			stats.Open++
		case RiskClosed:
			stats.Closed++
		}
	}
	return stats
}
