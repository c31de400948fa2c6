package qms

import (
	"errors"
	"testing"
)

func TestRate_IndexAndBandBoundaries(t *testing.T) {
	for s := 1; s <= 5; s++ {
		for l := 1; l <= 5; l++ {
			got, err := Rate(s, l)
			if err != nil {
				t.Fatalf("Rate(%d,%d) error = %v", s, l, err)
			}
			if got.Index != s*l {
				t.Fatalf("Rate(%d,%d).Index = %d, want %d", s, l, got.Index, s*l)
			}
			var want RiskBand
			switch idx := s * l; {
			case idx <= 4:
				want = BandLow
			case idx <= 9:
				want = BandMedium
			case idx <= 14:
				want = BandHigh
			default:
				want = BandCritical
			}
			if got.Band != want {
				t.Fatalf("Rate(%d,%d).Band = %s, want %s", s, l, got.Band, want)
			}
		}
	}
}

func TestRate_BandMonotonicInIndex(t *testing.T) {
	rank := map[RiskBand]int{BandLow: 0, BandMedium: 1, BandHigh: 2, BandCritical: 3}
	prev := -1
	for idx := 1; idx <= 25; idx++ {
		r := rank[bandFor(idx)]
		if r < prev {
			t.Fatalf("band decreased at index %d", idx)
		}
		prev = r
	}
}

func TestRate_RejectsOutOfDomain(t *testing.T) {
	cases := []struct {
		severity   int
		likelihood int
		want       error
	}{
		{0, 3, ErrSeverityOutOfRange},
		{6, 3, ErrSeverityOutOfRange},
		{3, 0, ErrLikelihoodOutOfRange},
		{3, 6, ErrLikelihoodOutOfRange},
		{-1, -1, ErrSeverityOutOfRange},
	}
	for _, tc := range cases {
		_, err := Rate(tc.severity, tc.likelihood)
		if !errors.Is(err, tc.want) {
			t.Fatalf("Rate(%d,%d) error = %v, want %v", tc.severity, tc.likelihood, err, tc.want)
		}
	}
}

func TestRiskEntryDerive_InherentAndResidual(t *testing.T) {
	r := RiskEntry{Severity: 5, Likelihood: 4}
	if err := r.Derive(); err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if r.InherentIndex != 20 || r.InherentRating != BandCritical {
		t.Fatalf("inherent = %d/%s, want 20/Critical", r.InherentIndex, r.InherentRating)
	}
	if r.ResidualIndex != 20 || r.ResidualRating != BandCritical {
		t.Fatalf("residual defaults = %d/%s, want inherent pair", r.ResidualIndex, r.ResidualRating)
	}

	r.ResidualSeverity = 2
	r.ResidualLikelihood = 2
	if err := r.Derive(); err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if r.ResidualIndex != 4 || r.ResidualRating != BandLow {
		t.Fatalf("residual = %d/%s, want 4/Low", r.ResidualIndex, r.ResidualRating)
	}
	if r.InherentIndex != 20 {
		t.Fatalf("inherent changed to %d", r.InherentIndex)
	}
}

func TestRiskEntryDerive_RejectsResidualOutOfRange(t *testing.T) {
	r := RiskEntry{Severity: 3, Likelihood: 3, ResidualSeverity: 7, ResidualLikelihood: 1}
	if err := r.Derive(); !errors.Is(err, ErrSeverityOutOfRange) {
		t.Fatalf("Derive() error = %v, want ErrSeverityOutOfRange", err)
	}
}

func TestMatrix_Shape(t *testing.T) {
	m := Matrix()
	if len(m) != 5 {
		t.Fatalf("rows = %d", len(m))
	}
	if m[0][0].Severity != 5 || m[0][0].Likelihood != 1 {
		t.Fatalf("top-left = %#v", m[0][0])
	}
	if m[0][4].Rating.Band != BandCritical || m[4][0].Rating.Band != BandLow {
		t.Fatalf("corners = %s, %s", m[0][4].Rating.Band, m[4][0].Rating.Band)
	}
	if SeverityLabel(5) != "Catastrophic" || LikelihoodLabel(1) != "Extremely Improbable" {
		t.Fatalf("labels = %q, %q", SeverityLabel(5), LikelihoodLabel(1))
	}
}

func TestSummarizeRisks(t *testing.T) {
	risks := []RiskEntry{
		{Status: RiskOpen, ResidualSeverity: 5, ResidualLikelihood: 5},
		{Status: RiskClosed, ResidualSeverity: 5, ResidualLikelihood: 5},
		{Status: RiskUnderTreatment, ResidualSeverity: 3, ResidualLikelihood: 4},
		{Status: RiskMonitoring, ResidualSeverity: 1, ResidualLikelihood: 1},
	}
	got := SummarizeRisks(risks)
	want := RiskStats{Total: 4, Critical: 1, High: 1, Open: 1, Closed: 1}
	if got != want {
		t.Fatalf("SummarizeRisks() = %#v, want %#v", got, want)
	}
}
