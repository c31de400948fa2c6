package qms

import (
	"fmt"
	"strings"
	"time"
)

type VerificationStatus string

const (
	VerificationPending VerificationStatus = "Pending"
	VerificationClosed  VerificationStatus = "Closed"
	VerificationOverdue VerificationStatus = "Overdue"
)

func ParseVerificationStatus(raw string) (VerificationStatus, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return VerificationPending, nil
	}
	for _, s := range []VerificationStatus{VerificationPending, VerificationClosed, VerificationOverdue} {
		if strings.EqualFold(trimmed, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidVerification, raw)
}

type Effectiveness string

const (
	EffectivenessPending      Effectiveness = "Pending"
	EffectivenessEffective    Effectiveness = "Effective"
	EffectivenessNotEffective Effectiveness = "Not Effective"
)

func ParseEffectiveness(raw string) (Effectiveness, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return EffectivenessPending, nil
	}
	for _, e := range []Effectiveness{EffectivenessPending, EffectivenessEffective, EffectivenessNotEffective} {
		if strings.EqualFold(trimmed, string(e)) {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidEffectiveness, raw)
}

// Checklist holds the six verification checks.
type Checklist struct {
	ImmediateActionOK   bool `json:"immediate_action_ok"`
	RootCauseOK         bool `json:"root_cause_ok"`
	CorrectiveActionOK  bool `json:"corrective_action_ok"`
	PreventiveActionOK  bool `json:"preventive_action_ok"`
	EvidenceOK          bool `json:"evidence_ok"`
	RecurrencePrevented bool `json:"recurrence_prevented"`
}

func (c Checklist) Passed() int {
	n := 0
	for _, ok := range []bool{
		c.ImmediateActionOK,
		c.RootCauseOK,
		c.CorrectiveActionOK,
		c.PreventiveActionOK,
		c.EvidenceOK,
		c.RecurrencePrevented,
	} {
		if ok {
			n++
		}
	}
	return n
}

// ChecklistItems is the number of effectiveness checks.
const ChecklistItems = 6

func (c Checklist) AllChecked() bool { return c.Passed() == ChecklistItems }

// Verification is the quality manager's sign-off on a CAR's CAP.
type Verification struct {
	ID                  string             `json:"id"`
	CARID               string             `json:"car_id"`
	Checklist           Checklist          `json:"checklist"`
	EffectivenessRating Effectiveness      `json:"effectiveness_rating"`
	Status              VerificationStatus `json:"status"`
	VerifierComments    string             `json:"verifier_comments"`
	VerifiedBy          string             `json:"verified_by"`
	VerifiedByName      string             `json:"verified_by_name"`
	VerifiedAt          time.Time          `json:"verified_at"`
}

// VerificationGate selects how the checklist constrains a Closed outcome.
type VerificationGate string

const (
	// GateAdvisory surfaces the checklist as a recommendation only.
	GateAdvisory VerificationGate = "advisory"
	// GateStrict refuses Closed unless every check passed.
	GateStrict VerificationGate = "strict"
)

func ParseVerificationGate(raw string) (VerificationGate, error) {
	switch gate := VerificationGate(strings.ToLower(strings.TrimSpace(raw))); gate {
	case "", GateAdvisory:
		return GateAdvisory, nil
	case GateStrict:
		return GateStrict, nil
	default:
		return "", fmt.Errorf("unknown verification gate %q", raw)
	}
}

// Recommendation is what the UI shows next to the status picker.
type Recommendation struct {
	RecommendClose bool   `json:"recommend_close"`
	Passed         int    `json:"passed"`
	Message        string `json:"message"`
}

func Recommend(c Checklist) Recommendation {
	passed := c.Passed()
	if c.AllChecked() {
		return Recommendation{RecommendClose: true, Passed: passed, Message: "all checks passed, closure recommended"}
	}
	return Recommendation{Passed: passed, Message: fmt.Sprintf("%d of 6 checks passed, closure not recommended", passed)}
}

// CheckGate applies the configured gate to a submitted verification.
func CheckGate(v Verification, gate VerificationGate) error {
	if gate == GateStrict && v.Status == VerificationClosed && !v.Checklist.AllChecked() {
		return fmt.Errorf("%w: %d of 6 passed", ErrChecklistIncomplete, v.Checklist.Passed())
	}
	return nil
}
