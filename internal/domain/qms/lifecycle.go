package qms

import "fmt"

// StatusAfterCAP is the CAR status produced by saving a CAP.
func StatusAfterCAP(c CAP) CARStatus {
	if DeriveCAPStatus(c) == CAPStatusComplete {
		return CARStatusPendingVerification
	}
	return CARStatusInProgress
}

// StatusAfterVerification maps the verifier's chosen outcome onto the CAR.
// Pending keeps the CAR awaiting verification; Closed is the only terminal outcome.
// Pending is translated because it is not a CAR status, while Overdue is one
// and is stored as chosen.
func StatusAfterVerification(status VerificationStatus) CARStatus {
	switch status {
	case VerificationClosed:
		return CARStatusClosed
	case VerificationOverdue:
		return CARStatusOverdue
	default:
		return CARStatusPendingVerification
	}
}

// DeriveStatus recomputes a CAR's status from its sub-entities. The most recent
// submission wins: a verification recorded after the CAP decides the outcome,
// otherwise the CAP does, otherwise the CAR is Open.
func DeriveStatus(cap *CAP, verification *Verification) CARStatus {
	if verification != nil && !verification.VerifiedAt.IsZero() {
		if cap == nil || !verification.VerifiedAt.Before(cap.SubmittedAt) {
			return StatusAfterVerification(verification.Status)
		}
	}
	if cap != nil {
		return StatusAfterCAP(*cap)
	}
	return CARStatusOpen
}

// CheckStatusConsistency reports drift between the stored and the derived status.
// Legacy Completed is accepted wherever Closed is derived.
func CheckStatusConsistency(car CAR, cap *CAP, verification *Verification) error {
	derived := DeriveStatus(cap, verification)
	if car.Status == derived {
		return nil
	}
	if car.Status == CARStatusCompleted && derived == CARStatusClosed {
		return nil
	}
	return fmt.Errorf("%w: %s stored=%q derived=%q", ErrStatusDrift, car.ID, car.Status, derived)
}

// CanSubmitCAP guards the CAP flow: any non-closed CAR accepts a plan.
func CanSubmitCAP(car CAR) error {
	if car.Status.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrCARClosed, car.ID)
	}
	return nil
}

// CanSubmitVerification guards the verification flow.
func CanSubmitVerification(car CAR, actor Actor) error {
	if err := RequireRole(actor, actor.Role.IsQualityManagerClass(), "verify a CAPA"); err != nil {
		return err
	}
	if car.Status != CARStatusPendingVerification {
		return fmt.Errorf("%w: %s is %q", ErrNotPendingVerification, car.ID, car.Status)
	}
	return nil
}
