package qms

import "errors"

var (
	ErrInvalidDate            = errors.New("invalid date")
	ErrSeverityOutOfRange     = errors.New("severity must be between 1 and 5")
	ErrLikelihoodOutOfRange   = errors.New("likelihood must be between 1 and 5")
	ErrInvalidCARSeverity     = errors.New("invalid CAR severity")
	ErrInvalidCARStatus       = errors.New("invalid CAR status")
	ErrInvalidVerification    = errors.New("invalid verification status")
	ErrInvalidEffectiveness   = errors.New("invalid effectiveness rating")
	ErrInvalidRiskStatus      = errors.New("invalid risk status")
	ErrInvalidRole            = errors.New("invalid role")
	ErrFindingRequired        = errors.New("finding description is required")
	ErrHazardRequired         = errors.New("hazard description is required")
	ErrCARClosed              = errors.New("CAR is closed")
	ErrNotPendingVerification = errors.New("CAR is not pending verification")
	ErrChecklistIncomplete    = errors.New("all six verification checks are required to close")
	ErrEvidenceIndex          = errors.New("evidence index out of range")
	ErrEvidenceNameRequired   = errors.New("evidence name is required")
	ErrRoleNotPermitted       = errors.New("role is not permitted for this action")
	ErrStatusDrift            = errors.New("stored CAR status does not match derived status")
)
