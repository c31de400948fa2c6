package capa

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"aeroqualify/internal/bootstrap/logging"
	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/ports"
)

type SubmitVerificationInput struct {
	CARID               string
	Checklist           qms.Checklist
	EffectivenessRating string
	Status              string
	VerifierComments    string
}

type VerificationResult struct {
	CAR            qms.CAR            `json:"car"`
	Verification   qms.Verification   `json:"verification"`
	Recommendation qms.Recommendation `json:"recommendation"`
}

// SubmitVerification records the quality manager's outcome. The CAR takes the
// chosen status; the checklist only blocks Closed under the strict gate.
func (s *Service) SubmitVerification(ctx context.Context, actor qms.Actor, input SubmitVerificationInput) (VerificationResult, error) {
	if err := s.beginWrite(ctx, actor); err != nil {
		return VerificationResult{}, err
	}
	carID := strings.TrimSpace(input.CARID)
	if carID == "" {
		return VerificationResult{}, errs.Validation(errIDRequired)
	}
	status, err := qms.ParseVerificationStatus(input.Status)
	if err != nil {
		return VerificationResult{}, classify(err)
	}
	rating, err := qms.ParseEffectiveness(input.EffectivenessRating)
	if err != nil {
		return VerificationResult{}, classify(err)
	}

	var result VerificationResult
	var before *qms.Verification
	if err := s.inTx(ctx, func(txCtx context.Context) error {
		car, err := s.repo.GetCAR(txCtx, carID)
		if err != nil {
			return err
		}
		if err := qms.CanSubmitVerification(car, actor); err != nil {
			return err
		}

		v := qms.Verification{ID: s.newID("VRF"), CARID: carID}
		existing, err := s.repo.GetVerificationByCAR(txCtx, carID)
		switch {
		case err == nil:
			prev := existing
			before = &prev
			v.ID = existing.ID
		case !errors.Is(err, ports.ErrRecordNotFound):
			return err
		}

		v.Checklist = input.Checklist
		v.EffectivenessRating = rating
		v.Status = status
		v.VerifierComments = strings.TrimSpace(input.VerifierComments)
		v.VerifiedBy = actor.ID
		v.VerifiedByName = actor.DisplayName()
		v.VerifiedAt = s.nowUTC()
		if err := qms.CheckGate(v, s.gate); err != nil {
			return err
		}

		car.Status = qms.StatusAfterVerification(v.Status)
		car.UpdatedAt = s.nowUTC()

		if err := s.repo.SaveVerification(txCtx, v); err != nil {
			return err
		}
		if err := s.repo.SaveCAR(txCtx, car); err != nil {
			return err
		}
		result = VerificationResult{CAR: car, Verification: v, Recommendation: qms.Recommend(v.Checklist)}
		return nil
	}); err != nil {
		return VerificationResult{}, classify(err)
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.capa"),
		slog.String("op", "submit_verification"),
		slog.String("car_id", carID),
		slog.String("actor", actor.ID),
	)
	logging.Info(logCtx, "verification recorded",
		slog.String("status", string(result.Verification.Status)),
		slog.Int("checks_passed", result.Recommendation.Passed),
		slog.String("gate", string(s.gate)),
	)
	s.observeTransition("submit_verification", result.CAR.Status)

	action := qms.ActionCreate
	var prev any
	if before != nil {
		action = qms.ActionUpdate
		prev = *before
	}
	s.recordChange(logCtx, actor, change{action: action, table: qms.TableVerifications, id: result.Verification.ID, title: carID, before: prev, after: result.Verification})
	s.publish(logCtx, qms.ChangeEvent{Table: qms.TableVerifications, Action: action, RecordID: result.Verification.ID, At: s.nowUTC()})

	email := s.rosterEmail(logCtx, result.CAR.ResponsibleManager)
	if email == "" {
		email = result.CAR.ResponsibleManagerEmail
	}
	// Closed and Overdue move the CAR out of Pending Verification and always
	// notify; a repeated Pending outcome leaves it in place and may be a replay.
	replay := result.CAR.Status == qms.CARStatusPendingVerification
	s.notify(logCtx, qms.Notification{Type: qms.EventVerificationSubmitted, Record: result.Verification, Recipients: recipients(email)}, replay)
	return result, nil
}
