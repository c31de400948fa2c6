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

type SubmitCAPInput struct {
	CARID             string
	ImmediateAction   string
	RootCauseAnalysis string
	CorrectiveAction  string
	PreventiveAction  string
	// Evidence is already-stored metadata to attach, e.g. links.
	Evidence []qms.EvidenceFile
	// Uploads are handed to the evidence store first.
	Uploads []ports.EvidenceUpload
}

type CAPResult struct {
	CAR qms.CAR `json:"car"`
	CAP qms.CAP `json:"cap"`
	// Skipped lists uploads the evidence store could not keep.
	Skipped []string `json:"skipped,omitempty"`
}

// SubmitCAP saves the plan and derives both statuses from it. A complete plan
// moves the CAR to Pending Verification and notifies the Quality Manager.
func (s *Service) SubmitCAP(ctx context.Context, actor qms.Actor, input SubmitCAPInput) (CAPResult, error) {
	if err := s.beginWrite(ctx, actor); err != nil {
		return CAPResult{}, err
	}
	if err := qms.RequireRole(actor, actor.Role.CanEditRecords(), "submit a CAP"); err != nil {
		return CAPResult{}, classify(err)
	}
	carID := strings.TrimSpace(input.CARID)
	if carID == "" {
		return CAPResult{}, errs.Validation(errIDRequired)
	}
	for _, f := range input.Evidence {
		if strings.TrimSpace(f.Name) == "" {
			return CAPResult{}, classify(qms.ErrEvidenceNameRequired)
		}
	}
	if len(input.Uploads) > 0 && s.evidence == nil {
		return CAPResult{}, errs.Validation(errors.New("evidence uploads are not configured"))
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.capa"),
		slog.String("op", "submit_cap"),
		slog.String("car_id", carID),
		slog.String("actor", actor.ID),
	)

	car, err := s.repo.GetCAR(ctx, carID)
	if err != nil {
		return CAPResult{}, classify(err)
	}
	if err := qms.CanSubmitCAP(car); err != nil {
		return CAPResult{}, classify(err)
	}

	// Uploads happen before the transaction; a failed file is skipped, not fatal.
	uploaded, skipped := s.storeUploads(logCtx, carID, input.Uploads)

	var result CAPResult
	var before *qms.CAP
	var priorStatus qms.CARStatus
	if err := s.inTx(ctx, func(txCtx context.Context) error {
		current, err := s.repo.GetCAR(txCtx, carID)
		if err != nil {
			return err
		}
		if err := qms.CanSubmitCAP(current); err != nil {
			return err
		}
		priorStatus = current.Status

		plan := qms.CAP{ID: s.newID("CAP"), CARID: carID}
		existing, err := s.repo.GetCAPByCAR(txCtx, carID)
		switch {
		case err == nil:
			prev := existing
			before = &prev
			plan = existing
		case !errors.Is(err, ports.ErrRecordNotFound):
			return err
		}

		plan.ImmediateAction = strings.TrimSpace(input.ImmediateAction)
		plan.RootCauseAnalysis = strings.TrimSpace(input.RootCauseAnalysis)
		plan.CorrectiveAction = strings.TrimSpace(input.CorrectiveAction)
		plan.PreventiveAction = strings.TrimSpace(input.PreventiveAction)
		for _, f := range append(append([]qms.EvidenceFile{}, input.Evidence...), uploaded...) {
			if qms.ContainsEvidence(plan.EvidenceFiles, f) {
				continue
			}
			plan.AddEvidence(f)
		}
		if len(plan.EvidenceFiles) == 0 {
			plan.EvidenceFiles = []qms.EvidenceFile{}
		}

		s.stampCAP(&plan, actor)
		current.Status = qms.StatusAfterCAP(plan)
		current.UpdatedAt = s.nowUTC()

		if err := s.repo.SaveCAP(txCtx, plan); err != nil {
			return err
		}
		if err := s.repo.SaveCAR(txCtx, current); err != nil {
			return err
		}
		result = CAPResult{CAR: current, CAP: plan, Skipped: skipped}
		return nil
	}); err != nil {
		return CAPResult{}, classify(err)
	}

	logging.Info(logCtx, "cap saved",
		slog.String("cap_status", string(result.CAP.Status)),
		slog.String("car_status", string(result.CAR.Status)),
		slog.Int("evidence", len(result.CAP.EvidenceFiles)),
	)
	s.observeTransition("submit_cap", result.CAR.Status)

	action := qms.ActionCreate
	var prev any
	if before != nil {
		action = qms.ActionUpdate
		prev = *before
	}
	s.recordChange(logCtx, actor, change{action: action, table: qms.TableCAPs, id: result.CAP.ID, title: result.CAR.ID, before: prev, after: result.CAP})
	s.publish(logCtx, qms.ChangeEvent{Table: qms.TableCAPs, Action: action, RecordID: result.CAP.ID, At: s.nowUTC()})

	// Only a save that leaves an already pending CAR pending is a replay; a CAR
	// coming back from In Progress or Overdue is a new submission.
	if result.CAP.Status == qms.CAPStatusComplete {
		replay := priorStatus == qms.CARStatusPendingVerification
		s.notify(logCtx, qms.Notification{
			Type: qms.EventCAPSubmitted,
			Record: qms.CAPNotice{
				CAP:                result.CAP,
				FindingDescription: result.CAR.FindingDescription,
				QMSClause:          result.CAR.QMSClause,
			},
			Recipients: recipients(s.rosterEmail(logCtx, qms.QualityManagerTitle)),
		}, replay)
	}
	return result, nil
}

// AddEvidence attaches files to the CAR's plan and keeps its texts as they
// are. A CAR without a plan gets an empty one, which stays Pending.
func (s *Service) AddEvidence(ctx context.Context, actor qms.Actor, carID string, files []qms.EvidenceFile, uploads []ports.EvidenceUpload) (CAPResult, error) {
	if err := s.begin(ctx); err != nil {
		return CAPResult{}, err
	}
	if len(files) == 0 && len(uploads) == 0 {
		return CAPResult{}, errs.Validation(errors.New("no evidence given"))
	}

	input := SubmitCAPInput{CARID: carID, Evidence: files, Uploads: uploads}
	existing, err := s.repo.GetCAPByCAR(ctx, strings.TrimSpace(carID))
	switch {
	case err == nil:
		input.ImmediateAction = existing.ImmediateAction
		input.RootCauseAnalysis = existing.RootCauseAnalysis
		input.CorrectiveAction = existing.CorrectiveAction
		input.PreventiveAction = existing.PreventiveAction
	case !errors.Is(err, ports.ErrRecordNotFound):
		return CAPResult{}, classify(err)
	}
	return s.SubmitCAP(ctx, actor, input)
}

// RemoveEvidence drops one evidence entry and re-saves the plan, so the CAR
// falls back to In Progress when the last file goes.
func (s *Service) RemoveEvidence(ctx context.Context, actor qms.Actor, carID string, index int) (CAPResult, error) {
	if err := s.beginWrite(ctx, actor); err != nil {
		return CAPResult{}, err
	}
	if err := qms.RequireRole(actor, actor.Role.CanEditRecords(), "remove CAP evidence"); err != nil {
		return CAPResult{}, classify(err)
	}
	carID = strings.TrimSpace(carID)
	if carID == "" {
		return CAPResult{}, errs.Validation(errIDRequired)
	}

	var result CAPResult
	var before qms.CAP
	if err := s.inTx(ctx, func(txCtx context.Context) error {
		car, err := s.repo.GetCAR(txCtx, carID)
		if err != nil {
			return err
		}
		if err := qms.CanSubmitCAP(car); err != nil {
			return err
		}
		plan, err := s.repo.GetCAPByCAR(txCtx, carID)
		if err != nil {
			return err
		}
		before = plan
		before.EvidenceFiles = append([]qms.EvidenceFile(nil), plan.EvidenceFiles...)

		if err := plan.RemoveEvidence(index); err != nil {
			return err
		}
		s.stampCAP(&plan, actor)
		car.Status = qms.StatusAfterCAP(plan)
		car.UpdatedAt = s.nowUTC()

		if err := s.repo.SaveCAP(txCtx, plan); err != nil {
			return err
		}
		if err := s.repo.SaveCAR(txCtx, car); err != nil {
			return err
		}
		result = CAPResult{CAR: car, CAP: plan}
		return nil
	}); err != nil {
		return CAPResult{}, classify(err)
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.capa"),
		slog.String("op", "remove_evidence"),
		slog.String("car_id", carID),
		slog.String("actor", actor.ID),
	)
	logging.Info(logCtx, "evidence removed", slog.Int("index", index), slog.Int("remaining", len(result.CAP.EvidenceFiles)))
	s.observeTransition("remove_evidence", result.CAR.Status)
	s.afterWrite(logCtx, actor, change{action: qms.ActionUpdate, table: qms.TableCAPs, id: result.CAP.ID, title: carID, before: before, after: result.CAP})
	return result, nil
}

func (s *Service) stampCAP(plan *qms.CAP, actor qms.Actor) {
	plan.Status = qms.DeriveCAPStatus(*plan)
	plan.SubmittedBy = actor.ID
	plan.SubmittedByName = actor.DisplayName()
	plan.SubmittedAt = s.nowUTC()
}

func (s *Service) storeUploads(ctx context.Context, carID string, uploads []ports.EvidenceUpload) ([]qms.EvidenceFile, []string) {
	if len(uploads) == 0 {
		return nil, nil
	}
	stored := make([]qms.EvidenceFile, 0, len(uploads))
	var skipped []string
	for _, upload := range uploads {
		file, err := s.evidence.Put(ctx, carID, upload)
		if err != nil {
			logging.Warn(ctx, "evidence upload skipped", slog.String("file", upload.Name), slog.Any("err", errs.Loggable(err)))
			skipped = append(skipped, upload.Name)
			continue
		}
		stored = append(stored, file)
	}
	return stored, skipped
}
