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

// SaveRisk creates or updates a risk register entry. Index and rating fields
// are always recomputed from the severity and likelihood pairs.
func (s *Service) SaveRisk(ctx context.Context, actor qms.Actor, risk qms.RiskEntry) (qms.RiskEntry, error) {
	if err := s.beginWrite(ctx, actor); err != nil {
		return qms.RiskEntry{}, err
	}
	if err := qms.RequireRole(actor, actor.Role.CanEditRisks(), "edit the risk register"); err != nil {
		return qms.RiskEntry{}, classify(err)
	}

	var before *qms.RiskEntry
	if err := s.inTx(ctx, func(txCtx context.Context) error {
		var err error
		before, err = s.saveRiskTx(txCtx, &risk)
		return err
	}); err != nil {
		return qms.RiskEntry{}, err
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.capa"),
		slog.String("op", "save_risk"),
		slog.String("risk_id", risk.ID),
		slog.String("actor", actor.ID),
	)
	logging.Info(logCtx, "risk saved",
		slog.String("inherent", string(risk.InherentRating)),
		slog.String("residual", string(risk.ResidualRating)),
	)
	s.afterWrite(logCtx, actor, riskChange(before, risk))
	return risk, nil
}

func (s *Service) saveRiskTx(ctx context.Context, risk *qms.RiskEntry) (*qms.RiskEntry, error) {
	risk.HazardDescription = strings.TrimSpace(risk.HazardDescription)
	if risk.HazardDescription == "" {
		return nil, qms.ErrHazardRequired
	}
	status, err := qms.ParseRiskStatus(string(risk.Status))
	if err != nil {
		return nil, err
	}
	risk.Status = status
	if err := risk.Derive(); err != nil {
		return nil, err
	}

	risk.ID = strings.TrimSpace(risk.ID)
	if risk.ID == "" {
		risk.ID = s.newID("RSK")
	}

	now := s.nowUTC()
	var before *qms.RiskEntry
	existing, err := s.repo.GetRisk(ctx, risk.ID)
	switch {
	case err == nil:
		before = &existing
		risk.CreatedAt = existing.CreatedAt
	case errors.Is(err, ports.ErrRecordNotFound):
		risk.CreatedAt = now
	default:
		return nil, err
	}
	risk.UpdatedAt = now
	return before, s.repo.SaveRisk(ctx, *risk)
}

func riskChange(before *qms.RiskEntry, after qms.RiskEntry) change {
	c := change{action: qms.ActionCreate, table: qms.TableRisks, id: after.ID, title: after.HazardDescription, after: after}
	if before != nil {
		c.action = qms.ActionUpdate
		c.before = *before
	}
	return c
}

// DeleteRisk removes a register entry. Admin only.
func (s *Service) DeleteRisk(ctx context.Context, actor qms.Actor, id string) error {
	if err := s.beginWrite(ctx, actor); err != nil {
		return err
	}
	if err := qms.RequireRole(actor, actor.Role.CanDelete(), "delete a risk"); err != nil {
		return classify(err)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return errs.Validation(errIDRequired)
	}

	var before qms.RiskEntry
	if err := s.inTx(ctx, func(txCtx context.Context) error {
		var err error
		if before, err = s.repo.GetRisk(txCtx, id); err != nil {
			return err
		}
		return s.repo.DeleteRisk(txCtx, id)
	}); err != nil {
		return err
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.capa"),
		slog.String("op", "delete_risk"),
		slog.String("risk_id", id),
		slog.String("actor", actor.ID),
	)
	logging.Info(logCtx, "risk deleted")
	s.afterWrite(logCtx, actor, change{action: qms.ActionDelete, table: qms.TableRisks, id: id, title: before.HazardDescription, before: before})
	return nil
}

type RiskView struct {
	Risks []qms.RiskEntry `json:"risks"`
	Stats qms.RiskStats   `json:"stats"`
}

// ListRisks returns the register with its summary counts.
func (s *Service) ListRisks(ctx context.Context) (RiskView, error) {
	if err := s.begin(ctx); err != nil {
		return RiskView{}, err
	}
	risks, err := s.repo.ListRisks(ctx)
	if err != nil {
		return RiskView{}, classify(err)
	}
	return RiskView{Risks: risks, Stats: qms.SummarizeRisks(risks)}, nil
}
