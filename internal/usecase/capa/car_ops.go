package capa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"aeroqualify/internal/bootstrap/logging"
	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/ports"
)

type RaiseCARInput struct {
	ID                      string
	Title                   string
	FindingDescription      string
	QMSClause               string
	Severity                string
	Department              string
	ResponsibleManager      string
	ResponsibleManagerEmail string
	DateRaised              string
	DueDate                 string
}

// RaiseCAR creates an Open CAR and notifies its responsible manager.
func (s *Service) RaiseCAR(ctx context.Context, actor qms.Actor, input RaiseCARInput) (qms.CAR, error) {
	if err := s.beginWrite(ctx, actor); err != nil {
		return qms.CAR{}, err
	}
	if err := qms.RequireRole(actor, actor.Role.CanRaiseCAR(), "raise a CAR"); err != nil {
		return qms.CAR{}, classify(err)
	}

	finding := strings.TrimSpace(input.FindingDescription)
	if finding == "" {
		return qms.CAR{}, classify(qms.ErrFindingRequired)
	}
	severity, err := qms.ParseSeverity(input.Severity)
	if err != nil {
		return qms.CAR{}, classify(err)
	}
	raised, err := qms.ParseDate(input.DateRaised)
	if err != nil {
		return qms.CAR{}, classify(fmt.Errorf("date_raised: %w", err))
	}
	if raised.IsZero() {
		raised = s.today()
	}
	due, err := qms.ParseDate(input.DueDate)
	if err != nil {
		return qms.CAR{}, classify(fmt.Errorf("due_date: %w", err))
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = s.newID("CAR")
	}

	now := s.nowUTC()
	car := qms.CAR{
		ID:                      id,
		Title:                   qms.DefaultCARTitle(input.Title, finding, id),
		FindingDescription:      finding,
		QMSClause:               strings.TrimSpace(input.QMSClause),
		Severity:                severity,
		Status:                  qms.CARStatusOpen,
		Department:              strings.TrimSpace(input.Department),
		ResponsibleManager:      strings.TrimSpace(input.ResponsibleManager),
		ResponsibleManagerEmail: strings.TrimSpace(input.ResponsibleManagerEmail),
		DateRaised:              raised,
		DueDate:                 due,
		RaisedBy:                actor.ID,
		RaisedByName:            actor.DisplayName(),
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.capa"),
		slog.String("op", "raise_car"),
		slog.String("car_id", car.ID),
		slog.String("actor", actor.ID),
	)

	if err := s.inTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetCAR(txCtx, car.ID); err == nil {
			return errs.Validation(fmt.Errorf("car %s already exists", car.ID))
		} else if !errors.Is(err, ports.ErrRecordNotFound) {
			return err
		}
		return s.repo.SaveCAR(txCtx, car)
	}); err != nil {
		return qms.CAR{}, classify(err)
	}

	logging.Info(logCtx, "car raised", slog.String("severity", string(car.Severity)))
	s.observeTransition("raise_car", car.Status)
	s.afterWrite(logCtx, actor, change{action: qms.ActionCreate, table: qms.TableCARs, id: car.ID, title: car.Title, after: car})

	email := car.ResponsibleManagerEmail
	if email == "" {
		email = s.rosterEmail(logCtx, car.ResponsibleManager)
	}
	s.notify(logCtx, qms.Notification{Type: qms.EventNewCAR, Record: car, Recipients: recipients(email)}, true)
	return car, nil
}

type EditCARInput struct {
	ID    string
	Patch qms.CARPatch
}

// EditCAR applies a field edit. The status is never touched here.
func (s *Service) EditCAR(ctx context.Context, actor qms.Actor, input EditCARInput) (qms.CAR, error) {
	if err := s.beginWrite(ctx, actor); err != nil {
		return qms.CAR{}, err
	}
	if err := qms.RequireRole(actor, actor.Role.CanEditRecords(), "edit a CAR"); err != nil {
		return qms.CAR{}, classify(err)
	}
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return qms.CAR{}, errs.Validation(errIDRequired)
	}

	var before, after qms.CAR
	if err := s.inTx(ctx, func(txCtx context.Context) error {
		var err error
		before, err = s.repo.GetCAR(txCtx, id)
		if err != nil {
			return err
		}
		after = input.Patch.Apply(before)
		if after.FindingDescription == "" {
			return qms.ErrFindingRequired
		}
		if after.Severity != before.Severity {
			if _, err := qms.ParseSeverity(string(after.Severity)); err != nil {
				return err
			}
		}
		after.Title = qms.DefaultCARTitle(after.Title, after.FindingDescription, after.ID)
		after.UpdatedAt = s.nowUTC()
		return s.repo.SaveCAR(txCtx, after)
	}); err != nil {
		return qms.CAR{}, classify(err)
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.capa"),
		slog.String("op", "edit_car"),
		slog.String("car_id", id),
		slog.String("actor", actor.ID),
	)
	logging.Info(logCtx, "car updated")
	s.afterWrite(logCtx, actor, change{action: qms.ActionUpdate, table: qms.TableCARs, id: id, title: after.Title, before: before, after: after})
	return after, nil
}

// DeleteCAR removes a CAR with its CAP and verification. Admin only.
func (s *Service) DeleteCAR(ctx context.Context, actor qms.Actor, id string) error {
	if err := s.beginWrite(ctx, actor); err != nil {
		return err
	}
	if err := qms.RequireRole(actor, actor.Role.CanDelete(), "delete a CAR"); err != nil {
		return classify(err)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return errs.Validation(errIDRequired)
	}

	var before qms.CAR
	if err := s.inTx(ctx, func(txCtx context.Context) error {
		var err error
		if before, err = s.repo.GetCAR(txCtx, id); err != nil {
			return err
		}
		return s.repo.DeleteCAR(txCtx, id)
	}); err != nil {
		return classify(err)
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.capa"),
		slog.String("op", "delete_car"),
		slog.String("car_id", id),
		slog.String("actor", actor.ID),
	)
	logging.Info(logCtx, "car deleted")
	s.afterWrite(logCtx, actor, change{action: qms.ActionDelete, table: qms.TableCARs, id: id, title: before.Title, before: before})
	return nil
}

// CARDetail is a CAR with its sub-entities; CAP and Verification are nil when absent.
type CARDetail struct {
	CAR            qms.CAR             `json:"car"`
	CAP            *qms.CAP            `json:"cap,omitempty"`
	Verification   *qms.Verification   `json:"verification,omitempty"`
	Due            qms.DueState        `json:"due_state"`
	Recommendation *qms.Recommendation `json:"recommendation,omitempty"`
}

func (s *Service) GetCAR(ctx context.Context, id string) (CARDetail, error) {
	if err := s.begin(ctx); err != nil {
		return CARDetail{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return CARDetail{}, errs.Validation(errIDRequired)
	}

	car, err := s.repo.GetCAR(ctx, id)
	if err != nil {
		return CARDetail{}, classify(err)
	}
	detail := CARDetail{CAR: car, Due: qms.Classify(car.DueDate, s.today())}
	if car.Status.IsTerminal() {
		detail.Due = qms.DueNone
	}

	plan, err := s.repo.GetCAPByCAR(ctx, id)
	switch {
	case err == nil:
		detail.CAP = &plan
	case !errors.Is(err, ports.ErrRecordNotFound):
		return CARDetail{}, classify(err)
	}

	v, err := s.repo.GetVerificationByCAR(ctx, id)
	switch {
	case err == nil:
		detail.Verification = &v
		rec := qms.Recommend(v.Checklist)
		detail.Recommendation = &rec
	case !errors.Is(err, ports.ErrRecordNotFound):
		return CARDetail{}, classify(err)
	}
	return detail, nil
}

type ListCARsFilter struct {
	Status string
	Search string
}

// ListCARs returns CARs newest first, optionally filtered by status and a
// case-insensitive search over the record's fields.
func (s *Service) ListCARs(ctx context.Context, filter ListCARsFilter) ([]qms.CAR, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	var status qms.CARStatus
	if strings.TrimSpace(filter.Status) != "" && !strings.EqualFold(strings.TrimSpace(filter.Status), "all") {
		parsed, err := qms.ParseCARStatus(filter.Status)
		if err != nil {
			return nil, classify(err)
		}
		status = parsed
	}

	cars, err := s.repo.ListCARs(ctx)
	if err != nil {
		return nil, classify(err)
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]qms.CAR, 0, len(cars))
	for _, car := range cars {
		if status != "" && car.Status != status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(snapshotJSON(car)), search) {
			continue
		}
		out = append(out, car)
	}
	return out, nil
}

func (s *Service) rosterEmail(ctx context.Context, roleTitle string) string {
	if strings.TrimSpace(roleTitle) == "" {
		return ""
	}
	roster, err := s.repo.ListManagers(ctx)
	if err != nil {
		logging.Warn(ctx, "load roster for recipients failed", slog.Any("err", errs.Loggable(err)))
		return ""
	}
	return roster.EmailFor(roleTitle)
}
