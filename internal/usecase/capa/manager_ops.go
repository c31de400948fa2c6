package capa

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"aeroqualify/internal/bootstrap/logging"
	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
)

// RosterActor is the identity used when the roster file watcher applies changes.
var RosterActor = qms.Actor{ID: "system:roster", Name: "Roster file", Role: qms.RoleAdmin}

// SetManager upserts one roster row by role title. Admin only.
func (s *Service) SetManager(ctx context.Context, actor qms.Actor, m qms.ResponsibleManager) (qms.ResponsibleManager, error) {
	saved, err := s.ApplyRoster(ctx, actor, qms.Roster{m})
	if err != nil {
		return qms.ResponsibleManager{}, err
	}
	return saved[0], nil
}

// ApplyRoster upserts every row of roster in one transaction. Rows missing
// from roster are left in place.
func (s *Service) ApplyRoster(ctx context.Context, actor qms.Actor, roster qms.Roster) (qms.Roster, error) {
	if err := s.beginWrite(ctx, actor); err != nil {
		return nil, err
	}
	if err := qms.RequireRole(actor, actor.Role.CanDelete(), "edit responsible managers"); err != nil {
		return nil, classify(err)
	}
	if len(roster) == 0 {
		return nil, errs.Validation(errors.New("roster is empty"))
	}

	saved := make(qms.Roster, 0, len(roster))
	var changes []change
	if err := s.inTx(ctx, func(txCtx context.Context) error {
		saved = saved[:0]
		changes = changes[:0]
		current, err := s.repo.ListManagers(txCtx)
		if err != nil {
			return err
		}
		for _, m := range roster {
			m.RoleTitle = strings.TrimSpace(m.RoleTitle)
			m.PersonName = strings.TrimSpace(m.PersonName)
			m.Email = strings.TrimSpace(m.Email)
			if m.RoleTitle == "" {
				return errs.Validation(errors.New("role_title is required"))
			}

			c := change{action: qms.ActionCreate, table: qms.TableManagers, title: m.RoleTitle}
			if existing, ok := current.FindByRoleTitle(m.RoleTitle); ok {
				m.ID = existing.ID
				m.RoleTitle = existing.RoleTitle
				if existing == m {
					saved = append(saved, m)
					continue
				}
				c.action = qms.ActionUpdate
				c.before = existing
			} else if strings.TrimSpace(m.ID) == "" {
				m.ID = s.newID("RM")
			}

			if err := s.repo.SaveManager(txCtx, m); err != nil {
				return err
			}
			c.id = m.ID
			c.after = m
			changes = append(changes, c)
			saved = append(saved, m)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.capa"),
		slog.String("op", "apply_roster"),
		slog.String("actor", actor.ID),
	)
	logging.Info(logCtx, "roster applied", slog.Int("rows", len(roster)), slog.Int("changed", len(changes)))
	for _, c := range changes {
		s.recordChange(logCtx, actor, c)
	}
	if len(changes) > 0 {
		s.publish(logCtx, qms.ChangeEvent{Table: qms.TableManagers, Action: qms.ActionUpdate, At: s.nowUTC()})
	}
	return saved, nil
}

// DeleteManager removes a roster row by id. Admin only.
func (s *Service) DeleteManager(ctx context.Context, actor qms.Actor, id string) error {
	if err := s.beginWrite(ctx, actor); err != nil {
		return err
	}
	if err := qms.RequireRole(actor, actor.Role.CanDelete(), "delete a responsible manager"); err != nil {
		return classify(err)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return errs.Validation(errIDRequired)
	}

	if err := s.inTx(ctx, func(txCtx context.Context) error {
		return s.repo.DeleteManager(txCtx, id)
	}); err != nil {
		return err
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.capa"),
		slog.String("op", "delete_manager"),
		slog.String("manager_id", id),
		slog.String("actor", actor.ID),
	)
	logging.Info(logCtx, "responsible manager deleted")
	s.afterWrite(logCtx, actor, change{action: qms.ActionDelete, table: qms.TableManagers, id: id, title: id})
	return nil
}

func (s *Service) ListManagers(ctx context.Context) (qms.Roster, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	roster, err := s.repo.ListManagers(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return roster, nil
}
