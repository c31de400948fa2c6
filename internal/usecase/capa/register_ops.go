package capa

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"aeroqualify/internal/bootstrap/logging"
	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
)

// RegisterBatch is the bulk import document. Every section is optional.
type RegisterBatch struct {
	Documents   []qms.Document   `json:"documents,omitempty" yaml:"documents"`
	FlightDocs  []qms.FlightDoc  `json:"flight_docs,omitempty" yaml:"flight_docs"`
	Audits      []qms.Audit      `json:"audits,omitempty" yaml:"audits"`
	Contractors []qms.Contractor `json:"contractors,omitempty" yaml:"contractors"`
	Risks       []qms.RiskEntry  `json:"risks,omitempty" yaml:"risks"`
}

func (b RegisterBatch) Len() int {
	return len(b.Documents) + len(b.FlightDocs) + len(b.Audits) + len(b.Contractors) + len(b.Risks)
}

// ParseRegisterBatch decodes a YAML import. Unknown keys are rejected.
func ParseRegisterBatch(raw []byte) (RegisterBatch, error) {
	var batch RegisterBatch
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&batch); err != nil && !errors.Is(err, io.EOF) {
		return RegisterBatch{}, errs.Validation(fmt.Errorf("decode register import: %w", err))
	}
	return batch, nil
}

type ImportSummary struct {
	Documents   int `json:"documents"`
	FlightDocs  int `json:"flight_docs"`
	Audits      int `json:"audits"`
	Contractors int `json:"contractors"`
	Risks       int `json:"risks"`
}

// SaveRegisters upserts every record of the batch in one transaction. The
// actor needs write access to each register the batch touches.
func (s *Service) SaveRegisters(ctx context.Context, actor qms.Actor, batch RegisterBatch) (ImportSummary, error) {
	if err := s.beginWrite(ctx, actor); err != nil {
		return ImportSummary{}, err
	}
	if batch.Len() == 0 {
		return ImportSummary{}, errs.Validation(errors.New("import contains no records"))
	}
	checks := []struct {
		kind qms.RegisterKind
		n    int
	}{
		{qms.RegisterDocuments, len(batch.Documents)},
		{qms.RegisterFlightDocs, len(batch.FlightDocs)},
		{qms.RegisterAudits, len(batch.Audits)},
		{qms.RegisterContractors, len(batch.Contractors)},
	}
	for _, c := range checks {
		if c.n > 0 {
			if err := qms.RequireRole(actor, actor.Role.CanEditRegister(c.kind), "edit "+string(c.kind)); err != nil {
				return ImportSummary{}, classify(err)
			}
		}
	}
	if len(batch.Risks) > 0 {
		if err := qms.RequireRole(actor, actor.Role.CanEditRisks(), "edit the risk register"); err != nil {
			return ImportSummary{}, classify(err)
		}
	}

	var changes []change
	if err := s.inTx(ctx, func(txCtx context.Context) error {
		changes = changes[:0]
		now := s.nowUTC()

		for i := range batch.Documents {
			d := &batch.Documents[i]
			d.ID = s.recordID(d.ID, qms.RegisterDocuments)
			d.UpdatedAt = now
			if err := s.repo.SaveDocument(txCtx, *d); err != nil {
				return errs.Wrapf(err, "save document %s", d.ID)
			}
			changes = append(changes, registerChange(qms.RegisterDocuments, d.ID, d.DisplayTitle(), *d))
		}
		for i := range batch.FlightDocs {
			d := &batch.FlightDocs[i]
			d.ID = s.recordID(d.ID, qms.RegisterFlightDocs)
			d.UpdatedAt = now
			if err := s.repo.SaveFlightDoc(txCtx, *d); err != nil {
				return errs.Wrapf(err, "save flight doc %s", d.ID)
			}
			changes = append(changes, registerChange(qms.RegisterFlightDocs, d.ID, d.DisplayTitle(), *d))
		}
		for i := range batch.Audits {
			a := &batch.Audits[i]
			a.ID = s.recordID(a.ID, qms.RegisterAudits)
			a.UpdatedAt = now
			if err := s.repo.SaveAudit(txCtx, *a); err != nil {
				return errs.Wrapf(err, "save audit %s", a.ID)
			}
			changes = append(changes, registerChange(qms.RegisterAudits, a.ID, a.DisplayTitle(), *a))
		}
		for i := range batch.Contractors {
			c := &batch.Contractors[i]
			c.ID = s.recordID(c.ID, qms.RegisterContractors)
			c.UpdatedAt = now
			if err := s.repo.SaveContractor(txCtx, *c); err != nil {
				return errs.Wrapf(err, "save contractor %s", c.ID)
			}
			changes = append(changes, registerChange(qms.RegisterContractors, c.ID, c.DisplayTitle(), *c))
		}
		for i := range batch.Risks {
			r := &batch.Risks[i]
			before, err := s.saveRiskTx(txCtx, r)
			if err != nil {
				return fmt.Errorf("risk %d: %w", i, err)
			}
			changes = append(changes, riskChange(before, *r))
		}
		return nil
	}); err != nil {
		return ImportSummary{}, err
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.capa"),
		slog.String("op", "save_registers"),
		slog.String("actor", actor.ID),
	)
	summary := ImportSummary{
		Documents:   len(batch.Documents),
		FlightDocs:  len(batch.FlightDocs),
		Audits:      len(batch.Audits),
		Contractors: len(batch.Contractors),
		Risks:       len(batch.Risks),
	}
	logging.Info(logCtx, "registers saved",
		slog.Int("documents", summary.Documents),
		slog.Int("flight_docs", summary.FlightDocs),
		slog.Int("audits", summary.Audits),
		slog.Int("contractors", summary.Contractors),
		slog.Int("risks", summary.Risks),
	)
	for _, c := range changes {
		s.recordChange(logCtx, actor, c)
	}
	// One reload per import is enough for subscribers.
	s.publish(logCtx, qms.ChangeEvent{Table: "registers", Action: qms.ActionUpdate, At: s.nowUTC()})
	return summary, nil
}

func (s *Service) recordID(id string, kind qms.RegisterKind) string {
	if trimmed := strings.TrimSpace(id); trimmed != "" {
		return trimmed
	}
	return s.newID(kind.IDPrefix())
}

func registerChange(kind qms.RegisterKind, id string, title string, after any) change {
	return change{action: qms.ActionUpdate, table: string(kind), id: id, title: title, after: after}
}

// DeleteRegisterRecord removes one row from a peripheral register. Admin only.
func (s *Service) DeleteRegisterRecord(ctx context.Context, actor qms.Actor, kind qms.RegisterKind, id string) error {
	if err := s.beginWrite(ctx, actor); err != nil {
		return err
	}
	if err := qms.RequireRole(actor, actor.Role.CanDelete(), "delete "+string(kind)); err != nil {
		return classify(err)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return errs.Validation(errIDRequired)
	}

	if err := s.inTx(ctx, func(txCtx context.Context) error {
		return s.repo.DeleteRegisterRecord(txCtx, kind, id)
	}); err != nil {
		return err
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.capa"),
		slog.String("op", "delete_register_record"),
		slog.String("register", string(kind)),
		slog.String("record_id", id),
		slog.String("actor", actor.ID),
	)
	logging.Info(logCtx, "register record deleted")
	s.afterWrite(logCtx, actor, change{action: qms.ActionDelete, table: string(kind), id: id, title: id})
	return nil
}

// ListRegister returns the rows of one register as its typed slice.
func (s *Service) ListRegister(ctx context.Context, kind qms.RegisterKind) (any, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	var (
		rows any
		err  error
	)
	switch kind {
	case qms.RegisterDocuments:
		rows, err = s.repo.ListDocuments(ctx)
	case qms.RegisterFlightDocs:
		rows, err = s.repo.ListFlightDocs(ctx)
	case qms.RegisterAudits:
		rows, err = s.repo.ListAudits(ctx)
	case qms.RegisterContractors:
		rows, err = s.repo.ListContractors(ctx)
	default:
		return nil, errs.Validation(fmt.Errorf("unknown register %q", kind))
	}
	if err != nil {
		return nil, classify(err)
	}
	return rows, nil
}
