package repository

import (
	"context"
	"fmt"

	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/infrastructure/persistence/sqlite/model"
)

func (r *QMSRepository) ListDocuments(ctx context.Context) ([]qms.Document, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Document
	if err := db.Order("id asc").Find(&rows).Error; err != nil {
		return nil, errs.Persistence(errs.Wrap(err, "query documents"))
	}

	items := make([]qms.Document, 0, len(rows))
	for _, row := range rows {
		date, err := parseDate(row.Date)
		if err != nil {
			return nil, err
		}
		expiry, err := parseDate(row.ExpiryDate)
		if err != nil {
			return nil, err
		}
		updatedAt, err := parseTime(row.UpdatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, qms.Document{
			ID:         row.ID,
			Title:      row.Title,
			Rev:        row.Rev,
			Status:     row.Status,
			DocSection: row.DocSection,
			Category:   row.Category,
			Owner:      row.Owner,
			Date:       date,
			ExpiryDate: expiry,
			ApprovedBy: row.ApprovedBy,
			UpdatedAt:  updatedAt,
		})
	}
	return items, nil
}

func (r *QMSRepository) SaveDocument(ctx context.Context, doc qms.Document) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.Document{
		ID:         doc.ID,
		Title:      doc.Title,
		Rev:        doc.Rev,
		Status:     doc.Status,
		DocSection: doc.DocSection,
		Category:   doc.Category,
		Owner:      doc.Owner,
		Date:       doc.Date.String(),
		ExpiryDate: doc.ExpiryDate.String(),
		ApprovedBy: doc.ApprovedBy,
		UpdatedAt:  formatTime(doc.UpdatedAt),
	}
	if err := db.Clauses(upsertOn("id")).Create(&row).Error; err != nil {
		return errs.Persistence(errs.Wrapf(err, "upsert document %q", doc.ID))
	}
	return nil
}

func (r *QMSRepository) ListFlightDocs(ctx context.Context) ([]qms.FlightDoc, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.FlightDoc
	if err := db.Order("expiry_date asc").Order("id asc").Find(&rows).Error; err != nil {
		return nil, errs.Persistence(errs.Wrap(err, "query flight docs"))
	}

	items := make([]qms.FlightDoc, 0, len(rows))
	for _, row := range rows {
		issued, err := parseDate(row.IssueDate)
		if err != nil {
			return nil, err
		}
		expiry, err := parseDate(row.ExpiryDate)
		if err != nil {
			return nil, err
		}
		updatedAt, err := parseTime(row.UpdatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, qms.FlightDoc{
			ID:          row.ID,
			Title:       row.Title,
			DocType:     row.DocType,
			IssuingBody: row.IssuingBody,
			IssueDate:   issued,
			ExpiryDate:  expiry,
			Status:      row.Status,
			Notes:       row.Notes,
			UpdatedAt:   updatedAt,
		})
	}
	return items, nil
}

func (r *QMSRepository) SaveFlightDoc(ctx context.Context, doc qms.FlightDoc) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.FlightDoc{
		ID:          doc.ID,
		Title:       doc.Title,
		DocType:     doc.DocType,
		IssuingBody: doc.IssuingBody,
		IssueDate:   doc.IssueDate.String(),
		ExpiryDate:  doc.ExpiryDate.String(),
		Status:      doc.Status,
		Notes:       doc.Notes,
		UpdatedAt:   formatTime(doc.UpdatedAt),
	}
	if err := db.Clauses(upsertOn("id")).Create(&row).Error; err != nil {
		return errs.Persistence(errs.Wrapf(err, "upsert flight doc %q", doc.ID))
	}
	return nil
}

func (r *QMSRepository) ListAudits(ctx context.Context) ([]qms.Audit, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Audit
	if err := db.Order("date desc").Order("id asc").Find(&rows).Error; err != nil {
		return nil, errs.Persistence(errs.Wrap(err, "query audits"))
	}

	items := make([]qms.Audit, 0, len(rows))
	for _, row := range rows {
		date, err := parseDate(row.Date)
		if err != nil {
			return nil, err
		}
		updatedAt, err := parseTime(row.UpdatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, qms.Audit{
			ID:        row.ID,
			Title:     row.Title,
			Type:      row.Type,
			Status:    row.Status,
			Lead:      row.Lead,
			Scope:     row.Scope,
			Date:      date,
			Findings:  row.Findings,
			Obs:       row.Obs,
			UpdatedAt: updatedAt,
		})
	}
	return items, nil
}

func (r *QMSRepository) SaveAudit(ctx context.Context, audit qms.Audit) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.Audit{
		ID:        audit.ID,
		Title:     audit.Title,
		Type:      audit.Type,
		Status:    audit.Status,
		Lead:      audit.Lead,
		Scope:     audit.Scope,
		Date:      audit.Date.String(),
		Findings:  audit.Findings,
		Obs:       audit.Obs,
		UpdatedAt: formatTime(audit.UpdatedAt),
	}
	if err := db.Clauses(upsertOn("id")).Create(&row).Error; err != nil {
		return errs.Persistence(errs.Wrapf(err, "upsert audit %q", audit.ID))
	}
	return nil
}

func (r *QMSRepository) ListContractors(ctx context.Context) ([]qms.Contractor, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Contractor
	if err := db.Order("name asc").Find(&rows).Error; err != nil {
		return nil, errs.Persistence(errs.Wrap(err, "query contractors"))
	}

	items := make([]qms.Contractor, 0, len(rows))
	for _, row := range rows {
		last, err := parseDate(row.LastAudit)
		if err != nil {
			return nil, err
		}
		next, err := parseDate(row.NextAudit)
		if err != nil {
			return nil, err
		}
		updatedAt, err := parseTime(row.UpdatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, qms.Contractor{
			ID:        row.ID,
			Name:      row.Name,
			Category:  row.Category,
			Status:    row.Status,
			Rating:    row.Rating,
			Contact:   row.Contact,
			Country:   row.Country,
			LastAudit: last,
			NextAudit: next,
			UpdatedAt: updatedAt,
		})
	}
	return items, nil
}

func (r *QMSRepository) SaveContractor(ctx context.Context, c qms.Contractor) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.Contractor{
		ID:        c.ID,
		Name:      c.Name,
		Category:  c.Category,
		Status:    c.Status,
		Rating:    c.Rating,
		Contact:   c.Contact,
		Country:   c.Country,
		LastAudit: c.LastAudit.String(),
		NextAudit: c.NextAudit.String(),
		UpdatedAt: formatTime(c.UpdatedAt),
	}
	if err := db.Clauses(upsertOn("id")).Create(&row).Error; err != nil {
		return errs.Persistence(errs.Wrapf(err, "upsert contractor %q", c.ID))
	}
	return nil
}

func (r *QMSRepository) DeleteRegisterRecord(ctx context.Context, kind qms.RegisterKind, id string) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	switch kind {
	case qms.RegisterDocuments:
		return deleteByID(db, &model.Document{}, "document", id)
	case qms.RegisterFlightDocs:
		return deleteByID(db, &model.FlightDoc{}, "flight doc", id)
	case qms.RegisterAudits:
		return deleteByID(db, &model.Audit{}, "audit", id)
	case qms.RegisterContractors:
		return deleteByID(db, &model.Contractor{}, "contractor", id)
	default:
		return errs.Validation(fmt.Errorf("unknown register %q", kind))
	}
}
