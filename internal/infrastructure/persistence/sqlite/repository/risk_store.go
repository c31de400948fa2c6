package repository

import (
	"context"

	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/infrastructure/persistence/sqlite/model"
)

func (r *QMSRepository) ListRisks(ctx context.Context) ([]qms.RiskEntry, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Risk
	if err := db.Order("created_at desc").Order("id desc").Find(&rows).Error; err != nil {
		return nil, errs.Persistence(errs.Wrap(err, "query risk register"))
	}

	items := make([]qms.RiskEntry, 0, len(rows))
	for _, row := range rows {
		risk, err := mapRisk(row)
		if err != nil {
			return nil, err
		}
		items = append(items, risk)
	}
	return items, nil
}

func (r *QMSRepository) GetRisk(ctx context.Context, id string) (qms.RiskEntry, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return qms.RiskEntry{}, err
	}

	var row model.Risk
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		return qms.RiskEntry{}, takeError(err, "risk", id)
	}
	return mapRisk(row)
}

func (r *QMSRepository) SaveRisk(ctx context.Context, risk qms.RiskEntry) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.Risk{
		ID:                 risk.ID,
		Category:           risk.Category,
		HazardDescription:  risk.HazardDescription,
		Consequence:        risk.Consequence,
		Severity:           risk.Severity,
		Likelihood:         risk.Likelihood,
		ExistingControls:   risk.ExistingControls,
		TreatmentAction:    risk.TreatmentAction,
		ResponsiblePerson:  risk.ResponsiblePerson,
		TargetDate:         risk.TargetDate.String(),
		ResidualSeverity:   risk.ResidualSeverity,
		ResidualLikelihood: risk.ResidualLikelihood,
		InherentIndex:      risk.InherentIndex,
		InherentRating:     string(risk.InherentRating),
		ResidualIndex:      risk.ResidualIndex,
		ResidualRating:     string(risk.ResidualRating),
		Status:             string(risk.Status),
		LinkedCARID:        risk.LinkedCARID,
		ReviewNotes:        risk.ReviewNotes,
		CreatedAt:          formatTime(risk.CreatedAt),
		UpdatedAt:          formatTime(risk.UpdatedAt),
	}
	if err := db.Clauses(upsertOn("id")).Create(&row).Error; err != nil {
		return errs.Persistence(errs.Wrapf(err, "upsert risk %q", risk.ID))
	}
	return nil
}

func (r *QMSRepository) DeleteRisk(ctx context.Context, id string) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}
	return deleteByID(db, &model.Risk{}, "risk", id)
}

func mapRisk(row model.Risk) (qms.RiskEntry, error) {
	target, err := parseDate(row.TargetDate)
	if err != nil {
		return qms.RiskEntry{}, err
	}
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return qms.RiskEntry{}, err
	}
	updatedAt, err := parseTime(row.UpdatedAt)
	if err != nil {
		return qms.RiskEntry{}, err
	}
	return qms.RiskEntry{
		ID:                 row.ID,
		Category:           row.Category,
		HazardDescription:  row.HazardDescription,
		Consequence:        row.Consequence,
		Severity:           row.Severity,
		Likelihood:         row.Likelihood,
		ExistingControls:   row.ExistingControls,
		TreatmentAction:    row.TreatmentAction,
		ResponsiblePerson:  row.ResponsiblePerson,
		TargetDate:         target,
		ResidualSeverity:   row.ResidualSeverity,
		ResidualLikelihood: row.ResidualLikelihood,
		InherentIndex:      row.InherentIndex,
		InherentRating:     qms.RiskBand(row.InherentRating),
		ResidualIndex:      row.ResidualIndex,
		ResidualRating:     qms.RiskBand(row.ResidualRating),
		Status:             qms.RiskStatus(row.Status),
		LinkedCARID:        row.LinkedCARID,
		ReviewNotes:        row.ReviewNotes,
		CreatedAt:          createdAt,
		UpdatedAt:          updatedAt,
	}, nil
}
