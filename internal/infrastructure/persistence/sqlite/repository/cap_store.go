package repository

import (
	"context"

	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/infrastructure/persistence/sqlite/model"
)

func (r *QMSRepository) ListCAPs(ctx context.Context) ([]qms.CAP, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.CAP
	if err := db.Order("submitted_at desc").Find(&rows).Error; err != nil {
		return nil, errs.Persistence(errs.Wrap(err, "query caps"))
	}

	items := make([]qms.CAP, 0, len(rows))
	for _, row := range rows {
		c, err := mapCAP(row)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, nil
}

func (r *QMSRepository) GetCAPByCAR(ctx context.Context, carID string) (qms.CAP, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return qms.CAP{}, err
	}

	var row model.CAP
	if err := db.Where("car_id = ?", carID).Take(&row).Error; err != nil {
		return qms.CAP{}, takeError(err, "cap for car", carID)
	}
	return mapCAP(row)
}

func (r *QMSRepository) SaveCAP(ctx context.Context, c qms.CAP) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row, err := capRow(c)
	if err != nil {
		return err
	}
	if err := db.Clauses(upsertOn("car_id")).Create(&row).Error; err != nil {
		return errs.Persistence(errs.Wrapf(err, "upsert cap for car %q", c.CARID))
	}
	return nil
}

func capRow(c qms.CAP) (model.CAP, error) {
	files, err := qms.EncodeEvidence(c.EvidenceFiles)
	if err != nil {
		return model.CAP{}, errs.Wrap(err, "encode evidence files")
	}
	return model.CAP{
		ID:                c.ID,
		CARID:             c.CARID,
		ImmediateAction:   c.ImmediateAction,
		RootCauseAnalysis: c.RootCauseAnalysis,
		CorrectiveAction:  c.CorrectiveAction,
		PreventiveAction:  c.PreventiveAction,
		EvidenceFiles:     &files,
		EvidenceFilename:  c.EvidenceFilename,
		EvidenceURL:       c.EvidenceURL,
		Status:            string(c.Status),
		SubmittedBy:       c.SubmittedBy,
		SubmittedByName:   c.SubmittedByName,
		SubmittedAt:       formatTime(c.SubmittedAt),
	}, nil
}

// mapCAP is the read boundary where legacy single-file evidence is normalized.
func mapCAP(row model.CAP) (qms.CAP, error) {
	submittedAt, err := parseTime(row.SubmittedAt)
	if err != nil {
		return qms.CAP{}, err
	}
	return qms.CAP{
		ID:                row.ID,
		CARID:             row.CARID,
		ImmediateAction:   row.ImmediateAction,
		RootCauseAnalysis: row.RootCauseAnalysis,
		CorrectiveAction:  row.CorrectiveAction,
		PreventiveAction:  row.PreventiveAction,
		EvidenceFiles: qms.NormalizeEvidence(qms.LegacyEvidence{
			FilesJSON: row.EvidenceFiles,
			Filename:  row.EvidenceFilename,
			URL:       row.EvidenceURL,
		}),
		EvidenceFilename: row.EvidenceFilename,
		EvidenceURL:      row.EvidenceURL,
		Status:           qms.CAPStatus(row.Status),
		SubmittedBy:      row.SubmittedBy,
		SubmittedByName:  row.SubmittedByName,
		SubmittedAt:      submittedAt,
	}, nil
}
