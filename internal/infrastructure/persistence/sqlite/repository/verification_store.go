package repository

import (
	"context"

	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/infrastructure/persistence/sqlite/model"
)

func (r *QMSRepository) ListVerifications(ctx context.Context) ([]qms.Verification, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Verification
	if err := db.Order("verified_at desc").Find(&rows).Error; err != nil {
		return nil, errs.Persistence(errs.Wrap(err, "query verifications"))
	}

	items := make([]qms.Verification, 0, len(rows))
	for _, row := range rows {
		v, err := mapVerification(row)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}

func (r *QMSRepository) GetVerificationByCAR(ctx context.Context, carID string) (qms.Verification, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return qms.Verification{}, err
	}

	var row model.Verification
	if err := db.Where("car_id = ?", carID).Take(&row).Error; err != nil {
		return qms.Verification{}, takeError(err, "verification for car", carID)
	}
	return mapVerification(row)
}

func (r *QMSRepository) SaveVerification(ctx context.Context, v qms.Verification) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.Verification{
		ID:                  v.ID,
		CARID:               v.CARID,
		ImmediateActionOK:   v.Checklist.ImmediateActionOK,
		RootCauseOK:         v.Checklist.RootCauseOK,
		CorrectiveActionOK:  v.Checklist.CorrectiveActionOK,
		PreventiveActionOK:  v.Checklist.PreventiveActionOK,
		EvidenceOK:          v.Checklist.EvidenceOK,
		RecurrencePrevented: v.Checklist.RecurrencePrevented,
		EffectivenessRating: string(v.EffectivenessRating),
		Status:              string(v.Status),
		VerifierComments:    v.VerifierComments,
		VerifiedBy:          v.VerifiedBy,
		VerifiedByName:      v.VerifiedByName,
		VerifiedAt:          formatTime(v.VerifiedAt),
	}
	if err := db.Clauses(upsertOn("car_id")).Create(&row).Error; err != nil {
		return errs.Persistence(errs.Wrapf(err, "upsert verification for car %q", v.CARID))
	}
	return nil
}

func mapVerification(row model.Verification) (qms.Verification, error) {
	verifiedAt, err := parseTime(row.VerifiedAt)
	if err != nil {
		return qms.Verification{}, err
	}
	return qms.Verification{
		ID:    row.ID,
		CARID: row.CARID,
		Checklist: qms.Checklist{
			ImmediateActionOK:   row.ImmediateActionOK,
			RootCauseOK:         row.RootCauseOK,
			CorrectiveActionOK:  row.CorrectiveActionOK,
			PreventiveActionOK:  row.PreventiveActionOK,
			EvidenceOK:          row.EvidenceOK,
			RecurrencePrevented: row.RecurrencePrevented,
		},
		EffectivenessRating: qms.Effectiveness(row.EffectivenessRating),
		Status:              qms.VerificationStatus(row.Status),
		VerifierComments:    row.VerifierComments,
		VerifiedBy:          row.VerifiedBy,
		VerifiedByName:      row.VerifiedByName,
		VerifiedAt:          verifiedAt,
	}, nil
}
