package repository

import (
	"context"

	"gorm.io/gorm"

	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/infrastructure/persistence/sqlite/model"
)

func (r *QMSRepository) ListCARs(ctx context.Context) ([]qms.CAR, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.CAR
	if err := db.Order("created_at desc").Order("id desc").Find(&rows).Error; err != nil {
		return nil, errs.Persistence(errs.Wrap(err, "query cars"))
	}

	items := make([]qms.CAR, 0, len(rows))
	for _, row := range rows {
		car, err := mapCAR(row)
		if err != nil {
			return nil, err
		}
		items = append(items, car)
	}
	return items, nil
}

func (r *QMSRepository) GetCAR(ctx context.Context, id string) (qms.CAR, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return qms.CAR{}, err
	}

	var row model.CAR
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		return qms.CAR{}, takeError(err, "car", id)
	}
	return mapCAR(row)
}

func (r *QMSRepository) SaveCAR(ctx context.Context, car qms.CAR) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := carRow(car)
	if err := db.Clauses(upsertOn("id")).Create(&row).Error; err != nil {
		return errs.Persistence(errs.Wrapf(err, "upsert car %q", car.ID))
	}
	return nil
}

func (r *QMSRepository) DeleteCAR(ctx context.Context, id string) error {
	return r.withTx(ctx, func(db *gorm.DB) error {
		if err := db.Where("car_id = ?", id).Delete(&model.Verification{}).Error; err != nil {
			return errs.Persistence(errs.Wrapf(err, "delete verification of car %q", id))
		}
		if err := db.Where("car_id = ?", id).Delete(&model.CAP{}).Error; err != nil {
			return errs.Persistence(errs.Wrapf(err, "delete cap of car %q", id))
		}
		return deleteByID(db, &model.CAR{}, "car", id)
	})
}

func carRow(c qms.CAR) model.CAR {
	return model.CAR{
		ID:                      c.ID,
		Title:                   c.Title,
		FindingDescription:      c.FindingDescription,
		QMSClause:               c.QMSClause,
		Severity:                string(c.Severity),
		Status:                  string(c.Status),
		Department:              c.Department,
		ResponsibleManager:      c.ResponsibleManager,
		ResponsibleManagerEmail: c.ResponsibleManagerEmail,
		DateRaised:              c.DateRaised.String(),
		DueDate:                 c.DueDate.String(),
		RaisedBy:                c.RaisedBy,
		RaisedByName:            c.RaisedByName,
		CreatedAt:               formatTime(c.CreatedAt),
		UpdatedAt:               formatTime(c.UpdatedAt),
	}
}

func mapCAR(row model.CAR) (qms.CAR, error) {
	raised, err := parseDate(row.DateRaised)
	if err != nil {
		return qms.CAR{}, err
	}
	due, err := parseDate(row.DueDate)
	if err != nil {
		return qms.CAR{}, err
	}
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return qms.CAR{}, err
	}
	updatedAt, err := parseTime(row.UpdatedAt)
	if err != nil {
		return qms.CAR{}, err
	}

	return qms.CAR{
		ID:                      row.ID,
		Title:                   row.Title,
		FindingDescription:      row.FindingDescription,
		QMSClause:               row.QMSClause,
		Severity:                qms.Severity(row.Severity),
		Status:                  qms.CARStatus(row.Status),
		Department:              row.Department,
		ResponsibleManager:      row.ResponsibleManager,
		ResponsibleManagerEmail: row.ResponsibleManagerEmail,
		DateRaised:              raised,
		DueDate:                 due,
		RaisedBy:                row.RaisedBy,
		RaisedByName:            row.RaisedByName,
		CreatedAt:               createdAt,
		UpdatedAt:               updatedAt,
	}, nil
}
