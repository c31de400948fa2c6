package repository

import (
	"context"

	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/infrastructure/persistence/sqlite/model"
)

func (r *QMSRepository) ListManagers(ctx context.Context) (qms.Roster, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.ResponsibleManager
	if err := db.Order("role_title asc").Find(&rows).Error; err != nil {
		return nil, errs.Persistence(errs.Wrap(err, "query responsible managers"))
	}

	roster := make(qms.Roster, 0, len(rows))
	for _, row := range rows {
		roster = append(roster, qms.ResponsibleManager{
			ID:         row.ID,
			RoleTitle:  row.RoleTitle,
			PersonName: row.PersonName,
			Email:      row.Email,
		})
	}
	return roster, nil
}

// SaveManager upserts on role_title, so re-importing a roster keeps one row per role.
func (r *QMSRepository) SaveManager(ctx context.Context, m qms.ResponsibleManager) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.ResponsibleManager{
		ID:         m.ID,
		RoleTitle:  m.RoleTitle,
		PersonName: m.PersonName,
		Email:      m.Email,
	}
	if err := db.Clauses(upsertOn("role_title")).Create(&row).Error; err != nil {
		return errs.Persistence(errs.Wrapf(err, "upsert responsible manager %q", m.RoleTitle))
	}
	return nil
}

func (r *QMSRepository) DeleteManager(ctx context.Context, id string) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}
	return deleteByID(db, &model.ResponsibleManager{}, "responsible manager", id)
}
