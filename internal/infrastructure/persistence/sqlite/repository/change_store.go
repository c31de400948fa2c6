package repository

import (
	"context"

	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/infrastructure/persistence/sqlite/model"
)

func (r *QMSRepository) AppendChange(ctx context.Context, entry qms.ChangeEntry) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.ChangeLog{
		ID:          entry.ID,
		ActorID:     entry.ActorID,
		ActorName:   entry.ActorName,
		Action:      string(entry.Action),
		RecordTable: entry.Table,
		RecordID:    entry.RecordID,
		RecordTitle: entry.RecordTitle,
		OldData:     entry.OldData,
		NewData:     entry.NewData,
		CreatedAt:   formatTime(entry.CreatedAt),
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Persistence(errs.Wrap(err, "insert change log entry"))
	}
	return nil
}

func (r *QMSRepository) ListChanges(ctx context.Context, limit int) ([]qms.ChangeEntry, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.ChangeLog{}).Order("created_at desc").Order("id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.ChangeLog
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Persistence(errs.Wrap(err, "query change log"))
	}

	items := make([]qms.ChangeEntry, 0, len(rows))
	for _, row := range rows {
		createdAt, err := parseTime(row.CreatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, qms.ChangeEntry{
			ID:          row.ID,
			ActorID:     row.ActorID,
			ActorName:   row.ActorName,
			Action:      qms.ChangeAction(row.Action),
			Table:       row.RecordTable,
			RecordID:    row.RecordID,
			RecordTitle: row.RecordTitle,
			OldData:     row.OldData,
			NewData:     row.NewData,
			CreatedAt:   createdAt,
		})
	}
	return items, nil
}
