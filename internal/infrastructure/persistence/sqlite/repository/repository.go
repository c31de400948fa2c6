package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/ports"
)

// QMSRepository is the gorm record store for every QMS table.
type QMSRepository struct {
	db *gorm.DB
}

var _ ports.QMSRepository = (*QMSRepository)(nil)

func NewQMSRepository(db *gorm.DB) *QMSRepository {
	return &QMSRepository{db: db}
}

func (r *QMSRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

// withTx runs fn inside the caller's transaction, or a new one when none is open.
func (r *QMSRepository) withTx(ctx context.Context, fn func(db *gorm.DB) error) error {
	if ports.TxFromContext(ctx) != nil {
		db, err := r.dbFromContext(ctx)
		if err != nil {
			return err
		}
		return fn(db)
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	return r.db.WithContext(ctx).Transaction(fn)
}

func upsertOn(column string) clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: column}},
		UpdateAll: true,
	}
}

func notFound(entity string, id string) error {
	return errs.NotFound(fmt.Errorf("%s %q: %w", entity, id, ports.ErrRecordNotFound))
}

func takeError(err error, entity string, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(entity, id)
	}
	return errs.Persistence(errs.Wrapf(err, "query %s %q", entity, id))
}

func deleteByID(db *gorm.DB, row any, entity string, id string) error {
	result := db.Where("id = ?", id).Delete(row)
	if result.Error != nil {
		return errs.Persistence(errs.Wrapf(result.Error, "delete %s %q", entity, id))
	}
	if result.RowsAffected == 0 {
		return notFound(entity, id)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, trimmed)
	if err != nil {
		return time.Time{}, errs.Wrapf(err, "parse stored timestamp %q", raw)
	}
	return t, nil
}

func parseDate(raw string) (qms.Date, error) {
	d, err := qms.ParseDate(raw)
	if err != nil {
		return qms.Date{}, errs.Wrap(err, "parse stored date")
	}
	return d, nil
}
