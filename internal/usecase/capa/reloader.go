package capa

import (
	"context"
	"errors"
	"log/slog"

	"aeroqualify/internal/bootstrap/logging"
	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
)

// WatchChanges subscribes to the change feed and calls onReload with a full
// dashboard rebuilt from a fresh snapshot. Bursts of events collapse into a
// single reload. It blocks until ctx is done.
func (s *Service) WatchChanges(ctx context.Context, onReload func(DashboardReport)) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	if s.feed == nil {
		return errors.New("change feed is required")
	}
	if onReload == nil {
		return errors.New("reload handler is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.capa"), slog.String("op", "watch_changes"))

	pending := make(chan qms.ChangeEvent, 1)
	stop, err := s.feed.Subscribe(ctx, func(event qms.ChangeEvent) {
		select {
		case pending <- event:
		default:
		}
	})
	if err != nil {
		return errs.Wrap(err, "subscribe change feed")
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-pending:
			ov, err := s.LoadSnapshot(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logging.Warn(logCtx, "reload after change failed", slog.Any("err", errs.Loggable(err)))
				continue
			}
			logging.Info(logCtx, "reloaded after change",
				slog.String("table", event.Table),
				slog.String("record_id", event.RecordID),
			)
			onReload(s.dashboardFrom(ov))
		}
	}
}
