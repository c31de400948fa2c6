package capa

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"aeroqualify/internal/bootstrap/logging"
	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
)

// notifyReplayTTL bounds how long an identical notification is suppressed.
const notifyReplayTTL = 24 * time.Hour

type change struct {
	action qms.ChangeAction
	table  string
	id     string
	title  string
	before any
	after  any
}

// afterWrite runs the best-effort tail of a committed mutation: change log,
// then change feed. Failures are logged and never returned.
func (s *Service) afterWrite(ctx context.Context, actor qms.Actor, c change) {
	s.recordChange(ctx, actor, c)
	s.publish(ctx, qms.ChangeEvent{Table: c.table, Action: c.action, RecordID: c.id, At: s.nowUTC()})
}

func (s *Service) recordChange(ctx context.Context, actor qms.Actor, c change) {
	entry := qms.ChangeEntry{
		ID:          uuid.NewString(),
		ActorID:     actor.ID,
		ActorName:   actor.DisplayName(),
		Action:      c.action,
		Table:       c.table,
		RecordID:    c.id,
		RecordTitle: c.title,
		OldData:     snapshotJSON(c.before),
		NewData:     snapshotJSON(c.after),
		CreatedAt:   s.nowUTC(),
	}
	if err := s.repo.AppendChange(ctx, entry); err != nil {
		logging.Warn(ctx, "append change log failed",
			slog.String("table", c.table),
			slog.String("record_id", c.id),
			slog.Any("err", errs.Loggable(err)),
		)
	}
}

func (s *Service) publish(ctx context.Context, event qms.ChangeEvent) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(ctx, event); err != nil {
		logging.Warn(ctx, "publish change event failed",
			slog.String("table", event.Table),
			slog.String("record_id", event.RecordID),
			slog.Any("err", errs.Loggable(err)),
		)
	}
}

// notify sends n. With suppressReplay set, a payload whose replay key is
// already cached is dropped, so resubmitting an unchanged form does not
// e-mail twice. The key is stored after every delivery either way.
func (s *Service) notify(ctx context.Context, n qms.Notification, suppressReplay bool) {
	if s.notifier == nil {
		return
	}

	key := replayKey(n)
	if suppressReplay && s.cache != nil {
		if _, found, err := s.cache.Get(ctx, key); err != nil {
			logging.Warn(ctx, "read notification replay key failed", slog.Any("err", errs.Loggable(err)))
		} else if found {
			logging.Info(ctx, "notification suppressed, identical payload already sent", slog.String("event", string(n.Type)))
			return
		}
	}

	if err := s.notifier.Notify(ctx, n); err != nil {
		s.observeNotification(n.Type, false)
		logging.Warn(ctx, "send notification failed",
			slog.String("event", string(n.Type)),
			slog.Any("err", errs.Loggable(err)),
		)
		return
	}
	s.observeNotification(n.Type, true)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, s.nowUTC().Format(time.RFC3339Nano), notifyReplayTTL); err != nil {
			logging.Warn(ctx, "store notification replay key failed", slog.Any("err", errs.Loggable(err)))
		}
	}
}

func (s *Service) observeNotification(event qms.EventType, delivered bool) {
	if s.metrics != nil {
		s.metrics.ObserveNotification(string(event), delivered)
	}
}

func (s *Service) observeTransition(operation string, status qms.CARStatus) {
	if s.metrics != nil {
		s.metrics.ObserveTransition(operation, string(status))
	}
}

func replayKey(n qms.Notification) string {
	raw, _ := json.Marshal(struct {
		Type       qms.EventType
		Record     any
		Recipients []string
	}{n.Type, replayPayload(n.Record), n.Recipients})
	sum := sha256.Sum256(raw)
	return "notify:" + string(n.Type) + ":" + hex.EncodeToString(sum[:12])
}

// replayPayload strips submission timestamps so an unchanged form hashes the same.
func replayPayload(record any) any {
	switch r := record.(type) {
	case qms.CAPNotice:
		r.SubmittedAt = time.Time{}
		return r
	case qms.Verification:
		r.VerifiedAt = time.Time{}
		return r
	case qms.CAR:
		r.UpdatedAt = time.Time{}
		return r
	default:
		return record
	}
}

func snapshotJSON(v any) string {
	if v == nil {
		return ""
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}

func recipients(emails ...string) []string {
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		if trimmed := strings.TrimSpace(e); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
