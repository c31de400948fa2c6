package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"

	"aeroqualify/internal/bootstrap/logging"
	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/ports"
)

const DefaultSubject = "aeroqualify.changes"

// NATSFeed carries change events between processes sharing one database,
// e.g. the API server and a console.
type NATSFeed struct {
	conn    *nats.Conn
	subject string
}

var _ ports.ChangeFeed = (*NATSFeed)(nil)

func DialNATS(ctx context.Context, url string, subject string) (*NATSFeed, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("nats url is required")
	}

	conn, err := nats.Connect(url, nats.Name("aeroqualify"))
	if err != nil {
		return nil, errs.Wrap(err, "connect nats")
	}
	if strings.TrimSpace(subject) == "" {
		subject = DefaultSubject
	}

	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "changefeed.nats")),
		"nats connected",
		slog.String("url", conn.ConnectedUrlRedacted()),
		slog.String("subject", subject),
	)
	return &NATSFeed{conn: conn, subject: subject}, nil
}

func (f *NATSFeed) Publish(ctx context.Context, event qms.ChangeEvent) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errs.Wrap(err, "encode change event")
	}
	if err := f.conn.Publish(f.subject, payload); err != nil {
		return errs.Wrap(err, "publish change event")
	}
	return nil
}

func (f *NATSFeed) Subscribe(ctx context.Context, handler func(qms.ChangeEvent)) (func(), error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if handler == nil {
		return nil, errors.New("handler is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "changefeed.nats"))
	sub, err := f.conn.Subscribe(f.subject, func(msg *nats.Msg) {
		var event qms.ChangeEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logging.Warn(logCtx, "drop malformed change event", slog.Any("err", errs.Loggable(err)))
			return
		}
		handler(event)
	})
	if err != nil {
		return nil, errs.Wrap(err, "subscribe change events")
	}

	stop := func() {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) && !errors.Is(err, nats.ErrBadSubscription) {
			logging.Warn(logCtx, "unsubscribe change events failed", slog.Any("err", errs.Loggable(err)))
		}
	}
	go func() {
		<-ctx.Done()
		stop()
	}()
	return stop, nil
}

// Close drains pending messages and closes the connection.
func (f *NATSFeed) Close() error {
	if f == nil || f.conn == nil {
		return nil
	}
	return f.conn.Drain()
}
