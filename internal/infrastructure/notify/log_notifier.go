package notify

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"aeroqualify/internal/bootstrap/logging"
	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/ports"
)

// LogNotifier renders the message and writes it to the log instead of sending it.
// It is the default driver for local installs.
type LogNotifier struct {
	teamEmails []string
}

var _ ports.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(teamEmails []string) *LogNotifier {
	return &LogNotifier{teamEmails: teamEmails}
}

func (n *LogNotifier) Notify(ctx context.Context, note qms.Notification) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	msg, err := Render(note)
	if err != nil {
		return err
	}
	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "notify.log")),
		"notification",
		slog.String("event", string(note.Type)),
		slog.String("to", strings.Join(MergeRecipients(n.teamEmails, note.Recipients), ",")),
		slog.String("subject", msg.Subject),
	)
	return nil
}
