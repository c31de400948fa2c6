package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"aeroqualify/internal/bootstrap/logging"
	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/ports"
)

type EmailOptions struct {
	Endpoint   string
	APIKey     string
	FromEmail  string
	TeamEmails []string
	Timeout    time.Duration
}

// EmailNotifier posts rendered messages to a Resend-compatible e-mail API.
type EmailNotifier struct {
	opts   EmailOptions
	client *http.Client
}

var _ ports.Notifier = (*EmailNotifier)(nil)

func NewEmailNotifier(opts EmailOptions, client *http.Client) *EmailNotifier {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &EmailNotifier{opts: opts, client: client}
}

type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (n *EmailNotifier) Notify(ctx context.Context, note qms.Notification) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "notify.email"),
		slog.String("event", string(note.Type)),
	)

	msg, err := Render(note)
	if err != nil {
		return err
	}

	to := MergeRecipients(n.opts.TeamEmails, note.Recipients)
	if len(to) == 0 {
		logging.Info(logCtx, "notification skipped, no recipients")
		return nil
	}
	if strings.TrimSpace(n.opts.APIKey) == "" {
		logging.Warn(logCtx, "notification skipped, notify.api_key is not set", slog.Int("recipients", len(to)))
		return nil
	}

	body, err := json.Marshal(emailRequest{From: n.opts.FromEmail, To: to, Subject: msg.Subject, HTML: msg.HTML})
	if err != nil {
		return errs.Wrap(err, "encode email request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		return errs.Wrap(err, "build email request")
	}
	req.Header.Set("Authorization", "Bearer "+n.opts.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return errs.Wrap(err, "send email")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	logging.Info(logCtx, "notification sent", slog.Int("recipients", len(to)), slog.String("subject", msg.Subject))
	return nil
}
