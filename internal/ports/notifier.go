package ports

import (
	"context"

	"aeroqualify/internal/domain/qms"
)

// Notifier delivers lifecycle notifications. Callers treat every error as
// best-effort: it is logged and never rolls back the triggering write.
type Notifier interface {
	Notify(ctx context.Context, n qms.Notification) error
}
