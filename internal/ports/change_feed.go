package ports

import (
	"context"

	"aeroqualify/internal/domain/qms"
)

// ChangePublisher announces that the record set changed.
type ChangePublisher interface {
	Publish(ctx context.Context, event qms.ChangeEvent) error
}

// ChangeSubscriber delivers change events until ctx is done or the
// returned stop func is called.
type ChangeSubscriber interface {
	Subscribe(ctx context.Context, handler func(qms.ChangeEvent)) (stop func(), err error)
}

type ChangeFeed interface {
	ChangePublisher
	ChangeSubscriber
}
