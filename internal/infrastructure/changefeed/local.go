package changefeed

import (
	"context"
	"errors"
	"sync"

	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
	"aeroqualify/internal/ports"
)

// LocalFeed fans events out to subscribers of the same process.
// Handlers run synchronously on the publishing goroutine.
type LocalFeed struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]func(qms.ChangeEvent)
}

var _ ports.ChangeFeed = (*LocalFeed)(nil)

func NewLocalFeed() *LocalFeed {
	return &LocalFeed{handlers: make(map[int]func(qms.ChangeEvent))}
}

func (f *LocalFeed) Publish(ctx context.Context, event qms.ChangeEvent) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	f.mu.RLock()
	handlers := make([]func(qms.ChangeEvent), 0, len(f.handlers))
	for _, h := range f.handlers {
		handlers = append(handlers, h)
	}
	f.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
	return nil
}

func (f *LocalFeed) Subscribe(ctx context.Context, handler func(qms.ChangeEvent)) (func(), error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if handler == nil {
		return nil, errors.New("handler is required")
	}

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.handlers[id] = handler
	f.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.handlers, id)
			f.mu.Unlock()
		})
	}
	go func() {
		<-ctx.Done()
		stop()
	}()
	return stop, nil
}
