package roster

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"aeroqualify/internal/bootstrap/logging"
	"aeroqualify/internal/domain/qms"
	"aeroqualify/internal/errs"
)

const debounceDelay = 300 * time.Millisecond

// Watcher reloads the roster file whenever it changes and hands the parsed
// roster to onChange. Parse failures are logged and the previous roster stays.
type Watcher struct {
	path     string
	onChange func(context.Context, qms.Roster) error

	mu    sync.Mutex
	timer *time.Timer
}

func NewWatcher(path string, onChange func(context.Context, qms.Roster) error) *Watcher {
	return &Watcher{path: path, onChange: onChange}
}

// Run blocks until ctx is done. The parent directory is watched so editors
// that replace the file on save are still seen.
func (w *Watcher) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if w.onChange == nil {
		return errors.New("roster change handler is required")
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "roster.watcher"),
		slog.String("path", w.path),
	)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errs.Wrap(err, "create roster watcher")
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return errs.Wrap(err, "watch roster dir")
	}
	logging.Info(logCtx, "watching roster file")

	target := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.schedule(logCtx)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logging.Warn(logCtx, "roster watcher error", slog.Any("err", errs.Loggable(err)))
		}
	}
}

func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceDelay, func() { w.reload(ctx) })
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) reload(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	roster, err := LoadFile(w.path)
	if err != nil {
		logging.Warn(ctx, "roster reload failed, keeping previous roster", slog.Any("err", errs.Loggable(err)))
		return
	}
	if err := w.onChange(ctx, roster); err != nil {
		logging.Warn(ctx, "apply roster failed", slog.Any("err", errs.Loggable(err)))
		return
	}
	logging.Info(ctx, "roster reloaded", slog.Int("managers", len(roster)))
}
