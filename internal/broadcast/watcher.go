package broadcast

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/koban-io/koban/internal/common"
	"github.com/koban-io/koban/internal/storage"
)

// defaultPollInterval is used when the backend has no watchable path.
const defaultPollInterval = 2 * time.Second

// Watcher observes the storage signal value and reports changes. It is the
// fallback channel for contexts without a live bus subscription: whenever
// the signal timestamp moves, the document is re-read from storage.
type Watcher struct {
	backend  storage.Backend
	interval time.Duration
	log      *slog.Logger
}

// NewWatcher creates a watcher over the store's backend.
func NewWatcher(backend storage.Backend, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{backend: backend, interval: defaultPollInterval, log: logger}
}

// Watch blocks until ctx is done, invoking onChange whenever the signal
// timestamp advances past the last value seen. It prefers filesystem
// notifications and falls back to polling when the backend has no watchable
// path or the notify watch cannot be established.
func (w *Watcher) Watch(ctx context.Context, onChange func()) error {
	lastSeen, err := w.backend.ReadSignal(ctx)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}

	check := func() {
		ts, err := w.backend.ReadSignal(ctx)
		if err != nil {
			if !errors.Is(err, common.ErrNotFound) {
				w.log.Warn("failed to read save signal", "error", err)
			}
			return
		}
		if ts > lastSeen {
			lastSeen = ts
			onChange()
		}
	}

	if path := w.backend.WatchPath(); path != "" {
		if err := w.watchPath(ctx, path, check); err == nil {
			return nil
		} else if errors.Is(err, context.Canceled) {
			return err
		} else {
			w.log.Warn("filesystem watch unavailable, polling instead", "error", err)
		}
	}

	return w.poll(ctx, check)
}

// watchPath watches the directory containing the signal file. The directory
// rather than the file itself, because atomic saves replace the file by
// rename and the old inode stops emitting events.
func (w *Watcher) watchPath(ctx context.Context, path string, check func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	name := filepath.Base(path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watch event channel closed")
			}
			if filepath.Base(event.Name) == name && event.Op.Has(fsnotify.Create|fsnotify.Write|fsnotify.Rename) {
				check()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watch error channel closed")
			}
			w.log.Warn("filesystem watch error", "error", err)
		}
	}
}

func (w *Watcher) poll(ctx context.Context, check func()) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			check()
		}
	}
}
