package broadcast

import (
	"context"
	"log/slog"

	"github.com/koban-io/koban/internal/ledger"
	"github.com/koban-io/koban/internal/model"
	"github.com/koban-io/koban/internal/storage"
)

// Syncer wires the ledger, the store and the channels together:
//
//   - local save → publish the snapshot on the bus (when one is configured);
//     the store itself already wrote the signal value
//   - bus message → apply last-writer-wins
//   - signal change → re-read the document from storage, apply LWW
//
// Convergence is eventual: two contexts saving within the same millisecond
// race, and whichever write a given reader observes last wins locally.
type Syncer struct {
	ledger  *ledger.Ledger
	store   *storage.Store
	bus     Bus // nil when no live channel is configured
	log     *slog.Logger
	onApply func(*model.State)
}

// NewSyncer creates a Syncer. bus may be nil.
func NewSyncer(l *ledger.Ledger, store *storage.Store, bus Bus, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Syncer{ledger: l, store: store, bus: bus, log: logger}

	store.OnSave(func(state *model.State) {
		if s.bus == nil {
			return
		}
		// Fire-and-forget: the signal value already covers observers that
		// miss the broadcast.
		if err := s.bus.Publish(context.Background(), state); err != nil {
			s.log.Warn("state broadcast failed", "error", err)
		}
	})

	return s
}

// OnApply registers a callback invoked after a remote state replaces the
// local one, with the accepted state. The CLI uses it to re-render.
func (s *Syncer) OnApply(fn func(*model.State)) {
	s.onApply = fn
}

// Run subscribes to both channels and blocks until ctx is done.
func (s *Syncer) Run(ctx context.Context) error {
	if s.bus != nil {
		go func() {
			if err := s.bus.Subscribe(ctx, s.handleIncoming); err != nil && ctx.Err() == nil {
				s.log.Warn("bus subscription ended", "error", err)
			}
		}()
	}

	watcher := NewWatcher(s.store.Backend(), s.log)
	return watcher.Watch(ctx, func() {
		state, err := s.store.Load(ctx)
		if err != nil {
			s.log.Warn("failed to reload state after signal", "error", err)
			return
		}
		s.handleIncoming(state)
	})
}

// handleIncoming applies a state received from either channel.
func (s *Syncer) handleIncoming(incoming *model.State) {
	if !s.ledger.ApplyRemote(incoming) {
		return
	}
	s.log.Info("remote state accepted", "lastUpdated", incoming.LastUpdated)
	if s.onApply != nil {
		s.onApply(incoming)
	}
}
