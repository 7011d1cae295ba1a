package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/koban-io/koban/internal/common"
	"github.com/koban-io/koban/internal/model"
)

// Store loads and saves the application document through a Backend.
//
// Persistence is deliberately non-fatal: a document that fails to decode
// falls back to a fresh default, and a failed write degrades to persisting
// the theme alone while the in-memory state stays authoritative for the
// session. Callers never see storage errors from Save.
type Store struct {
	backend Backend
	log     *slog.Logger
	onSave  []func(*model.State)
}

// New creates a Store over the given backend.
func New(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{backend: backend, log: logger}
}

// Backend returns the underlying backend, for observers that need its
// watch path or signal value.
func (s *Store) Backend() Backend {
	return s.backend
}

// OnSave registers a hook invoked after every successful save, with the
// saved state. Used to broadcast to other contexts.
func (s *Store) OnSave(fn func(*model.State)) {
	s.onSave = append(s.onSave, fn)
}

// Load deserializes the last-saved document. A missing or corrupt document
// yields a fresh default state; Load only fails on backend I/O errors that
// are not simple absence.
func (s *Store) Load(ctx context.Context) (*model.State, error) {
	data, err := s.backend.Read(ctx)
	if errors.Is(err, common.ErrNotFound) {
		s.log.Debug("no persisted document, starting fresh")
		return model.NewState(), nil
	}
	if err != nil {
		return nil, err
	}

	state, err := DecodeDocument(data)
	if err != nil {
		s.log.Warn("persisted document is corrupt, starting fresh", "error", err)
		return model.NewState(), nil
	}
	return state, nil
}

// Save stamps the state with a fresh logical timestamp, writes the whole
// document, writes the signal value, and invokes the save hooks. Write
// failures are logged and degrade to a theme-only document; they are never
// returned to the caller.
func (s *Store) Save(ctx context.Context, state *model.State) {
	state.LastUpdated = s.stamp(state.LastUpdated)

	data, err := EncodeDocument(state)
	if err != nil {
		s.log.Error("failed to encode document", "error", err)
		return
	}

	if err := s.backend.Write(ctx, data); err != nil {
		s.log.Error("failed to persist document, state kept in memory", "error", err)
		s.saveDegraded(ctx, state)
		return
	}

	if err := s.backend.WriteSignal(ctx, state.LastUpdated); err != nil {
		s.log.Warn("failed to write save signal", "error", err)
	}

	for _, fn := range s.onSave {
		fn(state)
	}
}

// Wipe removes the persisted document entirely.
func (s *Store) Wipe(ctx context.Context) error {
	return s.backend.Delete(ctx)
}

// stamp returns a logical timestamp strictly greater than the previous one,
// even when saves land within the same millisecond.
func (s *Store) stamp(prev int64) int64 {
	now := time.Now().UnixMilli()
	if now <= prev {
		now = prev + 1
	}
	return now
}

// saveDegraded tries to keep at least the theme across sessions when the
// full document cannot be written.
func (s *Store) saveDegraded(ctx context.Context, state *model.State) {
	minimal, err := json.Marshal(map[string]any{
		"theme":       state.Theme,
		"lastUpdated": state.LastUpdated,
	})
	if err != nil {
		return
	}
	if err := s.backend.Write(ctx, minimal); err != nil {
		s.log.Error("degraded save failed as well", "error", err)
	}
}
