package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/koban-io/koban/internal/broadcast"
	"github.com/koban-io/koban/internal/config"
	"github.com/koban-io/koban/internal/ledger"
	"github.com/koban-io/koban/internal/recurring"
	"github.com/koban-io/koban/internal/storage"
	"github.com/koban-io/koban/internal/types"
)

// engine bundles the wired-up core: storage, ledger, and sync. One is built
// per command invocation; building it is the "application load" that also
// catches up recurring transactions.
type engine struct {
	settings config.Settings
	backend  storage.Backend
	store    *storage.Store
	ledger   *ledger.Ledger
	syncer   *broadcast.Syncer
	bus      broadcast.Bus
}

// openEngine loads the document, runs the recurring catch-up, and wires the
// broadcast hook. The AMQP bus is strictly optional: a broker that cannot be
// reached degrades to storage-signal sync with a warning.
func openEngine(ctx context.Context) (*engine, error) {
	settings, err := config.FromViper()
	if err != nil {
		return nil, err
	}

	log := slog.Default()

	var backend storage.Backend
	switch settings.Backend {
	case config.BackendSQLite:
		backend, err = storage.NewSQLiteBackend(filepath.Join(settings.DataDir, "koban.db"))
	default:
		backend, err = storage.NewFileBackend(settings.DataDir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	store := storage.New(backend, log)
	state, err := store.Load(ctx)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	led := ledger.New(state, store, log)

	var bus broadcast.Bus
	if settings.AMQPURL != "" {
		amqpBus, busErr := broadcast.NewAMQPBus(settings.AMQPURL, settings.Exchange, log)
		if busErr != nil {
			log.Warn("live sync unavailable, storage signals only", "error", busErr)
		} else {
			bus = amqpBus
		}
	}
	syncer := broadcast.NewSyncer(led, store, bus, log)

	// Catch up recurring transactions once per load.
	if _, err := recurring.New(led, log).CatchUp(ctx, types.Today()); err != nil {
		log.Warn("recurring catch-up incomplete", "error", err)
	}

	return &engine{
		settings: settings,
		backend:  backend,
		store:    store,
		ledger:   led,
		syncer:   syncer,
		bus:      bus,
	}, nil
}

func (e *engine) Close() {
	if e.bus != nil {
		_ = e.bus.Close()
	}
	_ = e.backend.Close()
}
