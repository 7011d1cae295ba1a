package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koban-io/koban/internal/common"
	"github.com/koban-io/koban/internal/ledger"
	"github.com/koban-io/koban/internal/model"
	"github.com/koban-io/koban/internal/storage"
)

func TestMessageRoundTrip(t *testing.T) {
	state := model.NewState()
	state.Theme = model.ThemeLight
	state.LastUpdated = 1234567890

	data, err := Encode(state)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.Equal(t, model.ThemeLight, decoded.Theme)
	assert.Equal(t, int64(1234567890), decoded.LastUpdated)
}

func TestDecodeIgnoresOtherMessageTypes(t *testing.T) {
	decoded, err := Decode([]byte(`{"type":"ping"}`))
	require.NoError(t, err)
	assert.Nil(t, decoded)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)
}

// signalBackend is an in-memory backend with no watchable path, forcing the
// watcher onto its polling fallback.
type signalBackend struct {
	mu     sync.Mutex
	data   []byte
	signal int64
	hasSig bool
}

func (b *signalBackend) Read(context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return nil, common.ErrNotFound
	}
	return b.data, nil
}

func (b *signalBackend) Write(_ context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = data
	return nil
}

func (b *signalBackend) ReadSignal(context.Context) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.hasSig {
		return 0, common.ErrNotFound
	}
	return b.signal, nil
}

func (b *signalBackend) WriteSignal(_ context.Context, ts int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.signal = ts
	b.hasSig = true
	return nil
}

func (b *signalBackend) Delete(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = nil
	b.hasSig = false
	return nil
}

func (b *signalBackend) WatchPath() string { return "" }
func (b *signalBackend) Close() error      { return nil }

func TestWatcherPollsSignalAdvances(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := &signalBackend{}
	require.NoError(t, backend.WriteSignal(ctx, 100))

	w := NewWatcher(backend, slog.Default())
	w.interval = 10 * time.Millisecond

	changed := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	// Signal moving backwards or staying put must not fire.
	require.NoError(t, backend.WriteSignal(ctx, 100))
	select {
	case <-changed:
		t.Fatal("onChange fired without the signal advancing")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, backend.WriteSignal(ctx, 200))
	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("onChange not invoked after signal advance")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatcherFileBackend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, err := storage.NewFileBackend(t.TempDir())
	require.NoError(t, err)

	w := NewWatcher(backend, slog.Default())
	w.interval = 10 * time.Millisecond

	changed := make(chan struct{}, 1)
	go func() {
		_ = w.Watch(ctx, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	// Give the watch a moment to establish before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, backend.WriteSignal(ctx, time.Now().UnixMilli()))

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("signal write not observed")
	}
}

// captureBus records published states and hands injected ones to the
// subscriber.
type captureBus struct {
	mu        sync.Mutex
	published []*model.State
}

func (b *captureBus) Publish(_ context.Context, state *model.State) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, state.Clone())
	return nil
}

func (b *captureBus) Subscribe(ctx context.Context, _ func(*model.State)) error {
	<-ctx.Done()
	return ctx.Err()
}

func (b *captureBus) Close() error { return nil }

func (b *captureBus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.published)
}

func newSyncedLedger(t *testing.T, bus Bus) (*ledger.Ledger, *storage.Store, *Syncer) {
	t.Helper()

	backend, err := storage.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	store := storage.New(backend, slog.Default())
	l := ledger.New(model.NewState(), store, slog.Default())
	return l, store, NewSyncer(l, store, bus, slog.Default())
}

func TestSyncerPublishesOnSave(t *testing.T) {
	ctx := context.Background()
	bus := &captureBus{}
	l, _, _ := newSyncedLedger(t, bus)

	require.NoError(t, l.SetTheme(ctx, model.ThemeLight))
	assert.Equal(t, 1, bus.count())

	require.NoError(t, l.SetGoal(ctx, model.Goal{Income: 300000, Rate: 20}))
	assert.Equal(t, 2, bus.count())
}

func TestSyncerWithoutBus(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newSyncedLedger(t, nil)

	// Saves must not panic with no bus configured.
	require.NoError(t, l.SetTheme(ctx, model.ThemeLight))
}

func TestSyncerAppliesIncoming(t *testing.T) {
	ctx := context.Background()
	l, _, s := newSyncedLedger(t, nil)

	require.NoError(t, l.SetTheme(ctx, model.ThemeDark))
	localStamp := l.Snapshot().LastUpdated

	var applied *model.State
	s.OnApply(func(state *model.State) { applied = state })

	newer := model.NewState()
	newer.Theme = model.ThemeLight
	newer.LastUpdated = localStamp + 500
	s.handleIncoming(newer)

	assert.Equal(t, model.ThemeLight, l.Snapshot().Theme)
	require.NotNil(t, applied)
	assert.Equal(t, localStamp+500, applied.LastUpdated)

	// Stale states are dropped and do not reach the callback.
	applied = nil
	stale := model.NewState()
	stale.LastUpdated = localStamp - 500
	s.handleIncoming(stale)
	assert.Nil(t, applied)
	assert.Equal(t, model.ThemeLight, l.Snapshot().Theme)
}

func TestSyncerObservesStorageSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend := &signalBackend{}
	store := storage.New(backend, slog.Default())
	l := ledger.New(model.NewState(), store, slog.Default())
	s := NewSyncer(l, store, nil, slog.Default())

	applied := make(chan *model.State, 1)
	s.OnApply(func(state *model.State) {
		select {
		case applied <- state:
		default:
		}
	})

	go func() { _ = s.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)

	// Another context writes a newer document and bumps the signal.
	remote := model.NewState()
	remote.Theme = model.ThemeLight
	remote.LastUpdated = time.Now().UnixMilli() + 1000
	data, err := storage.EncodeDocument(remote)
	require.NoError(t, err)
	require.NoError(t, backend.Write(ctx, data))
	require.NoError(t, backend.WriteSignal(ctx, remote.LastUpdated))

	select {
	case state := <-applied:
		assert.Equal(t, model.ThemeLight, state.Theme)
	case <-time.After(5 * time.Second):
		t.Fatal("remote save not observed via signal")
	}
	assert.Equal(t, model.ThemeLight, l.Snapshot().Theme)
}
