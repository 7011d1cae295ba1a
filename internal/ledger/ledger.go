// Package ledger implements the mutable heart of koban: transaction CRUD
// over month buckets, budgets, categories and the savings goal, all backed
// by a single persisted document.
//
// Every mutation is atomic from the caller's point of view and triggers a
// whole-document save. Unknown ids are silent no-ops: callers are trusted to
// hold ids from a prior read, and a stale id just means another context got
// there first.
package ledger

import (
	"context"
	"log/slog"
	"sync"

	"github.com/koban-io/koban/internal/common"
	"github.com/koban-io/koban/internal/model"
	"github.com/koban-io/koban/internal/storage"
	"github.com/koban-io/koban/internal/types"
)

// Ledger owns the in-memory document and coordinates all writes to it. It is
// safe for concurrent use; the sync subscriber applies remote states from
// its own goroutine.
type Ledger struct {
	mu    sync.Mutex
	state *model.State
	store *storage.Store
	log   *slog.Logger
}

// New creates a Ledger over a loaded document.
func New(state *model.State, store *storage.Store, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	state.Normalize()
	return &Ledger{state: state, store: store, log: logger}
}

// Snapshot returns a deep copy of the current document for readers. Reports
// and exports work from snapshots so they never observe a half-applied
// mutation.
func (l *Ledger) Snapshot() *model.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Clone()
}

// Add validates a transaction and appends it to the bucket of its date's
// month, creating the bucket if absent. Unknown categories are registered.
func (l *Ledger) Add(ctx context.Context, tx model.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.state.EnsureCategory(tx.Category)
	month := tx.Date.Month()
	l.state.Transactions[month] = append(l.state.Transactions[month], tx)
	l.log.Debug("transaction added", "id", tx.ID, "month", month.String(), "amount", tx.Amount)
	l.store.Save(ctx, l.state)
	return nil
}

// TxPatch is a partial transaction update. Nil fields keep their current
// value.
type TxPatch struct {
	Type      *model.TxType
	Category  *string
	Amount    *int64
	Date      *types.Date
	Note      *string
	Recurring *model.Recurrence
	NextDue   *types.Date
}

// Update merges a patch into the transaction with the given id. When the
// patched date crosses into another month, the record moves to the new
// bucket; a transaction always lives in the bucket of its own date.
func (l *Ledger) Update(ctx context.Context, id string, patch TxPatch) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	month, idx, ok := l.find(id)
	if !ok {
		l.log.Debug("update of unknown transaction ignored", "id", id)
		return nil
	}

	updated := l.state.Transactions[month][idx].Clone()
	patch.apply(&updated)
	if err := updated.Validate(); err != nil {
		return err
	}

	l.state.EnsureCategory(updated.Category)

	newMonth := updated.Date.Month()
	if newMonth.Equal(month) {
		l.state.Transactions[month][idx] = updated
	} else {
		l.removeAt(month, idx)
		l.state.Transactions[newMonth] = append(l.state.Transactions[newMonth], updated)
	}

	l.store.Save(ctx, l.state)
	return nil
}

// Delete removes the transaction with the given id. The owning bucket is
// dropped entirely when it becomes empty.
func (l *Ledger) Delete(ctx context.Context, id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	month, idx, ok := l.find(id)
	if !ok {
		l.log.Debug("delete of unknown transaction ignored", "id", id)
		return
	}

	l.removeAt(month, idx)
	l.store.Save(ctx, l.state)
}

// All flattens every bucket into one sequence. No order is guaranteed.
func (l *Ledger) All() []model.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []model.Transaction
	for _, bucket := range l.state.Transactions {
		for _, tx := range bucket {
			out = append(out, tx.Clone())
		}
	}
	return out
}

// ForMonth returns the transactions of one month bucket, empty when absent.
func (l *Ledger) ForMonth(month types.Month) []model.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket := l.state.Transactions[month]
	out := make([]model.Transaction, len(bucket))
	for i, tx := range bucket {
		out[i] = tx.Clone()
	}
	return out
}

// Get returns the transaction with the given id.
func (l *Ledger) Get(id string) (model.Transaction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	month, idx, ok := l.find(id)
	if !ok {
		return model.Transaction{}, false
	}
	return l.state.Transactions[month][idx].Clone(), true
}

// SetTheme switches the color scheme and persists it.
func (l *Ledger) SetTheme(ctx context.Context, theme model.Theme) error {
	if !theme.Valid() {
		return common.NewValidationError("theme", "must be light or dark")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.state.Theme = theme
	l.store.Save(ctx, l.state)
	return nil
}

// ApplyRemote replaces the local document with one received from another
// context, but only when the incoming logical timestamp is strictly newer.
// Last-writer-wins over the whole document; there is no merging. Returns
// whether the incoming state was accepted.
func (l *Ledger) ApplyRemote(incoming *model.State) bool {
	if incoming == nil {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if incoming.LastUpdated <= l.state.LastUpdated {
		return false
	}

	replacement := incoming.Clone()
	replacement.Normalize()
	l.state = replacement
	l.log.Debug("remote state applied", "lastUpdated", replacement.LastUpdated)
	return true
}

// Replace overwrites the whole document, for JSON import. The replacement
// is saved immediately so it wins last-writer-wins against other contexts.
func (l *Ledger) Replace(ctx context.Context, state *model.State) {
	l.mu.Lock()
	defer l.mu.Unlock()

	replacement := state.Clone()
	replacement.Normalize()
	l.state = replacement
	l.store.Save(ctx, l.state)
}

// Save persists the current document without mutating it, for callers that
// batch several mutations through lower-level helpers.
func (l *Ledger) Save(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.store.Save(ctx, l.state)
}

// find scans every bucket for a matching id. Linear over the whole ledger,
// which is fine at personal-ledger scale.
func (l *Ledger) find(id string) (types.Month, int, bool) {
	for month, bucket := range l.state.Transactions {
		for idx, tx := range bucket {
			if tx.ID == id {
				return month, idx, true
			}
		}
	}
	return types.Month{}, 0, false
}

// removeAt deletes a transaction by position and drops the bucket if it
// becomes empty. Caller holds the lock.
func (l *Ledger) removeAt(month types.Month, idx int) {
	bucket := l.state.Transactions[month]
	l.state.Transactions[month] = append(bucket[:idx], bucket[idx+1:]...)
	if len(l.state.Transactions[month]) == 0 {
		delete(l.state.Transactions, month)
	}
}

func (p TxPatch) apply(tx *model.Transaction) {
	if p.Type != nil {
		tx.Type = *p.Type
	}
	if p.Category != nil {
		tx.Category = *p.Category
	}
	if p.Amount != nil {
		tx.Amount = *p.Amount
	}
	if p.Date != nil {
		tx.Date = *p.Date
	}
	if p.Note != nil {
		tx.Note = *p.Note
	}
	if p.Recurring != nil {
		tx.Recurring = *p.Recurring
	}
	if p.NextDue != nil {
		due := *p.NextDue
		tx.NextDue = &due
	}
}
