package ledger

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koban-io/koban/internal/common"
	"github.com/koban-io/koban/internal/model"
	"github.com/koban-io/koban/internal/storage"
	"github.com/koban-io/koban/internal/types"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()

	backend, err := storage.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	store := storage.New(backend, slog.Default())
	return New(model.NewState(), store, slog.Default())
}

func newTx(txType model.TxType, category string, amount int64, date types.Date) model.Transaction {
	return model.Transaction{
		ID:       model.NewID(),
		Type:     txType,
		Category: category,
		Amount:   amount,
		Date:     date,
	}
}

func TestAddBucketsByMonth(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	jan := newTx(model.TypeExpense, "Food", 1200, types.NewDate(2024, time.January, 15))
	alsoJan := newTx(model.TypeIncome, model.CategoryIncome, 250000, types.NewDate(2024, time.January, 25))
	feb := newTx(model.TypeExpense, "Rent", 80000, types.NewDate(2024, time.February, 1))

	require.NoError(t, l.Add(ctx, jan))
	require.NoError(t, l.Add(ctx, alsoJan))
	require.NoError(t, l.Add(ctx, feb))

	state := l.Snapshot()
	assert.Len(t, state.Transactions, 2)
	assert.Len(t, state.Transactions[types.NewMonth(2024, time.January)], 2)
	assert.Len(t, state.Transactions[types.NewMonth(2024, time.February)], 1)
}

func TestAddRegistersUnknownCategory(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	tx := newTx(model.TypeExpense, "Hobbies", 5000, types.NewDate(2024, time.March, 3))
	require.NoError(t, l.Add(ctx, tx))

	assert.Contains(t, l.Categories(), "Hobbies")
}

func TestAddRejectsInvalidTransaction(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	tx := newTx(model.TypeExpense, "Food", -100, types.NewDate(2024, time.March, 3))
	err := l.Add(ctx, tx)
	require.Error(t, err)
	assert.True(t, common.IsValidation(err))
	assert.Empty(t, l.All())
}

func TestUpdateInPlace(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	tx := newTx(model.TypeExpense, "Food", 1200, types.NewDate(2024, time.January, 15))
	require.NoError(t, l.Add(ctx, tx))

	amount := int64(1500)
	note := "ramen"
	require.NoError(t, l.Update(ctx, tx.ID, TxPatch{Amount: &amount, Note: &note}))

	got, ok := l.Get(tx.ID)
	require.True(t, ok)
	assert.Equal(t, int64(1500), got.Amount)
	assert.Equal(t, "ramen", got.Note)
	assert.Equal(t, "Food", got.Category, "unset patch fields keep their value")
}

func TestUpdateRelocatesAcrossMonths(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	tx := newTx(model.TypeExpense, "Food", 1200, types.NewDate(2024, time.January, 31))
	require.NoError(t, l.Add(ctx, tx))

	newDate := types.NewDate(2024, time.February, 1)
	require.NoError(t, l.Update(ctx, tx.ID, TxPatch{Date: &newDate}))

	state := l.Snapshot()
	jan := types.NewMonth(2024, time.January)
	feb := types.NewMonth(2024, time.February)

	_, hasJan := state.Transactions[jan]
	assert.False(t, hasJan, "emptied bucket is dropped")
	require.Len(t, state.Transactions[feb], 1)
	assert.Equal(t, tx.ID, state.Transactions[feb][0].ID)
}

func TestUpdateUnknownIDIsNoOp(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	tx := newTx(model.TypeExpense, "Food", 1200, types.NewDate(2024, time.January, 15))
	require.NoError(t, l.Add(ctx, tx))

	amount := int64(9999)
	require.NoError(t, l.Update(ctx, "no-such-id", TxPatch{Amount: &amount}))

	got, ok := l.Get(tx.ID)
	require.True(t, ok)
	assert.Equal(t, int64(1200), got.Amount)
}

func TestUpdateRejectsInvalidPatch(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	tx := newTx(model.TypeExpense, "Food", 1200, types.NewDate(2024, time.January, 15))
	require.NoError(t, l.Add(ctx, tx))

	amount := int64(-5)
	err := l.Update(ctx, tx.ID, TxPatch{Amount: &amount})
	require.Error(t, err)
	assert.True(t, common.IsValidation(err))

	got, _ := l.Get(tx.ID)
	assert.Equal(t, int64(1200), got.Amount, "rejected patch leaves the record untouched")
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	keep := newTx(model.TypeExpense, "Food", 1200, types.NewDate(2024, time.January, 15))
	gone := newTx(model.TypeExpense, "Food", 800, types.NewDate(2024, time.January, 16))
	require.NoError(t, l.Add(ctx, keep))
	require.NoError(t, l.Add(ctx, gone))

	l.Delete(ctx, gone.ID)

	_, ok := l.Get(gone.ID)
	assert.False(t, ok)
	_, ok = l.Get(keep.ID)
	assert.True(t, ok)

	// Unknown id is a silent no-op.
	l.Delete(ctx, "no-such-id")
	assert.Len(t, l.All(), 1)
}

func TestDeleteDropsEmptyBucket(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	tx := newTx(model.TypeExpense, "Food", 1200, types.NewDate(2024, time.January, 15))
	require.NoError(t, l.Add(ctx, tx))
	l.Delete(ctx, tx.ID)

	state := l.Snapshot()
	assert.Empty(t, state.Transactions)
}

func TestForMonth(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	jan := newTx(model.TypeExpense, "Food", 1200, types.NewDate(2024, time.January, 15))
	require.NoError(t, l.Add(ctx, jan))

	assert.Len(t, l.ForMonth(types.NewMonth(2024, time.January)), 1)
	assert.Empty(t, l.ForMonth(types.NewMonth(2024, time.June)))
}

func TestSnapshotIsDetached(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	tx := newTx(model.TypeExpense, "Food", 1200, types.NewDate(2024, time.January, 15))
	require.NoError(t, l.Add(ctx, tx))

	snap := l.Snapshot()
	for month := range snap.Transactions {
		snap.Transactions[month][0].Amount = 1
	}

	got, _ := l.Get(tx.ID)
	assert.Equal(t, int64(1200), got.Amount)
}

func TestSetTheme(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	require.NoError(t, l.SetTheme(ctx, model.ThemeLight))
	assert.Equal(t, model.ThemeLight, l.Snapshot().Theme)

	err := l.SetTheme(ctx, model.Theme("sepia"))
	require.Error(t, err)
	assert.True(t, common.IsValidation(err))
	assert.Equal(t, model.ThemeLight, l.Snapshot().Theme)
}

func TestApplyRemoteLastWriterWins(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	local := newTx(model.TypeExpense, "Food", 1200, types.NewDate(2024, time.January, 15))
	require.NoError(t, l.Add(ctx, local))
	localStamp := l.Snapshot().LastUpdated

	newer := model.NewState()
	newer.Theme = model.ThemeLight
	newer.LastUpdated = localStamp + 100
	assert.True(t, l.ApplyRemote(newer))
	assert.Equal(t, model.ThemeLight, l.Snapshot().Theme)
	assert.Empty(t, l.All(), "full-document replacement, no merging")

	older := model.NewState()
	older.LastUpdated = localStamp - 100
	assert.False(t, l.ApplyRemote(older))

	equal := model.NewState()
	equal.LastUpdated = l.Snapshot().LastUpdated
	assert.False(t, l.ApplyRemote(equal), "equal timestamps keep the local state")

	assert.False(t, l.ApplyRemote(nil))
}

func TestApplyRemoteConvergesRegardlessOfOrder(t *testing.T) {
	a := model.NewState()
	a.Theme = model.ThemeLight
	a.LastUpdated = 1000

	b := model.NewState()
	b.LastUpdated = 2000

	first := newTestLedger(t)
	first.ApplyRemote(a)
	first.ApplyRemote(b)

	second := newTestLedger(t)
	second.ApplyRemote(b)
	second.ApplyRemote(a)

	assert.Equal(t, first.Snapshot().LastUpdated, second.Snapshot().LastUpdated)
	assert.Equal(t, first.Snapshot().Theme, second.Snapshot().Theme)
}

func TestApplyRemoteNormalizesIncoming(t *testing.T) {
	l := newTestLedger(t)

	incoming := &model.State{LastUpdated: time.Now().UnixMilli() + 1000}
	require.True(t, l.ApplyRemote(incoming))

	state := l.Snapshot()
	assert.NotNil(t, state.Transactions)
	assert.NotNil(t, state.Budgets)
	assert.Contains(t, state.Categories, model.CategoryOther)
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	old := newTx(model.TypeExpense, "Food", 1200, types.NewDate(2024, time.January, 15))
	require.NoError(t, l.Add(ctx, old))

	imported := model.NewState()
	imported.Theme = model.ThemeLight
	l.Replace(ctx, imported)

	state := l.Snapshot()
	assert.Equal(t, model.ThemeLight, state.Theme)
	assert.Empty(t, state.Transactions)
	assert.Positive(t, state.LastUpdated, "replacement is saved and stamped")
}
