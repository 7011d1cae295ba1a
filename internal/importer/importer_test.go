package importer

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koban-io/koban/internal/ledger"
	"github.com/koban-io/koban/internal/model"
	"github.com/koban-io/koban/internal/storage"
	"github.com/koban-io/koban/internal/types"
)

func newTestLedger(t *testing.T) *ledger.Ledger {
	t.Helper()

	backend, err := storage.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	store := storage.New(backend, slog.Default())
	return ledger.New(model.NewState(), store, slog.Default())
}

func TestCSVRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := newTestLedger(t)

	require.NoError(t, source.Add(ctx, model.Transaction{
		ID:       model.NewID(),
		Type:     model.TypeExpense,
		Category: "Food",
		Amount:   1200,
		Date:     types.NewDate(2024, time.January, 15),
		Note:     "lunch, with a comma",
	}))
	require.NoError(t, source.Add(ctx, model.Transaction{
		ID:       model.NewID(),
		Type:     model.TypeIncome,
		Category: model.CategoryIncome,
		Amount:   250000,
		Date:     types.NewDate(2024, time.January, 25),
	}))

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, source.Snapshot()))

	target := newTestLedger(t)
	imported, err := ReadCSV(ctx, &buf, target)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)

	all := target.All()
	require.Len(t, all, 2)
	byAmount := map[int64]model.Transaction{}
	for _, tx := range all {
		byAmount[tx.Amount] = tx
	}
	lunch := byAmount[1200]
	assert.Equal(t, model.TypeExpense, lunch.Type)
	assert.Equal(t, "Food", lunch.Category)
	assert.Equal(t, "lunch, with a comma", lunch.Note)
	assert.Equal(t, "2024-01-15", lunch.Date.String())
}

func TestReadCSVAssignsFreshIDs(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	input := "id,type,category,amount,date,note\n" +
		"original-id,expense,Food,1200,2024-01-15,\n"
	_, err := ReadCSV(ctx, strings.NewReader(input), l)
	require.NoError(t, err)

	all := l.All()
	require.Len(t, all, 1)
	assert.NotEqual(t, "original-id", all[0].ID)
}

func TestReadCSVColumnOrderIsFree(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	input := "Amount,Date,Category,Type\n" +
		"4500,2024-03-03,Transport,expense\n"
	imported, err := ReadCSV(ctx, strings.NewReader(input), l)
	require.NoError(t, err)
	assert.Equal(t, 1, imported)

	all := l.All()
	require.Len(t, all, 1)
	assert.Equal(t, int64(4500), all[0].Amount)
	assert.Equal(t, "Transport", all[0].Category)
}

func TestReadCSVDefaults(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	input := "amount\n1500\n"
	imported, err := ReadCSV(ctx, strings.NewReader(input), l)
	require.NoError(t, err)
	assert.Equal(t, 1, imported)

	all := l.All()
	require.Len(t, all, 1)
	assert.Equal(t, model.TypeExpense, all[0].Type)
	assert.Equal(t, model.CategoryOther, all[0].Category)
	assert.True(t, all[0].Date.Equal(types.Today()))
}

func TestReadCSVRoundsFractionalAmounts(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	input := "amount,date\n1234.56,2024-01-15\n"
	_, err := ReadCSV(ctx, strings.NewReader(input), l)
	require.NoError(t, err)

	all := l.All()
	require.Len(t, all, 1)
	assert.Equal(t, int64(1235), all[0].Amount)
}

func TestReadCSVErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		input string
	}{
		{name: "bad amount", input: "amount,date\nnot-a-number,2024-01-15\n"},
		{name: "bad date", input: "amount,date\n100,15/01/2024\n"},
		{name: "empty input", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger(t)
			_, err := ReadCSV(ctx, strings.NewReader(tt.input), l)
			assert.Error(t, err)
		})
	}
}

func TestJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := newTestLedger(t)

	require.NoError(t, source.Add(ctx, model.Transaction{
		ID:       model.NewID(),
		Type:     model.TypeExpense,
		Category: "Food",
		Amount:   1200,
		Date:     types.NewDate(2024, time.January, 15),
	}))
	require.NoError(t, source.SetBudget(ctx, "Food", model.Budget{Amount: 40000}, false))
	require.NoError(t, source.SetTheme(ctx, model.ThemeLight))

	data, err := ExportJSON(source.Snapshot())
	require.NoError(t, err)

	target := newTestLedger(t)
	require.NoError(t, ImportJSON(ctx, data, target))

	state := target.Snapshot()
	assert.Equal(t, model.ThemeLight, state.Theme)
	assert.Len(t, state.Transactions[types.NewMonth(2024, time.January)], 1)
	budget, ok := target.Budget("Food")
	require.True(t, ok)
	assert.Equal(t, int64(40000), budget.Amount)
}

func TestImportJSONMigratesLegacyShapes(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	legacy := `{
		"theme": "light",
		"tx": {},
		"budgets": {"Food": 40000},
		"goal": {"budget": 300000, "rate": 20},
		"_updated": 1700000000000
	}`
	require.NoError(t, ImportJSON(ctx, []byte(legacy), l))

	budget, ok := l.Budget("Food")
	require.True(t, ok)
	assert.Equal(t, int64(40000), budget.Amount)
	assert.Zero(t, budget.Spent)
	assert.Equal(t, int64(300000), l.Goal().Income)
}

func TestImportJSONRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	err := ImportJSON(ctx, []byte("not json"), l)
	require.Error(t, err)
	assert.Empty(t, l.All(), "failed import leaves the ledger untouched")
}
