package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/koban-io/koban/internal/common"
	"github.com/koban-io/koban/internal/model"
	"github.com/koban-io/koban/internal/types"
)

func validTx() model.Transaction {
	return model.Transaction{
		ID:       model.NewID(),
		Type:     model.TypeExpense,
		Category: "Food",
		Amount:   1200,
		Date:     types.NewDate(2024, time.May, 12),
	}
}

func TestTransactionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.Transaction)
		wantErr bool
	}{
		{name: "valid expense", mutate: func(*model.Transaction) {}},
		{name: "valid income", mutate: func(tx *model.Transaction) {
			tx.Type = model.TypeIncome
			tx.Category = model.CategoryIncome
		}},
		{name: "zero amount is allowed", mutate: func(tx *model.Transaction) { tx.Amount = 0 }},
		{name: "missing id", mutate: func(tx *model.Transaction) { tx.ID = "" }, wantErr: true},
		{name: "unknown type", mutate: func(tx *model.Transaction) { tx.Type = "transfer" }, wantErr: true},
		{name: "empty category", mutate: func(tx *model.Transaction) { tx.Category = "" }, wantErr: true},
		{name: "negative amount", mutate: func(tx *model.Transaction) { tx.Amount = -1 }, wantErr: true},
		{name: "zero date", mutate: func(tx *model.Transaction) { tx.Date = types.Date{} }, wantErr: true},
		{name: "unknown recurrence", mutate: func(tx *model.Transaction) { tx.Recurring = "daily" }, wantErr: true},
		{name: "valid recurrence", mutate: func(tx *model.Transaction) { tx.Recurring = model.RecurWeekly }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTx()
			tt.mutate(&tx)
			err := tx.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, common.IsValidation(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRecurrenceNext(t *testing.T) {
	start := types.NewDate(2024, time.January, 15)

	tests := []struct {
		name string
		rec  model.Recurrence
		want string
	}{
		{name: "weekly", rec: model.RecurWeekly, want: "2024-01-22"},
		{name: "monthly", rec: model.RecurMonthly, want: "2024-02-15"},
		{name: "yearly", rec: model.RecurYearly, want: "2025-01-15"},
		{name: "none does not advance", rec: model.RecurNone, want: "2024-01-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.Next(start).String())
		})
	}
}

func TestIsRecurring(t *testing.T) {
	tx := validTx()
	assert.False(t, tx.IsRecurring())

	tx.Recurring = model.RecurMonthly
	assert.False(t, tx.IsRecurring(), "template without a due date is inert")

	due := types.NewDate(2024, time.June, 1)
	tx.NextDue = &due
	assert.True(t, tx.IsRecurring())

	tx.Recurring = model.RecurNone
	assert.False(t, tx.IsRecurring())
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := model.NewID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}
