// Package report derives aggregates from a document snapshot.
//
// Everything here is a pure function over *model.State: no caching, no
// incremental bookkeeping. Results always equal recomputing from scratch,
// which is what makes them safe to call at any point between mutations.
package report

import (
	"math"
	"slices"
	"sort"

	"github.com/koban-io/koban/internal/model"
	"github.com/koban-io/koban/internal/types"
)

// Totals are the per-month sums. Savings may be negative.
type Totals struct {
	Income  int64
	Expense int64
	Savings int64
}

// TotalsForMonth sums one month bucket by direction.
func TotalsForMonth(state *model.State, month types.Month) Totals {
	var t Totals
	for _, tx := range state.Transactions[month] {
		switch tx.Type {
		case model.TypeIncome:
			t.Income += tx.Amount
		case model.TypeExpense:
			t.Expense += tx.Amount
		}
	}
	t.Savings = t.Income - t.Expense
	return t
}

// CategorySpend sums the expenses of one month by category. Income is not
// included.
func CategorySpend(state *model.State, month types.Month) map[string]int64 {
	out := make(map[string]int64)
	for _, tx := range state.Transactions[month] {
		if tx.Type == model.TypeExpense {
			out[tx.Category] += tx.Amount
		}
	}
	return out
}

// MonthTotals pairs a month with its totals, for trend charts.
type MonthTotals struct {
	Month  types.Month
	Totals Totals
}

// TrendSeries returns totals for the n consecutive months ending at (and
// including) current, oldest first.
func TrendSeries(state *model.State, n int, current types.Month) []MonthTotals {
	if n <= 0 {
		return nil
	}
	out := make([]MonthTotals, 0, n)
	for i := n - 1; i >= 0; i-- {
		month := current.AddDate(0, -i)
		out = append(out, MonthTotals{Month: month, Totals: TotalsForMonth(state, month)})
	}
	return out
}

// MonthsWithData returns the distinct months present in the ledger, sorted
// ascending.
func MonthsWithData(state *model.State) []types.Month {
	out := make([]types.Month, 0, len(state.Transactions))
	for month, bucket := range state.Transactions {
		if len(bucket) > 0 {
			out = append(out, month)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Projection extrapolates totals over the given number of months from the
// historical per-month average. A straight linear scaling, not a model.
func Projection(state *model.State, months int) Totals {
	haveMonths := len(MonthsWithData(state))
	if haveMonths == 0 || months <= 0 {
		return Totals{}
	}

	var totalIncome, totalExpense int64
	for _, tx := range state.AllTransactions() {
		switch tx.Type {
		case model.TypeIncome:
			totalIncome += tx.Amount
		case model.TypeExpense:
			totalExpense += tx.Amount
		}
	}

	scale := float64(months) / float64(haveMonths)
	income := int64(math.Round(float64(totalIncome) * scale))
	expense := int64(math.Round(float64(totalExpense) * scale))
	return Totals{Income: income, Expense: expense, Savings: income - expense}
}

// CategoryAmount pairs a category with a summed amount.
type CategoryAmount struct {
	Category string
	Amount   int64
}

// TopSpending returns the all-time expense totals by category, highest
// first, at most limit entries.
func TopSpending(state *model.State, limit int) []CategoryAmount {
	byCategory := make(map[string]int64)
	for _, tx := range state.AllTransactions() {
		if tx.Type == model.TypeExpense {
			byCategory[tx.Category] += tx.Amount
		}
	}

	out := make([]CategoryAmount, 0, len(byCategory))
	for category, amount := range byCategory {
		out = append(out, CategoryAmount{Category: category, Amount: amount})
	}
	slices.SortFunc(out, func(a, b CategoryAmount) int {
		if a.Amount != b.Amount {
			if a.Amount > b.Amount {
				return -1
			}
			return 1
		}
		return 0
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// GoalProgress measures one month's savings against the savings-rate goal.
type GoalProgress struct {
	Target   int64   // yen to keep this month per the goal
	Actual   int64   // savings actually achieved
	Percent  float64 // Actual/Target*100, 0 when no target
	Achieved bool
}

// GoalForMonth evaluates the savings goal against one month's totals.
func GoalForMonth(state *model.State, month types.Month) GoalProgress {
	target := int64(math.Round(float64(state.Goal.Income) * state.Goal.Rate / 100))
	actual := TotalsForMonth(state, month).Savings

	progress := GoalProgress{Target: target, Actual: actual}
	if target > 0 {
		progress.Percent = float64(actual) / float64(target) * 100
		progress.Achieved = actual >= target
	}
	return progress
}
