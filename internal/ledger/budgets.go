package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/koban-io/koban/internal/common"
	"github.com/koban-io/koban/internal/model"
	"github.com/koban-io/koban/internal/types"
)

// SetBudget creates or replaces the budget for a category. When postSpent is
// set and the budget records spending, a matching expense transaction dated
// today is posted alongside, mirroring the manual "spent" entry flow.
func (l *Ledger) SetBudget(ctx context.Context, category string, budget model.Budget, postSpent bool) error {
	if category == "" {
		return common.NewValidationError("category", "must not be empty")
	}
	if err := budget.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	budget.LastUpdated = time.Now().UTC()
	l.state.Budgets[category] = budget
	l.state.EnsureCategory(category)

	if postSpent && budget.Spent > 0 {
		tx := model.Transaction{
			ID:       model.NewID(),
			Type:     model.TypeExpense,
			Category: category,
			Amount:   budget.Spent,
			Date:     types.Today(),
			Note:     fmt.Sprintf("Budget spent for %s", category),
		}
		month := tx.Date.Month()
		l.state.Transactions[month] = append(l.state.Transactions[month], tx)
	}

	l.store.Save(ctx, l.state)
	return nil
}

// DeleteBudget removes the budget for a category. Unknown categories are a
// no-op.
func (l *Ledger) DeleteBudget(ctx context.Context, category string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.state.Budgets[category]; !ok {
		return
	}
	delete(l.state.Budgets, category)
	l.store.Save(ctx, l.state)
}

// Budget returns the budget for a category.
func (l *Ledger) Budget(category string) (model.Budget, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	budget, ok := l.state.Budgets[category]
	return budget.Clone(), ok
}

// Budgets returns a copy of all budget entries keyed by category.
func (l *Ledger) Budgets() map[string]model.Budget {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]model.Budget, len(l.state.Budgets))
	for category, budget := range l.state.Budgets {
		out[category] = budget.Clone()
	}
	return out
}

// SetGoal replaces the savings-rate target.
func (l *Ledger) SetGoal(ctx context.Context, goal model.Goal) error {
	if err := goal.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.state.Goal = goal
	l.store.Save(ctx, l.state)
	return nil
}

// Goal returns the current savings-rate target.
func (l *Ledger) Goal() model.Goal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Goal
}
