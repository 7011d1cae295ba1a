package ledger

import (
	"context"
	"slices"
	"unicode/utf8"

	"github.com/koban-io/koban/internal/common"
	"github.com/koban-io/koban/internal/model"
)

const (
	minCategoryLen = 2
	maxCategoryLen = 30
)

// Categories returns the registered category names in their display order.
func (l *Ledger) Categories() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.state.Categories)
}

// AddCategory registers a new category name.
func (l *Ledger) AddCategory(ctx context.Context, name string) error {
	if err := validateCategoryName(name); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.HasCategory(name) {
		return common.NewValidationError("category", "already exists")
	}
	l.state.Categories = append(l.state.Categories, name)
	l.store.Save(ctx, l.state)
	return nil
}

// RenameCategory renames a category and cascades: every transaction in the
// old category is rewritten in place, and its budget entry moves under the
// new key.
func (l *Ledger) RenameCategory(ctx context.Context, oldName, newName string) error {
	if isEssential(oldName) {
		return common.NewValidationError("category", "essential categories cannot be renamed")
	}
	if err := validateCategoryName(newName); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := slices.Index(l.state.Categories, oldName)
	if idx < 0 {
		return common.NewValidationError("category", "does not exist")
	}
	if l.state.HasCategory(newName) {
		return common.NewValidationError("category", "already exists")
	}

	l.state.Categories[idx] = newName
	l.reassignTransactions(oldName, newName)
	if budget, ok := l.state.Budgets[oldName]; ok {
		l.state.Budgets[newName] = budget
		delete(l.state.Budgets, oldName)
	}

	l.store.Save(ctx, l.state)
	return nil
}

// DeleteCategory removes a category. Its transactions are reassigned to
// Other and its budget entry is dropped. Deleting an unknown category is a
// no-op; deleting an essential one is an error.
func (l *Ledger) DeleteCategory(ctx context.Context, name string) error {
	if isEssential(name) {
		return common.NewValidationError("category", "essential categories cannot be deleted")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := slices.Index(l.state.Categories, name)
	if idx < 0 {
		return nil
	}

	l.state.Categories = slices.Delete(l.state.Categories, idx, idx+1)
	l.reassignTransactions(name, model.CategoryOther)
	delete(l.state.Budgets, name)

	l.store.Save(ctx, l.state)
	return nil
}

// reassignTransactions rewrites the category of every matching transaction.
// Caller holds the lock.
func (l *Ledger) reassignTransactions(from, to string) {
	for month, bucket := range l.state.Transactions {
		for idx, tx := range bucket {
			if tx.Category == from {
				l.state.Transactions[month][idx].Category = to
			}
		}
	}
}

func isEssential(name string) bool {
	return name == model.CategoryIncome || name == model.CategoryOther
}

func validateCategoryName(name string) error {
	length := utf8.RuneCountInString(name)
	if length < minCategoryLen {
		return common.NewValidationError("category", "name must be at least 2 characters")
	}
	if length > maxCategoryLen {
		return common.NewValidationError("category", "name must be 30 characters or less")
	}
	return nil
}
