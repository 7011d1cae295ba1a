package model

import (
	"time"

	"github.com/koban-io/koban/internal/common"
	"github.com/koban-io/koban/internal/types"
)

// Budget is a per-category allocation. The category name is the map key in
// State.Budgets; it shares the namespace of Transaction.Category.
type Budget struct {
	Amount      int64        `json:"amount"`
	Spent       int64        `json:"spent"`
	Month       *types.Month `json:"month,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	LastUpdated time.Time    `json:"lastUpdated"`
}

// Validate checks the budget before it is stored.
func (b *Budget) Validate() error {
	if b.Amount < 0 {
		return common.NewValidationError("amount", "must not be negative")
	}
	if b.Spent < 0 {
		return common.NewValidationError("spent", "must not be negative")
	}
	return nil
}

// Clone returns a deep copy of the budget.
func (b Budget) Clone() Budget {
	if b.Month != nil {
		m := *b.Month
		b.Month = &m
	}
	return b
}

// Goal is the savings-rate target: a monthly income target and the percent
// of it the user wants to keep.
type Goal struct {
	Income int64   `json:"income"`
	Rate   float64 `json:"rate"`
}

// Validate checks the goal before it is stored.
func (g *Goal) Validate() error {
	if g.Income < 0 {
		return common.NewValidationError("income", "must not be negative")
	}
	if g.Rate < 0 || g.Rate > 100 {
		return common.NewValidationError("rate", "must be between 0 and 100")
	}
	return nil
}
