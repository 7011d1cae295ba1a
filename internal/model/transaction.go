package model

import (
	"github.com/google/uuid"

	"github.com/koban-io/koban/internal/common"
	"github.com/koban-io/koban/internal/types"
)

// TxType is the direction of a transaction.
type TxType string

// Transaction directions.
const (
	TypeIncome  TxType = "income"
	TypeExpense TxType = "expense"
)

// Valid reports whether the type is one of the known directions.
func (t TxType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Recurrence is the repeat interval of a recurring transaction.
type Recurrence string

// Recurrence intervals.
const (
	RecurNone    Recurrence = "none"
	RecurWeekly  Recurrence = "weekly"
	RecurMonthly Recurrence = "monthly"
	RecurYearly  Recurrence = "yearly"
)

// Valid reports whether the recurrence is a known interval.
func (r Recurrence) Valid() bool {
	switch r {
	case RecurNone, RecurWeekly, RecurMonthly, RecurYearly:
		return true
	}
	return false
}

// Next advances a date by one interval. Monthly and yearly stepping use
// native calendar rollover, so Jan 31 + monthly lands in early March on
// short Februaries.
func (r Recurrence) Next(d types.Date) types.Date {
	switch r {
	case RecurWeekly:
		return d.AddDate(0, 0, 7)
	case RecurMonthly:
		return d.AddDate(0, 1, 0)
	case RecurYearly:
		return d.AddDate(1, 0, 0)
	}
	return d
}

// Transaction is a single income or expense record. Amounts are whole yen;
// there are no fractional units.
type Transaction struct {
	ID        string      `json:"id"`
	Type      TxType      `json:"type"`
	Category  string      `json:"category"`
	Amount    int64       `json:"amount"`
	Date      types.Date  `json:"date"`
	Note      string      `json:"note,omitempty"`
	Recurring Recurrence  `json:"recurring,omitempty"`
	NextDue   *types.Date `json:"next,omitempty"`
}

// NewID returns a fresh transaction identifier.
func NewID() string {
	return uuid.NewString()
}

// Validate checks the transaction before it is allowed into the ledger.
func (t *Transaction) Validate() error {
	if t.ID == "" {
		return common.NewValidationError("id", "must not be empty")
	}
	if !t.Type.Valid() {
		return common.NewValidationError("type", "must be income or expense")
	}
	if t.Category == "" {
		return common.NewValidationError("category", "must not be empty")
	}
	if t.Amount < 0 {
		return common.NewValidationError("amount", "must not be negative")
	}
	if t.Date.IsZero() {
		return common.NewValidationError("date", "must be set")
	}
	if t.Recurring != "" && !t.Recurring.Valid() {
		return common.NewValidationError("recurring", "unknown interval")
	}
	return nil
}

// IsRecurring reports whether the transaction is a recurrence template with
// a pending due date.
func (t *Transaction) IsRecurring() bool {
	return t.Recurring != "" && t.Recurring != RecurNone && t.NextDue != nil
}

// Clone returns a deep copy of the transaction.
func (t Transaction) Clone() Transaction {
	if t.NextDue != nil {
		due := *t.NextDue
		t.NextDue = &due
	}
	return t
}
