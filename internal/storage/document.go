package storage

import (
	"encoding/json"
	"fmt"

	"github.com/koban-io/koban/internal/common"
	"github.com/koban-io/koban/internal/model"
	"github.com/koban-io/koban/internal/types"
)

// The on-disk document has gone through three shapes:
//
//	v1: budgets were bare numbers (amount only, no spent/month/notes)
//	v2: the goal carried a "budget" field aliasing the income target
//	v3: the current shape (model.State)
//
// Rather than tagging documents with a version number, each upgrade detects
// its legacy shape and rewrites it; DecodeDocument applies them in order so
// any vintage of document decodes to the current shape. Each upgrade is pure
// over the raw document.

// rawDocument is the loosely-typed decode target that tolerates all legacy
// shapes at once.
type rawDocument struct {
	Theme        model.Theme                         `json:"theme"`
	Transactions map[types.Month][]model.Transaction `json:"tx"`
	Budgets      map[string]json.RawMessage          `json:"budgets"`
	Goal         rawGoal                             `json:"goal"`
	Categories   []string                            `json:"categories"`
	LastUpdated  int64                               `json:"lastUpdated"`

	// The very first documents stamped saves as "_updated".
	LegacyUpdated int64 `json:"_updated"`
}

type rawGoal struct {
	Income *int64  `json:"income"`
	Budget *int64  `json:"budget"`
	Rate   float64 `json:"rate"`
}

// DecodeDocument deserializes a persisted document of any known vintage.
func DecodeDocument(data []byte) (*model.State, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStateCorrupt, err)
	}

	budgets, err := upgradeBudgets(raw.Budgets)
	if err != nil {
		return nil, err
	}

	state := &model.State{
		Theme:        raw.Theme,
		Transactions: raw.Transactions,
		Budgets:      budgets,
		Goal:         upgradeGoal(raw.Goal),
		Categories:   raw.Categories,
		LastUpdated:  raw.LastUpdated,
	}
	if state.LastUpdated == 0 {
		state.LastUpdated = raw.LegacyUpdated
	}
	state.Normalize()
	return state, nil
}

// upgradeBudgets handles the v1 shape where a budget was a bare number.
func upgradeBudgets(raw map[string]json.RawMessage) (map[string]model.Budget, error) {
	out := make(map[string]model.Budget, len(raw))
	for category, entry := range raw {
		var budget model.Budget
		if err := json.Unmarshal(entry, &budget); err == nil {
			out[category] = budget
			continue
		}

		var amount int64
		if err := json.Unmarshal(entry, &amount); err != nil {
			return nil, fmt.Errorf("budget %q has unrecognized shape: %w", category, err)
		}
		out[category] = model.Budget{Amount: amount, Spent: 0}
	}
	return out, nil
}

// upgradeGoal handles the v2 shape where goal.budget aliased goal.income.
// A document that carries both keeps the user-entered income.
func upgradeGoal(raw rawGoal) model.Goal {
	goal := model.Goal{Rate: raw.Rate}
	switch {
	case raw.Income != nil:
		goal.Income = *raw.Income
	case raw.Budget != nil:
		goal.Income = *raw.Budget
	}
	return goal
}

// EncodeDocument serializes the document in the current shape.
func EncodeDocument(state *model.State) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return data, nil
}
