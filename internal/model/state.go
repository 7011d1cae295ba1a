// Package model defines the persisted document and the records inside it.
package model

import (
	"slices"

	"github.com/koban-io/koban/internal/types"
)

// Theme is the UI color scheme. It travels with the document so every
// context sharing the storage agrees on it.
type Theme string

// Themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether the theme is known.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Essential categories. Both always exist and can never be deleted: Other is
// the fallback for orphaned transactions, Income is where income entries
// default.
const (
	CategoryIncome = "Income"
	CategoryOther  = "Other"
)

// DefaultCategories returns the seed category list for a fresh document.
func DefaultCategories() []string {
	return []string{
		"Food", "Rent", "Transport", "Utilities", "Comms", "Social",
		"Entertainment", "Education", "Medical", "Household", "Savings",
		CategoryIncome, CategoryOther,
	}
}

// State is the whole persisted document. One instance is owned per process
// and written back in full on every mutation.
type State struct {
	Theme        Theme                         `json:"theme"`
	Transactions map[types.Month][]Transaction `json:"tx"`
	Budgets      map[string]Budget             `json:"budgets"`
	Goal         Goal                          `json:"goal"`
	Categories   []string                      `json:"categories"`
	LastUpdated  int64                         `json:"lastUpdated"`
}

// NewState returns a fresh default document.
func NewState() *State {
	return &State{
		Theme:        ThemeDark,
		Transactions: make(map[types.Month][]Transaction),
		Budgets:      make(map[string]Budget),
		Categories:   DefaultCategories(),
	}
}

// Normalize repairs structural gaps after deserialization: nil maps become
// empty and the essential categories are re-added if missing.
func (s *State) Normalize() {
	if s.Transactions == nil {
		s.Transactions = make(map[types.Month][]Transaction)
	}
	if s.Budgets == nil {
		s.Budgets = make(map[string]Budget)
	}
	if !s.Theme.Valid() {
		s.Theme = ThemeDark
	}
	for _, essential := range []string{CategoryIncome, CategoryOther} {
		if !s.HasCategory(essential) {
			s.Categories = append(s.Categories, essential)
		}
	}
}

// HasCategory reports whether the category name is registered.
func (s *State) HasCategory(name string) bool {
	return slices.Contains(s.Categories, name)
}

// EnsureCategory registers a category name if it is not already present.
func (s *State) EnsureCategory(name string) {
	if name != "" && !s.HasCategory(name) {
		s.Categories = append(s.Categories, name)
	}
}

// AllTransactions flattens every month bucket into one sequence. No order is
// guaranteed; callers sort as needed.
func (s *State) AllTransactions() []Transaction {
	var out []Transaction
	for _, bucket := range s.Transactions {
		out = append(out, bucket...)
	}
	return out
}

// Clone returns a deep copy of the document.
func (s *State) Clone() *State {
	out := &State{
		Theme:       s.Theme,
		Goal:        s.Goal,
		LastUpdated: s.LastUpdated,
	}
	out.Transactions = make(map[types.Month][]Transaction, len(s.Transactions))
	for month, bucket := range s.Transactions {
		copied := make([]Transaction, len(bucket))
		for i, tx := range bucket {
			copied[i] = tx.Clone()
		}
		out.Transactions[month] = copied
	}
	out.Budgets = make(map[string]Budget, len(s.Budgets))
	for cat, b := range s.Budgets {
		out.Budgets[cat] = b.Clone()
	}
	out.Categories = slices.Clone(s.Categories)
	return out
}
