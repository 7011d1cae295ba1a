// Package importer moves transactions and whole documents in and out of
// koban as CSV and JSON.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/koban-io/koban/internal/ledger"
	"github.com/koban-io/koban/internal/model"
	"github.com/koban-io/koban/internal/types"
)

// csvHeader is the column set for transaction CSV files.
var csvHeader = []string{"id", "type", "category", "amount", "date", "note"}

// WriteCSV writes all transactions of the snapshot to w, one row per
// transaction, in no particular order.
func WriteCSV(w io.Writer, state *model.State) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, tx := range state.AllTransactions() {
		row := []string{
			tx.ID,
			string(tx.Type),
			tx.Category,
			strconv.FormatInt(tx.Amount, 10),
			tx.Date.String(),
			tx.Note,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadCSV parses transaction rows from r and adds each through the ledger.
// Columns are located by header name, so column order is free. Imported
// rows get fresh ids; missing fields fall back the same way manual entry
// does (expense, Other, today). Returns the number of imported rows.
func ReadCSV(ctx context.Context, r io.Reader, l *ledger.Ledger) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}

	field := func(row []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	imported := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("failed to read CSV row: %w", err)
		}

		tx := model.Transaction{
			ID:       model.NewID(),
			Type:     model.TxType(field(row, "type")),
			Category: field(row, "category"),
			Note:     field(row, "note"),
		}
		if tx.Type == "" {
			tx.Type = model.TypeExpense
		}
		if tx.Category == "" {
			tx.Category = model.CategoryOther
		}

		if raw := field(row, "amount"); raw != "" {
			amount, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return imported, fmt.Errorf("row %d: invalid amount %q", imported+2, raw)
			}
			tx.Amount = int64(math.Round(amount))
		}

		if raw := field(row, "date"); raw != "" {
			date, err := types.ParseDate(raw)
			if err != nil {
				return imported, fmt.Errorf("row %d: %w", imported+2, err)
			}
			tx.Date = date
		} else {
			tx.Date = types.Today()
		}

		if err := l.Add(ctx, tx); err != nil {
			return imported, fmt.Errorf("row %d: %w", imported+2, err)
		}
		imported++
	}
	return imported, nil
}
