package importer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/koban-io/koban/internal/ledger"
	"github.com/koban-io/koban/internal/model"
	"github.com/koban-io/koban/internal/storage"
)

// ExportJSON serializes the whole document, indented for humans.
func ExportJSON(state *model.State) ([]byte, error) {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to export document: %w", err)
	}
	return data, nil
}

// ImportJSON replaces the whole local document with the one in data. The
// same legacy-shape migrations run as on load, so exports from any vintage
// import cleanly. The replacement is saved immediately, which makes it win
// last-writer-wins against other live contexts.
func ImportJSON(ctx context.Context, data []byte, l *ledger.Ledger) error {
	state, err := storage.DecodeDocument(data)
	if err != nil {
		return err
	}
	l.Replace(ctx, state)
	return nil
}
