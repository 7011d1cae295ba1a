package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/koban-io/koban/internal/cli"
	"github.com/koban-io/koban/internal/importer"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import transactions from CSV or a whole document from JSON",
		Long: `Import a file. A .json file replaces the whole document (and wins
against other contexts); anything else is read as transaction CSV and
appended through the ledger.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			path := args[0]
			if strings.HasSuffix(strings.ToLower(path), ".json") {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				if err := importer.ImportJSON(ctx, data, eng.ledger); err != nil {
					return err
				}
				fmt.Println(cli.FormatSuccess("Document imported"))
				return nil
			}

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			defer func() { _ = f.Close() }()

			count, err := importer.ReadCSV(ctx, f, eng.ledger)
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d transactions", count)))
			return nil
		},
	}
}
