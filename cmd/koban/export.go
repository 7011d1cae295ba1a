package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/koban-io/koban/internal/cli"
	"github.com/koban-io/koban/internal/importer"
)

func exportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:       "export [json|csv]",
		Short:     "Export the document as JSON or the transactions as CSV",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"json", "csv"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			out := os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer func() { _ = f.Close() }()
				out = f
			}

			state := eng.ledger.Snapshot()
			switch args[0] {
			case "json":
				data, err := importer.ExportJSON(state)
				if err != nil {
					return err
				}
				if _, err := out.Write(append(data, '\n')); err != nil {
					return err
				}
			case "csv":
				if err := importer.WriteCSV(out, state); err != nil {
					return err
				}
			}

			if output != "" {
				fmt.Println(cli.FormatSuccess("Exported to " + output))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	return cmd
}
