package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koban-io/koban/internal/cli"
	"github.com/koban-io/koban/internal/model"
)

func themeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark]",
		Short:     "Show or set the color theme",
		Long:      `The theme travels with the document, so every context sharing the data directory follows it.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"light", "dark"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			if len(args) == 0 {
				fmt.Println(string(eng.ledger.Snapshot().Theme))
				return nil
			}

			theme := model.Theme(args[0])
			if err := eng.ledger.SetTheme(ctx, theme); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("Theme set to " + args[0]))
			return nil
		},
	}
}
