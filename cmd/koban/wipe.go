package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koban-io/koban/internal/cli"
)

func wipeCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete all persisted data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if !force {
				return fmt.Errorf("refusing to wipe without --force")
			}

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			if err := eng.store.Wipe(ctx); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("All data deleted"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "confirm deletion of all data")

	return cmd
}
