package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/koban-io/koban/internal/cli"
	"github.com/koban-io/koban/internal/model"
	"github.com/koban-io/koban/internal/recurring"
	"github.com/koban-io/koban/internal/types"
)

func recurringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Inspect recurring transactions",
		Long: `Recurring templates post their missed occurrences automatically on
every load. These commands inspect the templates and force a run.`,
	}

	cmd.AddCommand(listRecurringCmd())
	cmd.AddCommand(runRecurringCmd())

	return cmd
}

func listRecurringCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recurrence templates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			var templates []model.Transaction
			for _, tx := range eng.ledger.All() {
				if tx.IsRecurring() {
					templates = append(templates, tx)
				}
			}
			if len(templates) == 0 {
				fmt.Println(cli.InfoStyle.Render("No recurring transactions."))
				return nil
			}

			sort.Slice(templates, func(i, j int) bool {
				return templates[i].NextDue.Before(*templates[j].NextDue)
			})

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintln(w, "NEXT DUE\tINTERVAL\tTYPE\tCATEGORY\tAMOUNT\tNOTE\tID")
			for _, tx := range templates {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					tx.NextDue, tx.Recurring, tx.Type, tx.Category,
					cli.Yen(tx.Amount), tx.Note, cli.SubtleStyle.Render(tx.ID))
			}
			return nil
		},
	}
}

func runRecurringCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Post any missed occurrences now",
		Long: `Force a catch-up run. Loading the ledger already did one, so this
normally posts nothing; it exists to confirm that.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			posted, err := recurring.New(eng.ledger, nil).CatchUp(ctx, types.Today())
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Posted %d transactions", posted)))
			return nil
		},
	}
}
