package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koban-io/koban/internal/cli"
	"github.com/koban-io/koban/internal/model"
	"github.com/koban-io/koban/internal/report"
	"github.com/koban-io/koban/internal/types"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow changes made by other contexts",
		Long: `Stay running and apply every state saved by other processes sharing
the data directory (or the AMQP exchange, when configured), printing the
month summary after each accepted update. Stop with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			printSummary := func(state *model.State) {
				month := types.CurrentMonth()
				totals := report.TotalsForMonth(state, month)
				fmt.Printf("%s income %s, expenses %s, savings %s\n",
					month,
					cli.Yen(totals.Income),
					cli.Yen(totals.Expense),
					cli.Yen(totals.Savings))
			}

			fmt.Println(cli.FormatTitle("Watching for changes"))
			printSummary(eng.ledger.Snapshot())

			eng.syncer.OnApply(printSummary)
			if err := eng.syncer.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}
