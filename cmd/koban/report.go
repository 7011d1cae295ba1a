package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/koban-io/koban/internal/cli"
	"github.com/koban-io/koban/internal/report"
	"github.com/koban-io/koban/internal/types"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Derived reports over the ledger",
	}

	cmd.AddCommand(summaryReportCmd())
	cmd.AddCommand(trendReportCmd())
	cmd.AddCommand(projectionReportCmd())
	cmd.AddCommand(topReportCmd())
	cmd.AddCommand(monthsReportCmd())

	return cmd
}

func summaryReportCmd() *cobra.Command {
	var monthFlag string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Totals and category breakdown for one month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			month := types.CurrentMonth()
			if monthFlag != "" {
				month, err = types.ParseMonth(monthFlag)
				if err != nil {
					return err
				}
			}

			state := eng.ledger.Snapshot()
			totals := report.TotalsForMonth(state, month)

			fmt.Println(cli.FormatTitle("Summary " + month.Label()))
			fmt.Printf("Income:   %s\n", cli.IncomeStyle.Render(cli.Yen(totals.Income)))
			fmt.Printf("Expenses: %s\n", cli.ExpenseStyle.Render(cli.Yen(totals.Expense)))
			fmt.Printf("Savings:  %s\n", cli.Yen(totals.Savings))

			spend := report.CategorySpend(state, month)
			if len(spend) == 0 {
				return nil
			}

			categories := make([]string, 0, len(spend))
			for category := range spend {
				categories = append(categories, category)
			}
			sort.Slice(categories, func(i, j int) bool {
				return spend[categories[i]] > spend[categories[j]]
			})

			fmt.Println()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()
			fmt.Fprintln(w, "CATEGORY\tSPENT")
			for _, category := range categories {
				fmt.Fprintf(w, "%s\t%s\n", category, cli.Yen(spend[category]))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&monthFlag, "month", "m", "", "month to summarize (YYYY-MM, default current)")

	return cmd
}

func trendReportCmd() *cobra.Command {
	var months int

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Month-by-month totals, oldest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			state := eng.ledger.Snapshot()
			series := report.TrendSeries(state, months, types.CurrentMonth())

			fmt.Println(cli.FormatTitle(fmt.Sprintf("Trend, last %d months", months)))
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()
			fmt.Fprintln(w, "MONTH\tINCOME\tEXPENSES\tSAVINGS")
			for _, point := range series {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					point.Month,
					cli.Yen(point.Totals.Income),
					cli.Yen(point.Totals.Expense),
					cli.Yen(point.Totals.Savings))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&months, "months", "n", 6, "number of months")

	return cmd
}

func projectionReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projection",
		Short: "Linear projection from per-month averages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			state := eng.ledger.Snapshot()

			fmt.Println(cli.FormatTitle("Projections"))
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()
			fmt.Fprintln(w, "PERIOD\tINCOME\tEXPENSES\tNET")
			for _, period := range []struct {
				label  string
				months int
			}{
				{"3 months", 3},
				{"6 months", 6},
				{"1 year", 12},
			} {
				p := report.Projection(state, period.months)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					period.label, cli.Yen(p.Income), cli.Yen(p.Expense), cli.Yen(p.Savings))
			}
			return nil
		},
	}
}

func topReportCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Top spending categories, all time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			state := eng.ledger.Snapshot()

			fmt.Println(cli.FormatTitle("Top spending"))
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()
			fmt.Fprintln(w, "CATEGORY\tSPENT")
			for _, entry := range report.TopSpending(state, limit) {
				fmt.Fprintf(w, "%s\t%s\n", entry.Category, cli.Yen(entry.Amount))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 5, "number of categories")

	return cmd
}

func monthsReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "months",
		Short: "List months that have data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			state := eng.ledger.Snapshot()
			for _, month := range report.MonthsWithData(state) {
				totals := report.TotalsForMonth(state, month)
				fmt.Printf("%s\t%s\n", month, cli.Yen(totals.Savings))
			}
			return nil
		},
	}
}
