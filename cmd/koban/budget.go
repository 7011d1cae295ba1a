package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/koban-io/koban/internal/cli"
	"github.com/koban-io/koban/internal/model"
	"github.com/koban-io/koban/internal/types"
)

func budgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage per-category budgets",
	}

	cmd.AddCommand(setBudgetCmd())
	cmd.AddCommand(listBudgetsCmd())
	cmd.AddCommand(deleteBudgetCmd())

	return cmd
}

func setBudgetCmd() *cobra.Command {
	var (
		amount    int64
		spent     int64
		month     string
		notes     string
		postSpent bool
	)

	cmd := &cobra.Command{
		Use:   "set <category>",
		Short: "Create or replace a budget",
		Long: `Create or replace the budget for a category. With --post-spent, a
recorded spent amount also posts a matching expense transaction dated
today.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			budget := model.Budget{
				Amount: amount,
				Spent:  spent,
				Notes:  notes,
			}
			if month != "" {
				m, err := types.ParseMonth(month)
				if err != nil {
					return err
				}
				budget.Month = &m
			}

			if err := eng.ledger.SetBudget(ctx, args[0], budget, postSpent); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Budget for %s set to %s",
				args[0], cli.Yen(amount))))
			return nil
		},
	}

	cmd.Flags().Int64VarP(&amount, "amount", "a", 0, "allocated amount in whole yen")
	cmd.Flags().Int64VarP(&spent, "spent", "s", 0, "already-spent amount in whole yen")
	cmd.Flags().StringVarP(&month, "month", "m", "", "month tag (YYYY-MM)")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "free-text notes")
	cmd.Flags().BoolVar(&postSpent, "post-spent", false, "post the spent amount as an expense transaction")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func listBudgetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List budgets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			budgets := eng.ledger.Budgets()
			if len(budgets) == 0 {
				fmt.Println(cli.InfoStyle.Render("No budgets set. Use 'koban budget set' to create one."))
				return nil
			}

			categories := make([]string, 0, len(budgets))
			for category := range budgets {
				categories = append(categories, category)
			}
			sort.Strings(categories)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintln(w, "CATEGORY\tBUDGET\tSPENT\tREMAINING\tMONTH\tNOTES")
			for _, category := range categories {
				b := budgets[category]
				remaining := b.Amount - b.Spent
				remainingText := cli.Yen(remaining)
				if remaining < 0 {
					remainingText = cli.ErrorStyle.Render(remainingText)
				}
				monthTag := ""
				if b.Month != nil {
					monthTag = b.Month.String()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					category, cli.Yen(b.Amount), cli.Yen(b.Spent), remainingText, monthTag, b.Notes)
			}
			return nil
		},
	}
}

func deleteBudgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <category>",
		Short: "Delete a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			eng.ledger.DeleteBudget(ctx, args[0])
			fmt.Println(cli.FormatSuccess("Budget deleted"))
			return nil
		},
	}
}
