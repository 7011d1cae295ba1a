package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/koban-io/koban/internal/cli"
	"github.com/koban-io/koban/internal/ledger"
	"github.com/koban-io/koban/internal/model"
	"github.com/koban-io/koban/internal/types"
)

func txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Manage transactions",
		Long:  `Add, list, edit, and delete income and expense transactions.`,
	}

	cmd.AddCommand(addTxCmd())
	cmd.AddCommand(listTxCmd())
	cmd.AddCommand(editTxCmd())
	cmd.AddCommand(deleteTxCmd())

	return cmd
}

func addTxCmd() *cobra.Command {
	var (
		txType    string
		category  string
		amount    int64
		date      string
		note      string
		recurring string
		nextDue   string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			tx := model.Transaction{
				ID:       model.NewID(),
				Type:     model.TxType(txType),
				Category: category,
				Amount:   amount,
				Note:     note,
				Date:     types.Today(),
			}
			if tx.Category == "" {
				tx.Category = model.CategoryOther
			}
			if date != "" {
				tx.Date, err = types.ParseDate(date)
				if err != nil {
					return err
				}
			}
			if recurring != "" && recurring != string(model.RecurNone) {
				tx.Recurring = model.Recurrence(recurring)
				if nextDue != "" {
					due, err := types.ParseDate(nextDue)
					if err != nil {
						return err
					}
					tx.NextDue = &due
				}
			}

			if err := eng.ledger.Add(ctx, tx); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Recorded %s %s in %s (%s)",
				txType, cli.Yen(tx.Amount), tx.Category, tx.Date)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&txType, "type", "t", "expense", "transaction type (income, expense)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category name (created if new)")
	cmd.Flags().Int64VarP(&amount, "amount", "a", 0, "amount in whole yen")
	cmd.Flags().StringVarP(&date, "date", "d", "", "date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&note, "note", "n", "", "free-text note")
	cmd.Flags().StringVar(&recurring, "recurring", "none", "recurrence (none, weekly, monthly, yearly)")
	cmd.Flags().StringVar(&nextDue, "next-due", "", "first due date for the recurrence")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func listTxCmd() *cobra.Command {
	var (
		monthFilter    string
		categoryFilter string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			var txs []model.Transaction
			if monthFilter != "" {
				month, err := types.ParseMonth(monthFilter)
				if err != nil {
					return err
				}
				txs = eng.ledger.ForMonth(month)
			} else {
				txs = eng.ledger.All()
			}

			if categoryFilter != "" {
				filtered := txs[:0]
				for _, tx := range txs {
					if tx.Category == categoryFilter {
						filtered = append(filtered, tx)
					}
				}
				txs = filtered
			}

			if len(txs) == 0 {
				fmt.Println(cli.InfoStyle.Render("No transactions found."))
				return nil
			}

			// Newest first.
			sort.Slice(txs, func(i, j int) bool { return txs[j].Date.Before(txs[i].Date) })

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintln(w, "DATE\tTYPE\tCATEGORY\tAMOUNT\tNOTE\tID")
			for _, tx := range txs {
				amount := cli.Yen(tx.Amount)
				if tx.Type == model.TypeExpense {
					amount = cli.ExpenseStyle.Render("-" + amount)
				} else {
					amount = cli.IncomeStyle.Render("+" + amount)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					tx.Date, tx.Type, tx.Category, amount, tx.Note, cli.SubtleStyle.Render(tx.ID))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&monthFilter, "month", "m", "", "only this month (YYYY-MM)")
	cmd.Flags().StringVarP(&categoryFilter, "category", "c", "", "only this category")

	return cmd
}

func editTxCmd() *cobra.Command {
	var (
		txType    string
		category  string
		amount    int64
		date      string
		note      string
		recurring string
		nextDue   string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a transaction",
		Long: `Edit fields of an existing transaction. Only the flags you pass change;
moving the date into another month relocates the transaction to that
month's bucket.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			id := args[0]
			if _, ok := eng.ledger.Get(id); !ok {
				return fmt.Errorf("no transaction with id %s", id)
			}

			var patch ledger.TxPatch
			if cmd.Flags().Changed("type") {
				t := model.TxType(txType)
				patch.Type = &t
			}
			if cmd.Flags().Changed("category") {
				patch.Category = &category
			}
			if cmd.Flags().Changed("amount") {
				patch.Amount = &amount
			}
			if cmd.Flags().Changed("date") {
				d, err := types.ParseDate(date)
				if err != nil {
					return err
				}
				patch.Date = &d
			}
			if cmd.Flags().Changed("note") {
				patch.Note = &note
			}
			if cmd.Flags().Changed("recurring") {
				r := model.Recurrence(recurring)
				patch.Recurring = &r
			}
			if cmd.Flags().Changed("next-due") {
				d, err := types.ParseDate(nextDue)
				if err != nil {
					return err
				}
				patch.NextDue = &d
			}

			if err := eng.ledger.Update(ctx, id, patch); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("Transaction updated"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&txType, "type", "t", "", "transaction type (income, expense)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category name")
	cmd.Flags().Int64VarP(&amount, "amount", "a", 0, "amount in whole yen")
	cmd.Flags().StringVarP(&date, "date", "d", "", "date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&note, "note", "n", "", "free-text note")
	cmd.Flags().StringVar(&recurring, "recurring", "", "recurrence (none, weekly, monthly, yearly)")
	cmd.Flags().StringVar(&nextDue, "next-due", "", "next due date for the recurrence")

	return cmd
}

func deleteTxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			eng.ledger.Delete(ctx, args[0])
			fmt.Println(cli.FormatSuccess("Transaction deleted"))
			return nil
		},
	}
}
