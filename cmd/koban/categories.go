package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koban-io/koban/internal/cli"
	"github.com/koban-io/koban/internal/model"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage categories",
		Long: `List, add, rename, and delete categories. Income and Other are
essential and cannot be renamed or deleted.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(renameCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			budgets := eng.ledger.Budgets()
			for _, category := range eng.ledger.Categories() {
				line := category
				if category == model.CategoryIncome || category == model.CategoryOther {
					line += cli.SubtleStyle.Render(" (essential)")
				}
				if _, ok := budgets[category]; ok {
					line += cli.InfoStyle.Render(" [budgeted]")
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}

func addCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			if err := eng.ledger.AddCategory(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Category %q added", args[0])))
			return nil
		},
	}
}

func renameCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a category",
		Long: `Rename a category. Every transaction in the old category is rewritten
to the new name, and its budget moves with it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			if err := eng.ledger.RenameCategory(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Category %q renamed to %q", args[0], args[1])))
			return nil
		},
	}
}

func deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a category",
		Long: `Delete a category. Its transactions move to Other and its budget is
removed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			if err := eng.ledger.DeleteCategory(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Category %q deleted", args[0])))
			return nil
		},
	}
}
