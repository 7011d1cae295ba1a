package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koban-io/koban/internal/cli"
	"github.com/koban-io/koban/internal/model"
	"github.com/koban-io/koban/internal/report"
	"github.com/koban-io/koban/internal/types"
)

func goalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage the savings-rate goal",
	}

	cmd.AddCommand(setGoalCmd())
	cmd.AddCommand(showGoalCmd())

	return cmd
}

func setGoalCmd() *cobra.Command {
	var (
		income int64
		rate   float64
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the monthly income target and savings rate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			goal := model.Goal{Income: income, Rate: rate}
			if err := eng.ledger.SetGoal(ctx, goal); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Goal set: keep %.0f%% of %s",
				rate, cli.Yen(income))))
			return nil
		},
	}

	cmd.Flags().Int64VarP(&income, "income", "i", 0, "monthly income target in whole yen")
	cmd.Flags().Float64VarP(&rate, "rate", "r", 0, "savings rate to keep, 0-100 percent")

	return cmd
}

func showGoalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show progress against the goal this month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer eng.Close()

			state := eng.ledger.Snapshot()
			month := types.CurrentMonth()
			progress := report.GoalForMonth(state, month)

			fmt.Println(cli.FormatTitle("Savings goal " + month.Label()))
			if progress.Target == 0 {
				fmt.Println(cli.InfoStyle.Render("No goal set. Use 'koban goal set' to create one."))
				return nil
			}

			fmt.Printf("Target savings: %s\n", cli.Yen(progress.Target))
			fmt.Printf("Actual savings: %s (%.1f%%)\n", cli.Yen(progress.Actual), progress.Percent)
			if progress.Achieved {
				fmt.Println(cli.FormatSuccess("Goal met"))
			} else {
				fmt.Println(cli.FormatWarning("Goal not met yet"))
			}
			return nil
		},
	}
}
