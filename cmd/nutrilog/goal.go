package nutrilog

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutrilog/internal/service"
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage daily nutrition goals",
}

var (
	goalCalories     float64
	goalProtein      float64
	goalCarbs        float64
	goalFat          float64
	goalFiber        float64
	goalSugar        float64
	goalSaturatedFat float64
	goalDate         string
)

var goalSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set daily goals with an effective date",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := service.SetGoalInput{
			Calories:      goalCalories,
			ProteinG:      goalProtein,
			CarbsG:        goalCarbs,
			FatG:          goalFat,
			FiberG:        goalFiber,
			SugarG:        goalSugar,
			SaturatedFatG: goalSaturatedFat,
			EffectiveDate: goalDate,
		}
		return withDB(func(sqldb *sql.DB) error {
			if err := service.SetGoal(sqldb, in); err != nil {
				return err
			}
			if in.EffectiveDate == "" {
				in.EffectiveDate = "today"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set goal effective %s\n", in.EffectiveDate)
			return nil
		})
	},
}

var currentGoalDate string

var goalShowCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"current"},
	Short:   "Show the goal in effect",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			goal, err := service.CurrentGoal(sqldb, currentGoalDate)
			if err != nil {
				return err
			}
			if goal == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No goal configured")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Effective: %s\nCalories: %.0f\nProtein: %.1fg\nCarbs: %.1fg\nFat: %.1fg\n", goal.EffectiveDate, goal.Calories, goal.ProteinG, goal.CarbsG, goal.FatG)
			if goal.FiberG > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Fiber: %.1fg\n", goal.FiberG)
			}
			if goal.SugarG > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Sugar: %.1fg\n", goal.SugarG)
			}
			if goal.SaturatedFatG > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Saturated fat: %.1fg\n", goal.SaturatedFatG)
			}
			return nil
		})
	},
}

var goalHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show goal history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			goals, err := service.GoalHistory(sqldb)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "DATE\tKCAL\tP\tC\tF\tFIBER\tSUGAR\tSATFAT")
			for _, g := range goals {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.0f\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\n", g.EffectiveDate, g.Calories, g.ProteinG, g.CarbsG, g.FatG, g.FiberG, g.SugarG, g.SaturatedFatG)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(goalCmd)
	goalCmd.AddCommand(goalSetCmd, goalShowCmd, goalHistoryCmd)

	goalSetCmd.Flags().Float64Var(&goalCalories, "calories", 0, "Daily calorie target")
	goalSetCmd.Flags().Float64Var(&goalProtein, "protein", 0, "Daily protein target grams")
	goalSetCmd.Flags().Float64Var(&goalCarbs, "carbs", 0, "Daily carbs target grams")
	goalSetCmd.Flags().Float64Var(&goalFat, "fat", 0, "Daily fat target grams")
	goalSetCmd.Flags().Float64Var(&goalFiber, "fiber", 0, "Daily fiber minimum grams (0 uses min_fiber_g)")
	goalSetCmd.Flags().Float64Var(&goalSugar, "sugar", 0, "Daily sugar maximum grams (0 uses max_sugar_g)")
	goalSetCmd.Flags().Float64Var(&goalSaturatedFat, "saturated-fat", 0, "Daily saturated fat maximum grams (0 uses max_saturated_fat_g)")
	goalSetCmd.Flags().StringVar(&goalDate, "effective-date", "", "Effective date YYYY-MM-DD (default today)")
	_ = goalSetCmd.MarkFlagRequired("calories")
	_ = goalSetCmd.MarkFlagRequired("protein")
	_ = goalSetCmd.MarkFlagRequired("carbs")
	_ = goalSetCmd.MarkFlagRequired("fat")

	goalShowCmd.Flags().StringVar(&currentGoalDate, "date", "", "Resolve goal at date YYYY-MM-DD (default today)")
}
