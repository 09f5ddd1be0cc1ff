package nutrilog

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutrilog/internal/model"
	"github.com/saadjs/nutrilog/internal/week"
)

var dayDate string

var dayCmd = &cobra.Command{
	Use:   "day",
	Short: "Show one day's totals, meals and evaluation",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, rt *session) error {
			d, err := rt.parseDate(dayDate)
			if err != nil {
				return err
			}
			if err := rt.settle(ctx, d); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printSummary(out, rt.ctrl.GetSummaryForDate(d))

			meals := rt.ctrl.Meals()
			if len(meals) > 0 {
				fmt.Fprintln(out, "\nID\tTIME\tCATEGORY\tNAME\tKCAL\tP\tC\tF")
				for _, m := range meals {
					fmt.Fprintf(out, "%d\t%s\t%s\t%s\t%.0f\t%.1f\t%.1f\t%.1f\n", m.ID, m.ConsumedAt.In(rt.loc).Format("15:04"), m.Category, m.Name, m.Calories, m.ProteinG, m.CarbsG, m.FatG)
				}
			}
			if text, ok := rt.ctrl.Evaluation(d); ok {
				fmt.Fprintf(out, "\nEvaluation:\n%s\n", text)
			}
			return nil
		})
	},
}

func printSummary(out io.Writer, s model.DailySummary) {
	fmt.Fprintf(out, "Date: %s\n", week.Format(s.Date))
	if s.IsEmpty() {
		fmt.Fprintln(out, "No meals logged")
		return
	}
	fmt.Fprintf(out, "Meals: %d\n", s.MealCount)
	fmt.Fprintf(out, "Calories: %.0f\n", s.TotalCalories)
	fmt.Fprintf(out, "Protein: %.1fg\nCarbs: %.1fg\nFat: %.1fg\n", s.TotalProtein, s.TotalCarbs, s.TotalFat)
	fmt.Fprintf(out, "Fiber: %.1fg\nSugar: %.1fg\nSaturated fat: %.1fg\n", s.TotalFiber, s.TotalSugar, s.TotalSaturatedFat)
}

func init() {
	rootCmd.AddCommand(dayCmd)
	dayCmd.Flags().StringVar(&dayDate, "date", "", "Date YYYY-MM-DD, today or yesterday (default today)")
}
