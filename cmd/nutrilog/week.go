package nutrilog

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutrilog/internal/week"
)

var weekDate string

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Show the Monday to Sunday totals around a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, rt *session) error {
			d, err := rt.parseDate(weekDate)
			if err != nil {
				return err
			}
			if _, err := rt.ctrl.EnsureWeekLoaded(ctx, d); err != nil {
				return err
			}
			k := week.KeyOf(d)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Week of %s\n", week.Format(week.StartOf(k, rt.loc)))
			fmt.Fprintln(out, "DATE\tDAY\tMEALS\tKCAL\tP\tC\tF\tFIBER\tSUGAR")
			var total float64
			for _, day := range week.Dates(k, rt.loc) {
				s := rt.ctrl.GetSummaryForDate(day)
				total += s.TotalCalories
				fmt.Fprintf(out, "%s\t%s\t%d\t%.0f\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\n", week.Format(day), day.Weekday().String()[:3], s.MealCount, s.TotalCalories, s.TotalProtein, s.TotalCarbs, s.TotalFat, s.TotalFiber, s.TotalSugar)
			}
			fmt.Fprintf(out, "Total: %.0f kcal\n", total)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(weekCmd)
	weekCmd.Flags().StringVar(&weekDate, "date", "", "Any date in the week, YYYY-MM-DD (default today)")
}
