package nutrilog

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutrilog/internal/service"
	"github.com/saadjs/nutrilog/internal/week"
)

var isoWeekPattern = regexp.MustCompile(`^\d{4}-W\d{2}$`)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "View weekly, monthly, and range analytics",
}

var (
	analyticsJSON      bool
	analyticsTolerance float64
)

var weekArg string

var analyticsWeekCmd = &cobra.Command{
	Use:   "week",
	Short: "Weekly trend analytics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalytics(cmd, func(loc *time.Location) (time.Time, time.Time, error) {
			return resolveWeekRange(weekArg, time.Now(), loc)
		})
	},
}

var monthArg string

var analyticsMonthCmd = &cobra.Command{
	Use:   "month",
	Short: "Monthly trend analytics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalytics(cmd, func(loc *time.Location) (time.Time, time.Time, error) {
			return resolveMonthRange(monthArg, time.Now(), loc)
		})
	},
}

var (
	rangeFrom string
	rangeTo   string
)

var analyticsRangeCmd = &cobra.Command{
	Use:   "range",
	Short: "Range trend analytics",
	RunE: func(cmd *cobra.Command, args []string) error {
		if rangeFrom == "" || rangeTo == "" {
			return fmt.Errorf("--from and --to are required")
		}
		return runAnalytics(cmd, func(loc *time.Location) (time.Time, time.Time, error) {
			start, err := time.ParseInLocation("2006-01-02", rangeFrom, loc)
			if err != nil {
				return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date (expected YYYY-MM-DD)")
			}
			end, err := time.ParseInLocation("2006-01-02", rangeTo, loc)
			if err != nil {
				return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date (expected YYYY-MM-DD)")
			}
			return start, end, nil
		})
	},
}

func runAnalytics(cmd *cobra.Command, resolve func(*time.Location) (time.Time, time.Time, error)) error {
	return withApp(cmd.Context(), func(ctx context.Context, rt *session) error {
		from, to, err := resolve(rt.loc)
		if err != nil {
			return err
		}
		report, err := service.AnalyticsRange(rt.store.DB(), from, to, analyticsTolerance)
		if err != nil {
			return err
		}
		if analyticsJSON {
			b, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal analytics json: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		}
		printAnalyticsTable(cmd, report)
		return nil
	})
}

func printAnalyticsTable(cmd *cobra.Command, r *service.AnalyticsReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Range: %s to %s\n", r.FromDate, r.ToDate)
	fmt.Fprintf(out, "Totals: kcal=%.0f P=%.1f C=%.1f F=%.1f fiber=%.1f sugar=%.1f satfat=%.1f\n", r.TotalCalories, r.TotalProtein, r.TotalCarbs, r.TotalFat, r.TotalFiber, r.TotalSugar, r.TotalSaturatedFat)
	fmt.Fprintf(out, "Days with meals: %d\n", r.DaysWithMeals)
	fmt.Fprintf(out, "Averages/day: kcal=%.1f P=%.1f fiber=%.1f\n", r.AverageCaloriesPerDay, r.AverageProteinPerDay, r.AverageFiberPerDay)
	if r.HighestDay != nil && r.LowestDay != nil {
		fmt.Fprintf(out, "Highest day: %s (%.0f kcal)\n", week.Format(r.HighestDay.Date), r.HighestDay.TotalCalories)
		fmt.Fprintf(out, "Lowest day: %s (%.0f kcal)\n", week.Format(r.LowestDay.Date), r.LowestDay.TotalCalories)
	}
	fmt.Fprintf(out, "Adherence: %d/%d days within goals (%.1f%%), %d days without goal\n", r.Adherence.WithinGoalDays, r.Adherence.EvaluatedDays, r.Adherence.PercentWithin, r.Adherence.SkippedGoalDays)

	fmt.Fprintln(out, "\nBy Category")
	fmt.Fprintln(out, "CATEGORY\tMEALS\tKCAL\tP\tC\tF")
	for _, c := range r.ByCategory {
		fmt.Fprintf(out, "%s\t%d\t%.0f\t%.1f\t%.1f\t%.1f\n", c.Category, c.Meals, c.Calories, c.Protein, c.Carbs, c.Fat)
	}
}

// resolveWeekRange parses an ISO week (YYYY-Www). Empty means the week containing now.
func resolveWeekRange(isoWeek string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	if isoWeek == "" {
		start := week.MondayOf(now.In(loc))
		return start, start.AddDate(0, 0, 6), nil
	}
	if !isoWeekPattern.MatchString(isoWeek) {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --week value %q (expected YYYY-Www)", isoWeek)
	}
	var year, weekNum int
	if _, err := fmt.Sscanf(isoWeek, "%4d-W%2d", &year, &weekNum); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --week value %q (expected YYYY-Www)", isoWeek)
	}
	maxWeek := weeksInISOYear(year)
	if weekNum < 1 || weekNum > maxWeek {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --week value %q (week must be between 01 and %02d for %d)", isoWeek, maxWeek, year)
	}
	// January 4th is always in ISO week 1.
	start := week.MondayOf(time.Date(year, 1, 4, 0, 0, 0, 0, loc)).AddDate(0, 0, (weekNum-1)*7)
	return start, start.AddDate(0, 0, 6), nil
}

func resolveMonthRange(month string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	if month == "" {
		now = now.In(loc)
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, -1), nil
	}
	parsed, err := time.ParseInLocation("2006-01", month, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --month value %q (expected YYYY-MM)", month)
	}
	start := time.Date(parsed.Year(), parsed.Month(), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, -1), nil
}

func weeksInISOYear(year int) int {
	_, wk := time.Date(year, 12, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return wk
}

func init() {
	rootCmd.AddCommand(analyticsCmd)
	analyticsCmd.AddCommand(analyticsWeekCmd, analyticsMonthCmd, analyticsRangeCmd)

	for _, c := range []*cobra.Command{analyticsWeekCmd, analyticsMonthCmd, analyticsRangeCmd} {
		c.Flags().BoolVar(&analyticsJSON, "json", false, "Output as JSON")
		c.Flags().Float64Var(&analyticsTolerance, "tolerance", 0.10, "Macro adherence tolerance (0.10 = 10%)")
	}
	analyticsWeekCmd.Flags().StringVar(&weekArg, "week", "", "ISO week in format YYYY-Www")
	analyticsMonthCmd.Flags().StringVar(&monthArg, "month", "", "Month in format YYYY-MM")
	analyticsRangeCmd.Flags().StringVar(&rangeFrom, "from", "", "Start date YYYY-MM-DD")
	analyticsRangeCmd.Flags().StringVar(&rangeTo, "to", "", "End date YYYY-MM-DD")
}
