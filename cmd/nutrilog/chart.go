package nutrilog

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutrilog/internal/week"
)

const chartBarWidth = 40

var chartDays int

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Draw daily calories for the most recent days of history",
	RunE: func(cmd *cobra.Command, args []string) error {
		if chartDays <= 0 {
			return fmt.Errorf("--days must be > 0")
		}
		return withApp(cmd.Context(), func(ctx context.Context, rt *session) error {
			if err := rt.win.Load(ctx); err != nil {
				return err
			}
			last := rt.win.JumpToToday(ctx)
			from := last - chartDays + 1
			rt.win.Visible(ctx, from, last)
			rt.win.Wait()

			bars := rt.win.Bars(from, last)
			maxKcal := 0
			for _, b := range bars {
				maxKcal = max(maxKcal, int(math.Round(b.Summary.TotalCalories)))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "History: %s to %s (%d days)\n", week.Format(rt.win.Start()), week.Format(rt.win.Today()), rt.win.TotalDays())
			for _, b := range bars {
				kcal := int(math.Round(b.Summary.TotalCalories))
				if !b.Loaded {
					fmt.Fprintf(out, "%s\t%s\t?\n", week.Format(b.Date), b.Date.Weekday().String()[:3])
					continue
				}
				fmt.Fprintf(out, "%s\t%s\t%5d\t%s\n", week.Format(b.Date), b.Date.Weekday().String()[:3], kcal, horizontalBar(kcal, maxKcal, chartBarWidth))
			}
			return nil
		})
	},
}

func horizontalBar(value, maxValue, width int) string {
	if width <= 0 || maxValue <= 0 || value <= 0 {
		return ""
	}
	bars := int(math.Round((float64(value) / float64(maxValue)) * float64(width)))
	if bars == 0 {
		bars = 1
	}
	return strings.Repeat("#", bars)
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.Flags().IntVar(&chartDays, "days", 14, "Number of days to draw, ending today")
}
