package nutrilog

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var evaluateDate string

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Assess a day against goals and thresholds and store the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, rt *session) error {
			d, err := rt.parseDate(evaluateDate)
			if err != nil {
				return err
			}
			if err := rt.settle(ctx, d); err != nil {
				return err
			}
			text, err := rt.ctrl.Evaluate(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evaluateDate, "date", "", "Date YYYY-MM-DD, today or yesterday (default today)")
}
