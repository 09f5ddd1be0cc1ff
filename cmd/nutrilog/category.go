package nutrilog

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutrilog/internal/service"
)

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Manage meal categories",
}

var categoryAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a custom meal category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			c, err := service.AddCategory(sqldb, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added category %q (id %d)\n", c.Name, c.ID)
			return nil
		})
	},
}

var categorySince string

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories with the meals logged under each",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			usages, err := service.CategoryUsages(sqldb, categorySince)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "NAME\tDEFAULT\tAUTO\tMEALS\tKCAL\tLAST")
			for _, u := range usages {
				fmt.Fprintf(out, "%s\t%s\t%s\t%d\t%.0f\t%s\n",
					u.Name, yesNo(u.IsDefault), orDash(service.MealWindow(u.Name)), u.Meals, u.Calories, orDash(u.LastDay))
			}
			return nil
		})
	},
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	rootCmd.AddCommand(categoryCmd)
	categoryCmd.AddCommand(categoryAddCmd, categoryListCmd)

	categoryListCmd.Flags().StringVar(&categorySince, "since", "", "Only count meals on or after YYYY-MM-DD")
}
