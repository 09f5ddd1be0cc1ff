package nutrilog

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/saadjs/nutrilog/internal/model"
	"github.com/saadjs/nutrilog/internal/service"
	"github.com/saadjs/nutrilog/internal/week"
)

const mealTimeLayout = "2006-01-02 15:04"

var mealCmd = &cobra.Command{
	Use:   "meal",
	Short: "Log, list and change meals",
}

// mealFlags backs the nutrition flags shared by meal add and meal edit.
type mealFlags struct {
	name         string
	description  string
	calories     float64
	protein      float64
	carbs        float64
	fat          float64
	fiber        float64
	sugar        float64
	saturatedFat float64
	sodium       float64
	category     string
	date         string
	time         string
	notes        string
}

func (f *mealFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Meal name")
	cmd.Flags().StringVar(&f.description, "description", "", "Free text description")
	cmd.Flags().Float64Var(&f.calories, "calories", 0, "Calories")
	cmd.Flags().Float64Var(&f.protein, "protein", 0, "Protein grams")
	cmd.Flags().Float64Var(&f.carbs, "carbs", 0, "Carbs grams")
	cmd.Flags().Float64Var(&f.fat, "fat", 0, "Fat grams")
	cmd.Flags().Float64Var(&f.fiber, "fiber", 0, "Fiber grams")
	cmd.Flags().Float64Var(&f.sugar, "sugar", 0, "Sugar grams")
	cmd.Flags().Float64Var(&f.saturatedFat, "saturated-fat", 0, "Saturated fat grams")
	cmd.Flags().Float64Var(&f.sodium, "sodium", 0, "Sodium milligrams")
	cmd.Flags().StringVar(&f.category, "category", "", "Category name (default by time of day)")
	cmd.Flags().StringVar(&f.date, "date", "", "Date in YYYY-MM-DD")
	cmd.Flags().StringVar(&f.time, "time", "", "Time in HH:MM")
	cmd.Flags().StringVar(&f.notes, "notes", "", "Optional notes")
}

// apply copies every flag the user set onto m.
func (f *mealFlags) apply(cmd *cobra.Command, m *model.Meal) {
	changed := cmd.Flags().Changed
	if changed("name") {
		m.Name = f.name
	}
	if changed("description") {
		m.Description = f.description
	}
	for flag, dst := range map[string]struct {
		src *float64
		out *float64
	}{
		"calories":      {&f.calories, &m.Calories},
		"protein":       {&f.protein, &m.ProteinG},
		"carbs":         {&f.carbs, &m.CarbsG},
		"fat":           {&f.fat, &m.FatG},
		"fiber":         {&f.fiber, &m.FiberG},
		"sugar":         {&f.sugar, &m.SugarG},
		"saturated-fat": {&f.saturatedFat, &m.SaturatedFatG},
		"sodium":        {&f.sodium, &m.SodiumMg},
	} {
		if changed(flag) {
			*dst.out = *dst.src
		}
	}
	if changed("category") {
		m.Category = f.category
	}
	if changed("notes") {
		m.Notes = f.notes
	}
}

var addFlags mealFlags

var mealAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Log a meal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, rt *session) error {
			consumed, err := parseDateTimeOrNow(addFlags.date, addFlags.time, rt.loc)
			if err != nil {
				return err
			}
			meal := model.Meal{ConsumedAt: consumed, SourceType: "manual"}
			addFlags.apply(cmd, &meal)

			// Logging happens from the meal's own day.
			if err := rt.settle(ctx, consumed); err != nil {
				return err
			}
			created, err := rt.ctrl.AddMeal(ctx, meal)
			if created.ID == 0 {
				return err
			}
			if err != nil {
				rt.log.Warn(ctx, "meal saved but reload failed", zap.Error(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added meal %d\n", created.ID)
			return nil
		})
	},
}

var (
	listDate     string
	listFromDate string
	listToDate   string
	listCategory string
	listLimit    int
)

var mealListCmd = &cobra.Command{
	Use:   "list",
	Short: "List meals",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := service.ListMealsFilter{
			Date:     listDate,
			FromDate: listFromDate,
			ToDate:   listToDate,
			Category: listCategory,
			Limit:    listLimit,
		}
		return withApp(cmd.Context(), func(ctx context.Context, rt *session) error {
			meals, err := service.ListMeals(rt.store.DB(), filter)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tDATE\tCATEGORY\tNAME\tKCAL\tP\tC\tF\tSOURCE")
			for _, m := range meals {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\t%.0f\t%.1f\t%.1f\t%.1f\t%s\n", m.ID, m.ConsumedAt.In(rt.loc).Format(mealTimeLayout), m.Category, m.Name, m.Calories, m.ProteinG, m.CarbsG, m.FatG, m.SourceType)
			}
			return nil
		})
	},
}

var mealShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single meal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("meal id", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(ctx context.Context, rt *session) error {
			m, err := rt.store.FetchMeal(ctx, id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID: %d\n", m.ID)
			fmt.Fprintf(out, "Date: %s\n", m.ConsumedAt.In(rt.loc).Format(mealTimeLayout))
			fmt.Fprintf(out, "Category: %s\n", m.Category)
			fmt.Fprintf(out, "Name: %s\n", m.Name)
			if m.Description != "" {
				fmt.Fprintf(out, "Description: %s\n", m.Description)
			}
			fmt.Fprintf(out, "Calories: %.0f\n", m.Calories)
			fmt.Fprintf(out, "Protein: %.1f\nCarbs: %.1f\nFat: %.1f\n", m.ProteinG, m.CarbsG, m.FatG)
			fmt.Fprintf(out, "Fiber: %.1f\nSugar: %.1f\nSaturated fat: %.1f\nSodium: %.0fmg\n", m.FiberG, m.SugarG, m.SaturatedFatG, m.SodiumMg)
			fmt.Fprintf(out, "Source: %s\n", m.SourceType)
			fmt.Fprintf(out, "Notes: %s\n", m.Notes)
			return nil
		})
	},
}

var editFlags mealFlags

var mealEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a meal; only the flags given are updated",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("meal id", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(ctx context.Context, rt *session) error {
			before, err := rt.store.FetchMeal(ctx, id)
			if err != nil {
				return err
			}
			after := before
			editFlags.apply(cmd, &after)
			if cmd.Flags().Changed("date") || cmd.Flags().Changed("time") {
				date, clock := editFlags.date, editFlags.time
				if date == "" {
					date = week.Format(before.ConsumedAt)
				}
				if clock == "" {
					clock = before.ConsumedAt.Format("15:04")
				}
				consumed, err := parseDateTimeOrNow(date, clock, rt.loc)
				if err != nil {
					return err
				}
				after.ConsumedAt = consumed
			}

			if err := rt.settle(ctx, before.ConsumedAt); err != nil {
				return err
			}
			if err := rt.ctrl.EditMeal(ctx, before, after); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated meal %d\n", id)
			return nil
		})
	},
}

var mealDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a meal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("meal id", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(ctx context.Context, rt *session) error {
			meal, err := rt.store.FetchMeal(ctx, id)
			if err != nil {
				return err
			}
			if err := rt.settle(ctx, meal.ConsumedAt); err != nil {
				return err
			}
			if err := rt.ctrl.DeleteMeal(ctx, meal); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted meal %d\n", id)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(mealCmd)
	mealCmd.AddCommand(mealAddCmd, mealListCmd, mealShowCmd, mealEditCmd, mealDeleteCmd)

	addFlags.register(mealAddCmd)
	_ = mealAddCmd.MarkFlagRequired("name")
	_ = mealAddCmd.MarkFlagRequired("calories")
	editFlags.register(mealEditCmd)

	mealListCmd.Flags().StringVar(&listDate, "date", "", "Filter by date YYYY-MM-DD")
	mealListCmd.Flags().StringVar(&listFromDate, "from", "", "Filter from date YYYY-MM-DD")
	mealListCmd.Flags().StringVar(&listToDate, "to", "", "Filter to date YYYY-MM-DD")
	mealListCmd.Flags().StringVar(&listCategory, "category", "", "Filter by category")
	mealListCmd.Flags().IntVar(&listLimit, "limit", 50, "Result limit")
}
