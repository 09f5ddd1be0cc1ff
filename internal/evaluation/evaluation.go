// Package evaluation turns a day's totals into a short written assessment.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/saadjs/nutrilog/internal/model"
)

// ErrNoMeals is returned when there is nothing to evaluate.
var ErrNoMeals = errors.New("no meals logged")

// Input is everything an evaluator may look at for one day.
type Input struct {
	Date     time.Time
	Summary  model.DailySummary
	Goals    model.Goals
	Settings model.Settings
	Meals    []model.Meal
}

// Rules evaluates a day against the user's goals and thresholds without any
// external service. It never fails transiently.
type Rules struct{}

func (Rules) Evaluate(ctx context.Context, in Input) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s := in.Summary
	if s.IsEmpty() {
		return "", fmt.Errorf("evaluate %s: %w", in.Date.Format("2006-01-02"), ErrNoMeals)
	}

	var notes []string
	tol := in.Settings.CalorieTolerance
	if g := in.Goals; g.Calories > 0 {
		notes = append(notes, compare("calories", s.TotalCalories, g.Calories, tol, "kcal"))
	}
	if g := in.Goals; g.ProteinG > 0 {
		notes = append(notes, compare("protein", s.TotalProtein, g.ProteinG, tol, "g"))
	}
	if g := in.Goals; g.CarbsG > 0 {
		notes = append(notes, compare("carbs", s.TotalCarbs, g.CarbsG, tol, "g"))
	}
	if g := in.Goals; g.FatG > 0 {
		notes = append(notes, compare("fat", s.TotalFat, g.FatG, tol, "g"))
	}

	minFiber := in.Settings.MinFiberG
	if in.Goals.FiberG > 0 {
		minFiber = in.Goals.FiberG
	}
	if minFiber > 0 && s.TotalFiber < minFiber {
		notes = append(notes, fmt.Sprintf("fiber low: %.0fg of at least %.0fg", s.TotalFiber, minFiber))
	}
	maxSugar := in.Settings.MaxSugarG
	if in.Goals.SugarG > 0 {
		maxSugar = in.Goals.SugarG
	}
	if maxSugar > 0 && s.TotalSugar > maxSugar {
		notes = append(notes, fmt.Sprintf("sugar high: %.0fg over a %.0fg limit", s.TotalSugar, maxSugar))
	}
	maxSat := in.Settings.MaxSaturatedFatG
	if in.Goals.SaturatedFatG > 0 {
		maxSat = in.Goals.SaturatedFatG
	}
	if maxSat > 0 && s.TotalSaturatedFat > maxSat {
		notes = append(notes, fmt.Sprintf("saturated fat high: %.0fg over a %.0fg limit", s.TotalSaturatedFat, maxSat))
	}

	issues := 0
	for _, n := range notes {
		if !strings.HasSuffix(n, "on target") {
			issues++
		}
	}

	var b strings.Builder
	switch {
	case in.Goals.IsZero():
		fmt.Fprintf(&b, "%s: %d meals, %.0f kcal. No goals set.", in.Date.Format("2006-01-02"), s.MealCount, s.TotalCalories)
	case issues == 0:
		fmt.Fprintf(&b, "%s: on track.", in.Date.Format("2006-01-02"))
	default:
		fmt.Fprintf(&b, "%s: %d item(s) need attention.", in.Date.Format("2006-01-02"), issues)
	}
	for _, n := range notes {
		b.WriteString("\n- ")
		b.WriteString(n)
	}
	return b.String(), nil
}

func compare(label string, actual, target, tolerance float64, unit string) string {
	diff := (actual - target) / target
	switch {
	case math.Abs(diff) <= tolerance:
		return fmt.Sprintf("%s %.0f%s of %.0f%s on target", label, actual, unit, target, unit)
	case diff > 0:
		return fmt.Sprintf("%s over: %.0f%s of %.0f%s", label, actual, unit, target, unit)
	default:
		return fmt.Sprintf("%s under: %.0f%s of %.0f%s", label, actual, unit, target, unit)
	}
}
