package service

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/saadjs/nutrilog/internal/model"
)

type CategoryBreakdown struct {
	Category string  `json:"category"`
	Meals    int     `json:"meals"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein_g"`
	Carbs    float64 `json:"carbs_g"`
	Fat      float64 `json:"fat_g"`
}

type AnalyticsReport struct {
	FromDate              string               `json:"from_date"`
	ToDate                string               `json:"to_date"`
	TotalCalories         float64              `json:"total_calories"`
	TotalProtein          float64              `json:"total_protein_g"`
	TotalCarbs            float64              `json:"total_carbs_g"`
	TotalFat              float64              `json:"total_fat_g"`
	TotalFiber            float64              `json:"total_fiber_g"`
	TotalSugar            float64              `json:"total_sugar_g"`
	TotalSaturatedFat     float64              `json:"total_saturated_fat_g"`
	DaysWithMeals         int                  `json:"days_with_meals"`
	AverageCaloriesPerDay float64              `json:"avg_calories_per_day"`
	AverageProteinPerDay  float64              `json:"avg_protein_per_day"`
	AverageFiberPerDay    float64              `json:"avg_fiber_per_day"`
	HighestDay            *model.DailySummary  `json:"highest_day,omitempty"`
	LowestDay             *model.DailySummary  `json:"lowest_day,omitempty"`
	Adherence             AdherenceSummary     `json:"adherence"`
	ByCategory            []CategoryBreakdown  `json:"by_category"`
	Days                  []model.DailySummary `json:"days"`
}

type AdherenceSummary struct {
	EvaluatedDays   int     `json:"evaluated_days"`
	WithinGoalDays  int     `json:"within_goal_days"`
	PercentWithin   float64 `json:"percent_within_goal"`
	SkippedGoalDays int     `json:"days_without_goal"`
}

// AnalyticsRange reports totals, averages and goal adherence over [from, to].
func AnalyticsRange(db *sql.DB, from, to time.Time, tolerance float64) (*AnalyticsReport, error) {
	if from.After(to) {
		return nil, fmt.Errorf("from date must be <= to date")
	}
	report := &AnalyticsReport{
		FromDate: from.Format(dateLayout),
		ToDate:   to.Format(dateLayout),
	}

	days, err := DaySummaries(db, from, to)
	if err != nil {
		return nil, err
	}
	report.Days = days
	report.DaysWithMeals = len(days)

	for _, d := range days {
		report.TotalCalories += d.TotalCalories
		report.TotalProtein += d.TotalProtein
		report.TotalCarbs += d.TotalCarbs
		report.TotalFat += d.TotalFat
		report.TotalFiber += d.TotalFiber
		report.TotalSugar += d.TotalSugar
		report.TotalSaturatedFat += d.TotalSaturatedFat
	}
	if report.DaysWithMeals > 0 {
		div := float64(report.DaysWithMeals)
		report.AverageCaloriesPerDay = report.TotalCalories / div
		report.AverageProteinPerDay = report.TotalProtein / div
		report.AverageFiberPerDay = report.TotalFiber / div
		report.HighestDay, report.LowestDay = extremeDays(days)
	}

	categories, err := loadCategoryBreakdown(db, from, to)
	if err != nil {
		return nil, err
	}
	report.ByCategory = categories

	adherence, err := calculateAdherence(db, days, tolerance)
	if err != nil {
		return nil, err
	}
	report.Adherence = adherence
	return report, nil
}

func loadCategoryBreakdown(db *sql.DB, from, to time.Time) ([]CategoryBreakdown, error) {
	rows, err := db.Query(`
SELECT c.name, COUNT(1), SUM(m.calories), SUM(m.protein_g), SUM(m.carbs_g), SUM(m.fat_g)
FROM meals m
JOIN categories c ON c.id = m.category_id
WHERE m.consumed_day >= ? AND m.consumed_day <= ?
GROUP BY c.name
ORDER BY SUM(m.calories) DESC
`, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("query category breakdown: %w", err)
	}
	defer rows.Close()

	items := make([]CategoryBreakdown, 0)
	for rows.Next() {
		var c CategoryBreakdown
		if err := rows.Scan(&c.Category, &c.Meals, &c.Calories, &c.Protein, &c.Carbs, &c.Fat); err != nil {
			return nil, fmt.Errorf("scan category breakdown: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category breakdown: %w", err)
	}
	return items, nil
}

func calculateAdherence(db *sql.DB, days []model.DailySummary, tolerance float64) (AdherenceSummary, error) {
	out := AdherenceSummary{}
	for _, d := range days {
		goal, err := CurrentGoal(db, d.Date.Format(dateLayout))
		if err != nil {
			return out, err
		}
		if goal == nil {
			out.SkippedGoalDays++
			continue
		}
		out.EvaluatedDays++
		if d.TotalCalories <= goal.Calories &&
			AdherenceWithin(d.TotalProtein, goal.ProteinG, tolerance) &&
			AdherenceWithin(d.TotalCarbs, goal.CarbsG, tolerance) &&
			AdherenceWithin(d.TotalFat, goal.FatG, tolerance) {
			out.WithinGoalDays++
		}
	}
	if out.EvaluatedDays > 0 {
		out.PercentWithin = (float64(out.WithinGoalDays) / float64(out.EvaluatedDays)) * 100
	}
	return out, nil
}

func extremeDays(days []model.DailySummary) (*model.DailySummary, *model.DailySummary) {
	if len(days) == 0 {
		return nil, nil
	}
	copied := make([]model.DailySummary, len(days))
	copy(copied, days)
	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].TotalCalories < copied[j].TotalCalories
	})
	low := copied[0]
	high := copied[len(copied)-1]
	return &high, &low
}
