package service

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/saadjs/nutrilog/internal/model"
)

// WeeklySummaries returns one summary per day with logged meals in
// [weekStart, weekStart+6]. Quiet days are omitted, so a quiet week is an empty slice.
// Returned dates are midnight in weekStart's location.
func WeeklySummaries(db *sql.DB, weekStart time.Time) ([]model.DailySummary, error) {
	y, m, d := weekStart.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, weekStart.Location())
	return DaySummaries(db, start, start.AddDate(0, 0, 6))
}

// DaySummaries aggregates meals per calendar day for the inclusive range [from, to].
func DaySummaries(db *sql.DB, from, to time.Time) ([]model.DailySummary, error) {
	if from.After(to) {
		return nil, fmt.Errorf("from date must be <= to date")
	}
	rows, err := db.Query(`
SELECT consumed_day, COUNT(1), SUM(calories), SUM(protein_g), SUM(carbs_g), SUM(fat_g), SUM(fiber_g), SUM(sugar_g), SUM(saturated_fat_g)
FROM meals
WHERE consumed_day >= ? AND consumed_day <= ?
GROUP BY consumed_day
ORDER BY consumed_day ASC
`, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("query day summaries: %w", err)
	}
	defer rows.Close()

	items := make([]model.DailySummary, 0)
	for rows.Next() {
		var s model.DailySummary
		var day string
		if err := rows.Scan(&day, &s.MealCount, &s.TotalCalories, &s.TotalProtein, &s.TotalCarbs, &s.TotalFat, &s.TotalFiber, &s.TotalSugar, &s.TotalSaturatedFat); err != nil {
			return nil, fmt.Errorf("scan day summary: %w", err)
		}
		date, err := time.ParseInLocation(dateLayout, day, from.Location())
		if err != nil {
			return nil, fmt.Errorf("parse summary day %q: %w", day, err)
		}
		s.Date = date
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate day summaries: %w", err)
	}
	return items, nil
}
