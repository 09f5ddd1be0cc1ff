package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/saadjs/nutrilog/internal/model"
)

type SetGoalInput struct {
	Calories      float64
	ProteinG      float64
	CarbsG        float64
	FatG          float64
	FiberG        float64
	SugarG        float64
	SaturatedFatG float64
	EffectiveDate string
}

const goalColumns = `id, calories, protein_g, carbs_g, fat_g, fiber_g, sugar_g, saturated_fat_g, effective_date, created_at`

func SetGoal(db *sql.DB, in SetGoalInput) error {
	for _, c := range []struct {
		name  string
		value float64
	}{
		{"calories", in.Calories},
		{"protein", in.ProteinG},
		{"carbs", in.CarbsG},
		{"fat", in.FatG},
		{"fiber", in.FiberG},
		{"sugar", in.SugarG},
		{"saturated fat", in.SaturatedFatG},
	} {
		if err := validateNonNegativeFloat(c.name, c.value); err != nil {
			return err
		}
	}
	in.EffectiveDate = strings.TrimSpace(in.EffectiveDate)
	if in.EffectiveDate == "" {
		in.EffectiveDate = time.Now().Format(dateLayout)
	}
	if _, err := time.Parse(dateLayout, in.EffectiveDate); err != nil {
		return fmt.Errorf("invalid effective date %q (expected YYYY-MM-DD)", in.EffectiveDate)
	}

	_, err := db.Exec(`
INSERT INTO goals(calories, protein_g, carbs_g, fat_g, fiber_g, sugar_g, saturated_fat_g, effective_date)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(effective_date) DO UPDATE SET
  calories=excluded.calories,
  protein_g=excluded.protein_g,
  carbs_g=excluded.carbs_g,
  fat_g=excluded.fat_g,
  fiber_g=excluded.fiber_g,
  sugar_g=excluded.sugar_g,
  saturated_fat_g=excluded.saturated_fat_g
`, in.Calories, in.ProteinG, in.CarbsG, in.FatG, in.FiberG, in.SugarG, in.SaturatedFatG, in.EffectiveDate)
	if err != nil {
		return fmt.Errorf("set goal: %w", err)
	}
	return nil
}

// CurrentGoal returns the goal in effect on date, or nil when none was set yet.
func CurrentGoal(db *sql.DB, date string) (*model.Goals, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		date = time.Now().Format(dateLayout)
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", date)
	}

	var g model.Goals
	err := db.QueryRow(`
SELECT `+goalColumns+`
FROM goals
WHERE effective_date <= ?
ORDER BY effective_date DESC
LIMIT 1
`, date).Scan(&g.ID, &g.Calories, &g.ProteinG, &g.CarbsG, &g.FatG, &g.FiberG, &g.SugarG, &g.SaturatedFatG, &g.EffectiveDate, &g.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("current goal for %s: %w", date, err)
	}
	return &g, nil
}

func GoalHistory(db *sql.DB) ([]model.Goals, error) {
	rows, err := db.Query(`SELECT ` + goalColumns + ` FROM goals ORDER BY effective_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list goal history: %w", err)
	}
	defer rows.Close()

	goals := make([]model.Goals, 0)
	for rows.Next() {
		var g model.Goals
		if err := rows.Scan(&g.ID, &g.Calories, &g.ProteinG, &g.CarbsG, &g.FatG, &g.FiberG, &g.SugarG, &g.SaturatedFatG, &g.EffectiveDate, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan goal history: %w", err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goal history: %w", err)
	}
	return goals, nil
}

// AdherenceWithin reports whether actual is within tolerance of target.
func AdherenceWithin(actual float64, target float64, tolerance float64) bool {
	if target == 0 {
		return actual == 0
	}
	lower := target * (1 - tolerance)
	upper := target * (1 + tolerance)
	return actual >= lower && actual <= upper
}
