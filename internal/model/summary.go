package model

import "time"

// DailySummary is the nutrition logged on one calendar day. Calories are kcal,
// everything else grams.
type DailySummary struct {
	Date              time.Time `json:"date"`
	MealCount         int       `json:"meal_count"`
	TotalCalories     float64   `json:"total_calories"`
	TotalProtein      float64   `json:"total_protein_g"`
	TotalCarbs        float64   `json:"total_carbs_g"`
	TotalFat          float64   `json:"total_fat_g"`
	TotalFiber        float64   `json:"total_fiber_g"`
	TotalSugar        float64   `json:"total_sugar_g"`
	TotalSaturatedFat float64   `json:"total_saturated_fat_g"`
}

// EmptySummary is the zero-data sentinel for date. It is returned instead of nil
// whenever nothing is known about a day.
func EmptySummary(date time.Time) DailySummary {
	y, m, d := date.Date()
	return DailySummary{Date: time.Date(y, m, d, 0, 0, 0, 0, date.Location())}
}

func (s DailySummary) IsEmpty() bool {
	return s.MealCount == 0 &&
		s.TotalCalories == 0 &&
		s.TotalProtein == 0 &&
		s.TotalCarbs == 0 &&
		s.TotalFat == 0 &&
		s.TotalFiber == 0 &&
		s.TotalSugar == 0 &&
		s.TotalSaturatedFat == 0
}

// SameDay reports whether the summary belongs to the calendar date of t.
func (s DailySummary) SameDay(t time.Time) bool {
	ay, am, ad := s.Date.Date()
	by, bm, bd := t.Date()
	return ay == by && am == bm && ad == bd
}

// SummarizeMeals folds meals into a summary for date. Meals on other days are ignored.
func SummarizeMeals(date time.Time, meals []Meal) DailySummary {
	out := EmptySummary(date)
	for _, m := range meals {
		if !out.SameDay(m.ConsumedAt.In(date.Location())) {
			continue
		}
		out.MealCount++
		out.TotalCalories += m.Calories
		out.TotalProtein += m.ProteinG
		out.TotalCarbs += m.CarbsG
		out.TotalFat += m.FatG
		out.TotalFiber += m.FiberG
		out.TotalSugar += m.SugarG
		out.TotalSaturatedFat += m.SaturatedFatG
	}
	return out
}
