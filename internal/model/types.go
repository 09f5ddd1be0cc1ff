package model

import "time"

// Category groups meals; the default ones are seeded by migrations.
type Category struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

// Meal is one logged meal with its extracted nutrition.
type Meal struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Calories      float64   `json:"calories"`
	ProteinG      float64   `json:"protein_g"`
	CarbsG        float64   `json:"carbs_g"`
	FatG          float64   `json:"fat_g"`
	FiberG        float64   `json:"fiber_g"`
	SugarG        float64   `json:"sugar_g"`
	SaturatedFatG float64   `json:"saturated_fat_g"`
	SodiumMg      float64   `json:"sodium_mg"`
	CategoryID    int64     `json:"category_id,omitempty"`
	Category      string    `json:"category"`
	ConsumedAt    time.Time `json:"consumed_at"`
	Notes         string    `json:"notes,omitempty"`
	SourceType    string    `json:"source_type"`
}

type Goals struct {
	ID            int64     `json:"id,omitempty"`
	Calories      float64   `json:"calories"`
	ProteinG      float64   `json:"protein_g"`
	CarbsG        float64   `json:"carbs_g"`
	FatG          float64   `json:"fat_g"`
	FiberG        float64   `json:"fiber_g"`
	SugarG        float64   `json:"sugar_g"`
	SaturatedFatG float64   `json:"saturated_fat_g"`
	EffectiveDate string    `json:"effective_date,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}

// IsZero reports whether no goal has been configured.
func (g Goals) IsZero() bool {
	return g.Calories == 0 && g.ProteinG == 0 && g.CarbsG == 0 && g.FatG == 0 &&
		g.FiberG == 0 && g.SugarG == 0 && g.SaturatedFatG == 0
}

// Settings are per-user thresholds used when evaluating a day.
type Settings struct {
	MinFiberG        float64 `json:"min_fiber_g"`
	MaxSugarG        float64 `json:"max_sugar_g"`
	MaxSaturatedFatG float64 `json:"max_saturated_fat_g"`
	CalorieTolerance float64 `json:"calorie_tolerance"`
}

// Evaluation is the stored, uninterpreted assessment of one day.
type Evaluation struct {
	Date      string    `json:"date"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
