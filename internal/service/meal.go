package service

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/saadjs/nutrilog/internal/model"
)

var ErrMealNotFound = errors.New("meal not found")

const mealColumns = `m.id, m.name, m.description, m.calories, m.protein_g, m.carbs_g, m.fat_g, m.fiber_g, m.sugar_g, m.saturated_fat_g, m.sodium_mg, m.category_id, c.name, m.consumed_at, IFNULL(m.notes, ''), m.source_type`

// MealInput carries the writable fields of a meal. Consumed must already be in the
// location whose calendar defines the meal's day.
type MealInput struct {
	Name          string
	Description   string
	Calories      float64
	ProteinG      float64
	CarbsG        float64
	FatG          float64
	FiberG        float64
	SugarG        float64
	SaturatedFatG float64
	SodiumMg      float64
	Category      string
	Consumed      time.Time
	Notes         string
	SourceType    string
}

type ListMealsFilter struct {
	Date     string
	FromDate string
	ToDate   string
	Category string
	Limit    int
}

func MealInputFrom(m model.Meal) MealInput {
	return MealInput{
		Name:          m.Name,
		Description:   m.Description,
		Calories:      m.Calories,
		ProteinG:      m.ProteinG,
		CarbsG:        m.CarbsG,
		FatG:          m.FatG,
		FiberG:        m.FiberG,
		SugarG:        m.SugarG,
		SaturatedFatG: m.SaturatedFatG,
		SodiumMg:      m.SodiumMg,
		Category:      m.Category,
		Consumed:      m.ConsumedAt,
		Notes:         m.Notes,
		SourceType:    m.SourceType,
	}
}

func CreateMeal(db *sql.DB, in MealInput) (int64, error) {
	if in.Consumed.IsZero() {
		in.Consumed = time.Now()
	}
	if err := validateMealInput(&in); err != nil {
		return 0, err
	}
	categoryID, err := categoryIDByName(db, in.Category)
	if err != nil {
		return 0, err
	}

	res, err := db.Exec(`
INSERT INTO meals(name, description, calories, protein_g, carbs_g, fat_g, fiber_g, sugar_g, saturated_fat_g, sodium_mg, category_id, consumed_at, consumed_day, notes, source_type)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, in.Name, in.Description, in.Calories, in.ProteinG, in.CarbsG, in.FatG, in.FiberG, in.SugarG, in.SaturatedFatG, in.SodiumMg,
		categoryID, in.Consumed.Format(time.RFC3339), in.Consumed.Format(dateLayout), in.Notes, in.SourceType)
	if err != nil {
		return 0, fmt.Errorf("insert meal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolve inserted meal id: %w", err)
	}
	return id, nil
}

func UpdateMeal(db *sql.DB, id int64, in MealInput) error {
	if id <= 0 {
		return fmt.Errorf("meal id must be > 0")
	}
	if in.Consumed.IsZero() {
		return fmt.Errorf("consumed time is required")
	}
	if err := validateMealInput(&in); err != nil {
		return err
	}
	categoryID, err := categoryIDByName(db, in.Category)
	if err != nil {
		return err
	}

	res, err := db.Exec(`
UPDATE meals
SET name = ?, description = ?, calories = ?, protein_g = ?, carbs_g = ?, fat_g = ?, fiber_g = ?, sugar_g = ?, saturated_fat_g = ?, sodium_mg = ?,
    category_id = ?, consumed_at = ?, consumed_day = ?, notes = ?, source_type = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`, in.Name, in.Description, in.Calories, in.ProteinG, in.CarbsG, in.FatG, in.FiberG, in.SugarG, in.SaturatedFatG, in.SodiumMg,
		categoryID, in.Consumed.Format(time.RFC3339), in.Consumed.Format(dateLayout), in.Notes, in.SourceType, id)
	if err != nil {
		return fmt.Errorf("update meal %d: %w", id, err)
	}
	return requireAffected(res, id)
}

func DeleteMeal(db *sql.DB, id int64) error {
	if id <= 0 {
		return fmt.Errorf("meal id must be > 0")
	}
	res, err := db.Exec(`DELETE FROM meals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete meal %d: %w", id, err)
	}
	return requireAffected(res, id)
}

func MealByID(db *sql.DB, id int64) (*model.Meal, error) {
	if id <= 0 {
		return nil, fmt.Errorf("meal id must be > 0")
	}
	rows, err := db.Query(`SELECT `+mealColumns+`
FROM meals m
JOIN categories c ON c.id = m.category_id
WHERE m.id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get meal %d: %w", id, err)
	}
	meals, err := scanMeals(rows)
	if err != nil {
		return nil, err
	}
	if len(meals) == 0 {
		return nil, fmt.Errorf("meal %d: %w", id, ErrMealNotFound)
	}
	return &meals[0], nil
}

// MealsForDate returns the meals whose calendar day is date, oldest first.
func MealsForDate(db *sql.DB, date string) ([]model.Meal, error) {
	day, err := parseDay(date)
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(`SELECT `+mealColumns+`
FROM meals m
JOIN categories c ON c.id = m.category_id
WHERE m.consumed_day = ?
ORDER BY m.consumed_at ASC, m.id ASC`, day)
	if err != nil {
		return nil, fmt.Errorf("list meals for %s: %w", day, err)
	}
	return scanMeals(rows)
}

func ListMeals(db *sql.DB, f ListMealsFilter) ([]model.Meal, error) {
	if strings.TrimSpace(f.Date) != "" && (strings.TrimSpace(f.FromDate) != "" || strings.TrimSpace(f.ToDate) != "") {
		return nil, fmt.Errorf("--date cannot be combined with --from or --to")
	}

	query := `SELECT ` + mealColumns + `
FROM meals m
JOIN categories c ON c.id = m.category_id
WHERE 1=1`
	args := make([]any, 0)

	if strings.TrimSpace(f.Date) != "" {
		day, err := parseDay(f.Date)
		if err != nil {
			return nil, err
		}
		query += ` AND m.consumed_day = ?`
		args = append(args, day)
	}
	if strings.TrimSpace(f.FromDate) != "" {
		from, err := parseDay(f.FromDate)
		if err != nil {
			return nil, err
		}
		query += ` AND m.consumed_day >= ?`
		args = append(args, from)
	}
	if strings.TrimSpace(f.ToDate) != "" {
		to, err := parseDay(f.ToDate)
		if err != nil {
			return nil, err
		}
		query += ` AND m.consumed_day <= ?`
		args = append(args, to)
	}
	if strings.TrimSpace(f.Category) != "" {
		query += ` AND c.name = ?`
		args = append(args, normalizeName(f.Category))
	}
	query += ` ORDER BY m.consumed_at DESC, m.id DESC`

	if f.Limit <= 0 {
		f.Limit = 50
	}
	query += ` LIMIT ?`
	args = append(args, f.Limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	return scanMeals(rows)
}

// FirstMealDate returns the earliest logged calendar day, if any.
func FirstMealDate(db *sql.DB) (string, bool, error) {
	var day sql.NullString
	if err := db.QueryRow(`SELECT MIN(consumed_day) FROM meals`).Scan(&day); err != nil {
		return "", false, fmt.Errorf("query first meal date: %w", err)
	}
	if !day.Valid || day.String == "" {
		return "", false, nil
	}
	return day.String, true, nil
}

func scanMeals(rows *sql.Rows) ([]model.Meal, error) {
	defer rows.Close()
	meals := make([]model.Meal, 0)
	for rows.Next() {
		var m model.Meal
		var consumedAtRaw string
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Calories, &m.ProteinG, &m.CarbsG, &m.FatG, &m.FiberG, &m.SugarG, &m.SaturatedFatG, &m.SodiumMg,
			&m.CategoryID, &m.Category, &consumedAtRaw, &m.Notes, &m.SourceType); err != nil {
			return nil, fmt.Errorf("scan meal: %w", err)
		}
		consumedAt, err := time.Parse(time.RFC3339, consumedAtRaw)
		if err != nil {
			return nil, fmt.Errorf("parse consumed_at for meal %d: %w", m.ID, err)
		}
		m.ConsumedAt = consumedAt
		meals = append(meals, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meals: %w", err)
	}
	return meals, nil
}

func validateMealInput(in *MealInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("meal name is required")
	}
	in.Description = strings.TrimSpace(in.Description)
	in.Notes = strings.TrimSpace(in.Notes)
	checks := []struct {
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
		{"sodium", in.SodiumMg},
	}
	for _, c := range checks {
		if err := validateNonNegativeFloat(c.name, c.value); err != nil {
			return err
		}
	}
	if in.SaturatedFatG > in.FatG {
		return fmt.Errorf("saturated fat cannot exceed total fat")
	}
	if strings.TrimSpace(in.Category) == "" {
		in.Category = defaultCategoryFor(in.Consumed)
	}
	in.SourceType = strings.TrimSpace(in.SourceType)
	if in.SourceType == "" {
		in.SourceType = "manual"
	}
	return nil
}

func requireAffected(res sql.Result, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read rows affected for meal %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("meal %d: %w", id, ErrMealNotFound)
	}
	return nil
}
