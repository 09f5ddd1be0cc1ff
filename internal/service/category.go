package service

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/saadjs/nutrilog/internal/model"
)

var ErrCategoryExists = errors.New("category already exists")

// mealWindows assigns a category to meals logged without one, by the local
// hour they were eaten. Hours outside every window fall back to snacks.
var mealWindows = []struct {
	category string
	from, to int
}{
	{"breakfast", 4, 11},
	{"lunch", 11, 16},
	{"dinner", 16, 22},
}

const fallbackCategory = "snacks"

func defaultCategoryFor(t time.Time) string {
	h := t.Hour()
	for _, w := range mealWindows {
		if h >= w.from && h < w.to {
			return w.category
		}
	}
	return fallbackCategory
}

// MealWindow describes when meals land in category by default, or "" when
// they never do.
func MealWindow(category string) string {
	for _, w := range mealWindows {
		if w.category == category {
			return fmt.Sprintf("%02d:00-%02d:00", w.from, w.to)
		}
	}
	if category == fallbackCategory {
		return "otherwise"
	}
	return ""
}

func AddCategory(db *sql.DB, name string) (model.Category, error) {
	name = normalizeName(name)
	if name == "" {
		return model.Category{}, fmt.Errorf("category name is required")
	}
	if _, err := categoryIDByName(db, name); err == nil {
		return model.Category{}, fmt.Errorf("add category %q: %w", name, ErrCategoryExists)
	} else if !errors.Is(err, ErrUnknownCategory) {
		return model.Category{}, err
	}
	res, err := db.Exec(`INSERT INTO categories(name, is_default) VALUES(?, 0)`, name)
	if err != nil {
		return model.Category{}, fmt.Errorf("add category %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Category{}, fmt.Errorf("read category id: %w", err)
	}
	return model.Category{ID: id, Name: name}, nil
}

// CategoryUsage is a category with the meals logged under it.
type CategoryUsage struct {
	model.Category
	Meals    int     `json:"meals"`
	Calories float64 `json:"calories"`
	LastDay  string  `json:"last_day,omitempty"`
}

// CategoryUsages lists every category with its meal count and calories, most
// used first. since (YYYY-MM-DD) limits counting to meals on or after that day.
func CategoryUsages(db *sql.DB, since string) ([]CategoryUsage, error) {
	if since != "" {
		day, err := parseDay(since)
		if err != nil {
			return nil, err
		}
		since = day
	}
	rows, err := db.Query(`
SELECT c.id, c.name, c.is_default, COUNT(m.id), IFNULL(SUM(m.calories), 0), IFNULL(MAX(m.consumed_day), '')
FROM categories c
LEFT JOIN meals m ON m.category_id = c.id AND (? = '' OR m.consumed_day >= ?)
GROUP BY c.id, c.name, c.is_default
ORDER BY COUNT(m.id) DESC, c.name`, since, since)
	if err != nil {
		return nil, fmt.Errorf("list category usage: %w", err)
	}
	defer rows.Close()

	usages := make([]CategoryUsage, 0)
	for rows.Next() {
		var u CategoryUsage
		var isDefault int
		if err := rows.Scan(&u.ID, &u.Name, &isDefault, &u.Meals, &u.Calories, &u.LastDay); err != nil {
			return nil, fmt.Errorf("scan category usage: %w", err)
		}
		u.IsDefault = isDefault == 1
		usages = append(usages, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category usage: %w", err)
	}
	return usages, nil
}
