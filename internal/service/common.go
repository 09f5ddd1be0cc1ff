// Package service implements nutrilog's persistence operations over SQLite.
package service

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var ErrUnknownCategory = errors.New("category does not exist")

func validateNonNegativeFloat(name string, value float64) error {
	if value < 0 {
		return fmt.Errorf("%s must be >= 0", name)
	}
	return nil
}

func normalizeName(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}

func parseDay(value string) (string, error) {
	value = strings.TrimSpace(value)
	if _, err := time.Parse(dateLayout, value); err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return value, nil
}

func categoryIDByName(db *sql.DB, category string) (int64, error) {
	name := normalizeName(category)
	if name == "" {
		return 0, fmt.Errorf("category name is required")
	}
	var id int64
	if err := db.QueryRow(`SELECT id FROM categories WHERE name = ?`, name).Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("category %q: %w", name, ErrUnknownCategory)
		}
		return 0, fmt.Errorf("lookup category %q: %w", name, err)
	}
	return id, nil
}
