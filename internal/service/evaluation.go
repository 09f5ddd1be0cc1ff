package service

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/saadjs/nutrilog/internal/model"
)

// SaveEvaluation stores body for day, replacing any previous evaluation.
func SaveEvaluation(db *sql.DB, day, body string) error {
	day, err := parseDay(day)
	if err != nil {
		return err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return fmt.Errorf("evaluation text is required")
	}
	if _, err := db.Exec(`
INSERT INTO day_evaluations(day, body, created_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(day) DO UPDATE SET body=excluded.body, created_at=excluded.created_at
`, day, body); err != nil {
		return fmt.Errorf("save evaluation for %s: %w", day, err)
	}
	return nil
}

// EvaluationForDate returns the stored evaluation for day, or nil.
func EvaluationForDate(db *sql.DB, day string) (*model.Evaluation, error) {
	day, err := parseDay(day)
	if err != nil {
		return nil, err
	}
	var e model.Evaluation
	err = db.QueryRow(`SELECT day, body, created_at FROM day_evaluations WHERE day = ?`, day).Scan(&e.Date, &e.Text, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get evaluation for %s: %w", day, err)
	}
	return &e, nil
}

func DeleteEvaluation(db *sql.DB, day string) error {
	day, err := parseDay(day)
	if err != nil {
		return err
	}
	if _, err := db.Exec(`DELETE FROM day_evaluations WHERE day = ?`, day); err != nil {
		return fmt.Errorf("delete evaluation for %s: %w", day, err)
	}
	return nil
}
