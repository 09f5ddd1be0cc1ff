package service_test

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/saadjs/nutrilog/internal/db"
	"github.com/saadjs/nutrilog/internal/service"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nutrilog.db")
	sqldb, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return sqldb
}

func seedMeal(t *testing.T, sqldb *sql.DB, name string, kcal float64, at time.Time) int64 {
	t.Helper()
	id, err := service.CreateMeal(sqldb, service.MealInput{
		Name:     name,
		Calories: kcal,
		ProteinG: kcal / 20,
		CarbsG:   kcal / 10,
		FatG:     kcal / 40,
		FiberG:   2,
		SugarG:   3,
		Consumed: at,
	})
	if err != nil {
		t.Fatalf("create meal %s: %v", name, err)
	}
	return id
}
