package service_test

import (
	"testing"
	"time"

	"github.com/saadjs/nutrilog/internal/service"
)

func TestWeeklySummariesOnlyActiveDays(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	monday := time.Date(2026, 10, 12, 0, 0, 0, 0, time.Local)
	seedMeal(t, db, "breakfast", 300, monday.Add(8*time.Hour))
	seedMeal(t, db, "dinner", 700, monday.Add(19*time.Hour))
	seedMeal(t, db, "sunday roast", 900, monday.AddDate(0, 0, 6).Add(13*time.Hour))
	seedMeal(t, db, "next monday", 400, monday.AddDate(0, 0, 7).Add(8*time.Hour))
	seedMeal(t, db, "previous sunday", 400, monday.AddDate(0, 0, -1).Add(20*time.Hour))

	days, err := service.WeeklySummaries(db, monday)
	if err != nil {
		t.Fatalf("weekly summaries: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 active days, got %d", len(days))
	}
	if days[0].MealCount != 2 || days[0].TotalCalories != 1000 {
		t.Fatalf("unexpected monday summary %+v", days[0])
	}
	if !days[1].SameDay(monday.AddDate(0, 0, 6)) || days[1].TotalCalories != 900 {
		t.Fatalf("unexpected sunday summary %+v", days[1])
	}
	if days[0].TotalFiber != 4 || days[0].TotalSugar != 6 {
		t.Fatalf("expected fiber/sugar totals, got %+v", days[0])
	}
}

func TestWeeklySummariesEmptyWeek(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	days, err := service.WeeklySummaries(db, time.Date(2026, 1, 5, 0, 0, 0, 0, time.Local))
	if err != nil {
		t.Fatalf("weekly summaries: %v", err)
	}
	if days == nil || len(days) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", days)
	}
}
