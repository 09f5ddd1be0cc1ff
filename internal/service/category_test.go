package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/saadjs/nutrilog/internal/service"
)

func TestCategoryLifecycle(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	supper, err := service.AddCategory(db, " Supper ")
	if err != nil {
		t.Fatalf("add category: %v", err)
	}
	if supper.Name != "supper" || supper.ID == 0 {
		t.Fatalf("unexpected category %+v", supper)
	}
	if _, err := service.AddCategory(db, "supper"); !errors.Is(err, service.ErrCategoryExists) {
		t.Fatalf("expected ErrCategoryExists, got %v", err)
	}
	if _, err := service.AddCategory(db, "  "); err == nil {
		t.Fatalf("expected blank category to fail")
	}

	id, err := service.CreateMeal(db, service.MealInput{
		Name:     "Stew",
		Calories: 610,
		Category: "supper",
		Consumed: time.Date(2026, 10, 14, 20, 0, 0, 0, time.Local),
	})
	if err != nil {
		t.Fatalf("create meal in custom category: %v", err)
	}
	m, err := service.MealByID(db, id)
	if err != nil {
		t.Fatalf("meal by id: %v", err)
	}
	if m.Category != "supper" {
		t.Fatalf("expected supper, got %q", m.Category)
	}
}

func TestCategoryUsages(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	meals := []service.MealInput{
		{Name: "Oats", Calories: 400, Consumed: time.Date(2026, 10, 12, 8, 0, 0, 0, time.Local)},
		{Name: "Eggs", Calories: 300, Consumed: time.Date(2026, 10, 14, 7, 30, 0, 0, time.Local)},
		{Name: "Chips", Calories: 250, Consumed: time.Date(2026, 10, 14, 23, 0, 0, 0, time.Local)},
	}
	for _, in := range meals {
		if _, err := service.CreateMeal(db, in); err != nil {
			t.Fatalf("create meal %s: %v", in.Name, err)
		}
	}

	usages, err := service.CategoryUsages(db, "")
	if err != nil {
		t.Fatalf("category usages: %v", err)
	}
	if len(usages) != 4 {
		t.Fatalf("expected 4 default categories, got %+v", usages)
	}
	top := usages[0]
	if top.Name != "breakfast" || top.Meals != 2 || top.Calories != 700 || top.LastDay != "2026-10-14" || !top.IsDefault {
		t.Fatalf("unexpected top category %+v", top)
	}
	if usages[1].Name != "snacks" || usages[1].Meals != 1 {
		t.Fatalf("expected late meal under snacks, got %+v", usages[1])
	}
	for _, u := range usages[2:] {
		if u.Meals != 0 || u.Calories != 0 || u.LastDay != "" {
			t.Fatalf("expected unused category, got %+v", u)
		}
	}

	recent, err := service.CategoryUsages(db, "2026-10-13")
	if err != nil {
		t.Fatalf("category usages since: %v", err)
	}
	if recent[0].Name != "breakfast" || recent[0].Meals != 1 || recent[0].Calories != 300 {
		t.Fatalf("expected only the later breakfast, got %+v", recent[0])
	}
	if _, err := service.CategoryUsages(db, "13/10/2026"); err == nil {
		t.Fatalf("expected invalid since date to fail")
	}
}

func TestMealWindow(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"breakfast": "04:00-11:00",
		"dinner":    "16:00-22:00",
		"snacks":    "otherwise",
		"supper":    "",
	}
	for category, want := range cases {
		if got := service.MealWindow(category); got != want {
			t.Fatalf("MealWindow(%q) = %q, want %q", category, got, want)
		}
	}
}

func TestCreateMealUnknownCategory(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	_, err := service.CreateMeal(db, service.MealInput{
		Name:     "Mystery",
		Calories: 100,
		Category: "elevenses",
		Consumed: time.Date(2026, 10, 14, 11, 0, 0, 0, time.Local),
	})
	if !errors.Is(err, service.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}
