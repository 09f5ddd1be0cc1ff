package service_test

import (
	"testing"

	"github.com/saadjs/nutrilog/internal/service"
)

func TestEvaluationStoreReplaceAndDelete(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	got, err := service.EvaluationForDate(db, "2026-10-17")
	if err != nil || got != nil {
		t.Fatalf("expected no evaluation, got %+v err=%v", got, err)
	}

	if err := service.SaveEvaluation(db, "2026-10-17", "first take"); err != nil {
		t.Fatalf("save evaluation: %v", err)
	}
	if err := service.SaveEvaluation(db, "2026-10-17", "second take"); err != nil {
		t.Fatalf("replace evaluation: %v", err)
	}
	got, err = service.EvaluationForDate(db, "2026-10-17")
	if err != nil || got == nil || got.Text != "second take" {
		t.Fatalf("expected replaced evaluation, got %+v err=%v", got, err)
	}

	if err := service.SaveEvaluation(db, "2026-10-17", "   "); err == nil {
		t.Fatalf("expected error for blank evaluation")
	}
	if err := service.DeleteEvaluation(db, "2026-10-17"); err != nil {
		t.Fatalf("delete evaluation: %v", err)
	}
	got, err = service.EvaluationForDate(db, "2026-10-17")
	if err != nil || got != nil {
		t.Fatalf("expected evaluation removed, got %+v err=%v", got, err)
	}
}
