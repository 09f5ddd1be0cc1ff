package httpapi_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saadjs/nutrilog/internal/aggregate"
	"github.com/saadjs/nutrilog/internal/cache"
	"github.com/saadjs/nutrilog/internal/chart"
	"github.com/saadjs/nutrilog/internal/db"
	"github.com/saadjs/nutrilog/internal/evaluation"
	"github.com/saadjs/nutrilog/internal/httpapi"
	"github.com/saadjs/nutrilog/internal/model"
	"github.com/saadjs/nutrilog/internal/store"
)

var now = time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

type env struct {
	handler http.Handler
	ctrl    *aggregate.Controller
}

func newEnv(t *testing.T) *env {
	t.Helper()
	sqldb, err := db.OpenMigrated(filepath.Join(t.TempDir(), "nutrilog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqldb.Close() })

	reg := prometheus.NewRegistry()
	s := store.NewSQLite(sqldb, time.UTC)
	ctrl := aggregate.New(s, aggregate.Options{
		Location:    time.UTC,
		Metrics:     cache.NewMetrics(reg),
		Evaluator:   evaluation.Rules{},
		Evaluations: s,
	})
	win := chart.New(ctrl, s, chart.Options{Now: func() time.Time { return now }})
	require.NoError(t, win.Load(context.Background()))
	t.Cleanup(func() {
		win.Wait()
		ctrl.Wait()
	})

	srv := httpapi.New(httpapi.Deps{
		Controller: ctrl,
		Window:     win,
		Meals:      s,
		Gatherer:   reg,
		Now:        func() time.Time { return now },
	})
	return &env{handler: srv.Handler(), ctrl: ctrl}
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type dayBody struct {
	Date       string             `json:"date"`
	Summary    model.DailySummary `json:"summary"`
	Meals      []model.Meal       `json:"meals"`
	Evaluation string             `json:"evaluation"`
}

func (e *env) addMeal(t *testing.T, name string, kcal float64, at time.Time) model.Meal {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/meals", gin.H{
		"name": name, "calories": kcal, "protein_g": 20, "fat_g": 10, "consumed_at": at,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.Meal](t, rec)
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestCreateMealThenGetDay(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	created := e.addMeal(t, "lunch bowl", 500, time.Date(2026, 10, 17, 12, 30, 0, 0, time.UTC))
	assert.NotZero(t, created.ID)
	assert.Equal(t, "lunch", created.Category)

	rec := e.do(t, http.MethodGet, "/api/days/2026-10-17", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	day := decode[dayBody](t, rec)
	assert.Equal(t, "2026-10-17", day.Date)
	assert.Equal(t, 500.0, day.Summary.TotalCalories)
	require.Len(t, day.Meals, 1)
	assert.Equal(t, created.ID, day.Meals[0].ID)

	rec = e.do(t, http.MethodGet, "/api/days/today", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-10-17", decode[dayBody](t, rec).Date)
}

func TestGetDayRejectsBadDate(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/api/days/17-10-2026", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateMealValidation(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	tests := []struct {
		name string
		body gin.H
	}{
		{"missing name", gin.H{"calories": 100}},
		{"negative calories", gin.H{"name": "x", "calories": -1}},
		{"saturated over total fat", gin.H{"name": "x", "fat_g": 2, "saturated_fat_g": 3}},
		{"unknown category", gin.H{"name": "x", "category": "elevenses"}},
	}
	for _, tt := range tests {
		rec := e.do(t, http.MethodPost, "/api/meals", tt.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tt.name)
	}
}

func TestGetWeekReturnsSevenDays(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.addMeal(t, "pasta", 700, time.Date(2026, 10, 14, 19, 0, 0, 0, time.UTC))

	rec := e.do(t, http.MethodGet, "/api/weeks/2026-10-17", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		WeekStart string               `json:"week_start"`
		Days      []model.DailySummary `json:"days"`
	}](t, rec)
	assert.Equal(t, "2026-10-12", body.WeekStart)
	require.Len(t, body.Days, 7)
	assert.Equal(t, 700.0, body.Days[2].TotalCalories)
	assert.True(t, body.Days[0].IsEmpty())
}

func TestUpdateMealMovesItAcrossWeeks(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	meal := e.addMeal(t, "curry", 800, time.Date(2026, 10, 5, 19, 0, 0, 0, time.UTC))

	rec := e.do(t, http.MethodPut, "/api/meals/"+itoa(meal.ID), gin.H{
		"name": "curry", "calories": 850, "fat_g": 10,
		"consumed_at": time.Date(2026, 10, 17, 19, 0, 0, 0, time.UTC),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 850.0, decode[model.Meal](t, rec).Calories)

	old := decode[dayBody](t, e.do(t, http.MethodGet, "/api/days/2026-10-05", nil))
	assert.True(t, old.Summary.IsEmpty())
	assert.Empty(t, old.Meals)

	moved := decode[dayBody](t, e.do(t, http.MethodGet, "/api/days/2026-10-17", nil))
	assert.Equal(t, 850.0, moved.Summary.TotalCalories)
	require.Len(t, moved.Meals, 1)
}

func TestDeleteMeal(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	meal := e.addMeal(t, "cake", 450, time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC))

	rec := e.do(t, http.MethodDelete, "/api/meals/"+itoa(meal.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	day := decode[dayBody](t, e.do(t, http.MethodGet, "/api/days/2026-10-16", nil))
	assert.True(t, day.Summary.IsEmpty())

	rec = e.do(t, http.MethodDelete, "/api/meals/"+itoa(meal.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = e.do(t, http.MethodDelete, "/api/meals/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChartWindow(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.addMeal(t, "pasta", 700, time.Date(2026, 10, 17, 19, 0, 0, 0, time.UTC))

	rec := e.do(t, http.MethodGet, "/api/chart?wait=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Start     string      `json:"start"`
		TotalDays int         `json:"total_days"`
		LastIndex int         `json:"last_index"`
		Bars      []chart.Bar `json:"bars"`
	}](t, rec)
	assert.Equal(t, 7, body.TotalDays)
	assert.Equal(t, 6, body.LastIndex)
	assert.Equal(t, "2026-10-11", body.Start)
	require.Len(t, body.Bars, 7)

	bars := decode[struct {
		Bars []chart.Bar `json:"bars"`
	}](t, e.do(t, http.MethodGet, "/api/chart?from=6&to=6", nil)).Bars
	require.Len(t, bars, 1)
	assert.True(t, bars[0].Loaded)
	assert.Equal(t, 700.0, bars[0].Summary.TotalCalories)

	rec = e.do(t, http.MethodGet, "/api/chart?from=x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJumpToToday(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	rec := e.do(t, http.MethodPost, "/api/chart/today", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Index int    `json:"index"`
		Date  string `json:"date"`
	}](t, rec)
	assert.Equal(t, 6, body.Index)
	assert.Equal(t, "2026-10-17", body.Date)
}

func TestEvaluateDay(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/days/2026-10-15/evaluation", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	e.addMeal(t, "oats", 400, time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC))
	rec = e.do(t, http.MethodPost, "/api/days/2026-10-15/evaluation", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "2026-10-15")

	day := decode[dayBody](t, e.do(t, http.MethodGet, "/api/days/2026-10-15", nil))
	assert.NotEmpty(t, day.Evaluation)
}

func TestRefresh(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.do(t, http.MethodGet, "/api/days/2026-10-17", nil)
	rec := e.do(t, http.MethodPost, "/api/refresh", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.do(t, http.MethodGet, "/api/days/2026-10-17", nil)
	rec := e.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nutrilog_week_cache_misses_total")
	assert.Contains(t, rec.Body.String(), "nutrilog_week_fetch_duration_seconds")
}

func TestEventStream(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ts := httptest.NewServer(e.handler)
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	lines := bufio.NewScanner(resp.Body)
	waitFor := func(prefix string) {
		t.Helper()
		for lines.Scan() {
			if strings.HasPrefix(lines.Text(), prefix) {
				return
			}
		}
		t.Fatalf("stream ended before %q: %v", prefix, lines.Err())
	}
	waitFor("event:ready")

	get, err := http.Get(ts.URL + "/api/days/2026-10-17")
	require.NoError(t, err)
	get.Body.Close()

	waitFor("event:selection_changed")
	waitFor("event:week_loaded")
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
