package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/saadjs/nutrilog/internal/aggregate"
	"github.com/saadjs/nutrilog/internal/chart"
	"github.com/saadjs/nutrilog/internal/evaluation"
	"github.com/saadjs/nutrilog/internal/model"
	"github.com/saadjs/nutrilog/internal/service"
	"github.com/saadjs/nutrilog/internal/store"
	"github.com/saadjs/nutrilog/internal/week"
)

type dayResponse struct {
	Date       string             `json:"date"`
	Summary    model.DailySummary `json:"summary"`
	Meals      []model.Meal       `json:"meals"`
	Evaluation string             `json:"evaluation,omitempty"`
}

type weekResponse struct {
	WeekStart string               `json:"week_start"`
	Days      []model.DailySummary `json:"days"`
}

type chartResponse struct {
	Start     string      `json:"start"`
	TotalDays int         `json:"total_days"`
	LastIndex int         `json:"last_index"`
	Prefetch  int         `json:"prefetching_weeks"`
	Bars      []chart.Bar `json:"bars"`
}

type mealRequest struct {
	Name          string     `json:"name" binding:"required"`
	Description   string     `json:"description"`
	Calories      float64    `json:"calories" binding:"gte=0"`
	ProteinG      float64    `json:"protein_g" binding:"gte=0"`
	CarbsG        float64    `json:"carbs_g" binding:"gte=0"`
	FatG          float64    `json:"fat_g" binding:"gte=0"`
	FiberG        float64    `json:"fiber_g" binding:"gte=0"`
	SugarG        float64    `json:"sugar_g" binding:"gte=0"`
	SaturatedFatG float64    `json:"saturated_fat_g" binding:"gte=0"`
	SodiumMg      float64    `json:"sodium_mg" binding:"gte=0"`
	Category      string     `json:"category"`
	ConsumedAt    *time.Time `json:"consumed_at"`
	Notes         string     `json:"notes"`
}

func (r mealRequest) meal(now time.Time) (model.Meal, error) {
	if r.SaturatedFatG > r.FatG {
		return model.Meal{}, fmt.Errorf("saturated fat cannot exceed total fat")
	}
	m := model.Meal{
		Name:          r.Name,
		Description:   r.Description,
		Calories:      r.Calories,
		ProteinG:      r.ProteinG,
		CarbsG:        r.CarbsG,
		FatG:          r.FatG,
		FiberG:        r.FiberG,
		SugarG:        r.SugarG,
		SaturatedFatG: r.SaturatedFatG,
		SodiumMg:      r.SodiumMg,
		Category:      r.Category,
		ConsumedAt:    now,
		Notes:         r.Notes,
		SourceType:    "api",
	}
	if r.ConsumedAt != nil {
		m.ConsumedAt = *r.ConsumedAt
	}
	return m, nil
}

func (s *Server) date(c *gin.Context) (time.Time, bool) {
	d, err := store.ParseDate(c.Param("date"), s.ctrl.Location(), s.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return time.Time{}, false
	}
	return d, true
}

func (s *Server) mealID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "meal id must be a positive integer"})
		return 0, false
	}
	return id, true
}

func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrMealNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrUnknownCategory):
		status = http.StatusBadRequest
	case errors.Is(err, aggregate.ErrMealNotVisible):
		status = http.StatusConflict
	case errors.Is(err, evaluation.ErrNoMeals):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, aggregate.ErrNoEvaluator):
		status = http.StatusNotImplemented
	}
	if status >= http.StatusInternalServerError {
		s.log.Error(c.Request.Context(), "request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// selectAndSettle selects d and waits for its week and meals to load.
func (s *Server) selectAndSettle(c *gin.Context, d time.Time) error {
	s.ctrl.SelectDate(c.Request.Context(), d)
	s.ctrl.Wait()
	// A cache hit after a successful background load; otherwise surfaces the error.
	_, err := s.ctrl.EnsureWeekLoaded(c.Request.Context(), d)
	return err
}

func (s *Server) dayView(d time.Time) dayResponse {
	resp := dayResponse{
		Date:    week.Format(d),
		Summary: s.ctrl.GetSummaryForDate(d),
		Meals:   s.ctrl.Meals(),
	}
	if text, ok := s.ctrl.Evaluation(d); ok {
		resp.Evaluation = text
	}
	return resp
}

func (s *Server) getDay(c *gin.Context) {
	d, ok := s.date(c)
	if !ok {
		return
	}
	if err := s.selectAndSettle(c, d); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.dayView(d))
}

func (s *Server) getWeek(c *gin.Context) {
	d, ok := s.date(c)
	if !ok {
		return
	}
	if _, err := s.ctrl.EnsureWeekLoaded(c.Request.Context(), d); err != nil {
		s.fail(c, err)
		return
	}
	k := week.KeyOf(d)
	resp := weekResponse{WeekStart: week.Format(week.StartOf(k, s.ctrl.Location()))}
	for _, day := range week.Dates(k, s.ctrl.Location()) {
		resp.Days = append(resp.Days, s.ctrl.GetSummaryForDate(day))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getChart(c *gin.Context) {
	last := s.win.LastIndex()
	from, err := intQuery(c, "from", last-6)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	to, err := intQuery(c, "to", last)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	started := s.win.Visible(c.Request.Context(), from, to)
	if c.Query("wait") == "true" {
		s.win.Wait()
	}
	c.JSON(http.StatusOK, chartResponse{
		Start:     week.Format(s.win.Start()),
		TotalDays: s.win.TotalDays(),
		LastIndex: last,
		Prefetch:  started,
		Bars:      s.win.Bars(from, to),
	})
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return v, nil
}

func (s *Server) jumpToToday(c *gin.Context) {
	idx := s.win.JumpToToday(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"index": idx, "date": week.Format(s.win.Today())})
}

func (s *Server) createMeal(c *gin.Context) {
	var body mealRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	meal, err := body.meal(s.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := s.ctrl.AddMeal(c.Request.Context(), meal)
	if created.ID == 0 {
		s.fail(c, err)
		return
	}
	if err != nil {
		s.log.Warn(c.Request.Context(), "meal saved but reload failed", zap.Error(err))
	}
	s.reloadWindow(c)
	c.JSON(http.StatusCreated, created)
}

func (s *Server) updateMeal(c *gin.Context) {
	id, ok := s.mealID(c)
	if !ok {
		return
	}
	var body mealRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	before, err := s.meals.FetchMeal(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	after, err := body.meal(before.ConsumedAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	after.SourceType = before.SourceType

	// Edits happen from the meal's own day view.
	if err := s.selectAndSettle(c, before.ConsumedAt); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.ctrl.EditMeal(c.Request.Context(), before, after); err != nil {
		s.fail(c, err)
		return
	}
	s.reloadWindow(c)
	updated, err := s.meals.FetchMeal(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteMeal(c *gin.Context) {
	id, ok := s.mealID(c)
	if !ok {
		return
	}
	meal, err := s.meals.FetchMeal(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.ctrl.DeleteMeal(c.Request.Context(), meal); err != nil {
		s.fail(c, err)
		return
	}
	s.reloadWindow(c)
	c.Status(http.StatusNoContent)
}

func (s *Server) refresh(c *gin.Context) {
	if err := s.ctrl.Refresh(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	s.reloadWindow(c)
	c.JSON(http.StatusOK, gin.H{"status": "refreshed"})
}

func (s *Server) evaluateDay(c *gin.Context) {
	d, ok := s.date(c)
	if !ok {
		return
	}
	if err := s.selectAndSettle(c, d); err != nil {
		s.fail(c, err)
		return
	}
	text, err := s.ctrl.Evaluate(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": week.Format(d), "evaluation": text})
}

func (s *Server) reloadWindow(c *gin.Context) {
	if err := s.win.Reload(c.Request.Context()); err != nil {
		s.log.Warn(c.Request.Context(), "chart window reload failed", zap.Error(err))
	}
}
