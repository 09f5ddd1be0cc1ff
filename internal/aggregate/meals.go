package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/saadjs/nutrilog/internal/model"
	"github.com/saadjs/nutrilog/internal/week"
)

// ErrMealNotVisible is returned when an edit targets a meal that is not in the
// selected day's list.
var ErrMealNotVisible = errors.New("meal is not in the selected day")

// Meals returns a copy of the selected day's meal list.
func (c *Controller) Meals() []model.Meal {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Meal, len(c.meals))
	copy(out, c.meals)
	return out
}

// refreshMeals reloads the meals for d. The result is dropped if the selection
// moved or the list was patched while the fetch was in flight.
func (c *Controller) refreshMeals(ctx context.Context, d time.Time) {
	c.mu.Lock()
	seq := c.mealsSeq
	c.mu.Unlock()

	meals, err := c.repo.FetchMealsForDate(ctx, d)
	if err != nil {
		c.log.Warn(ctx, "meal list fetch failed", zap.String("date", week.Format(d)), zap.Error(err))
		c.setLastErr(fmt.Errorf("fetch meals for %s: %w", week.Format(d), err))
		return
	}
	sortMeals(meals)

	c.mu.Lock()
	if c.mealsSeq != seq || !c.hasSelected || !week.SameDay(c.selected, d) {
		c.mu.Unlock()
		return
	}
	c.meals = meals
	c.mealsSeq++
	c.mu.Unlock()
	c.emit(Event{Type: EventMealsChanged, Week: week.KeyOf(d), Date: d})
}

// patch is an optimistic change to the visible meal list that can be undone.
type patch struct {
	prev []model.Meal
	seq  uint64
}

func (c *Controller) patchMeals(fn func([]model.Meal) []model.Meal) patch {
	c.mu.Lock()
	prev := make([]model.Meal, len(c.meals))
	copy(prev, c.meals)
	next := fn(append([]model.Meal(nil), c.meals...))
	sortMeals(next)
	c.meals = next
	c.mealsSeq++
	p := patch{prev: prev, seq: c.mealsSeq}
	sel := c.selected
	c.mu.Unlock()
	c.emit(Event{Type: EventMealsChanged, Week: week.KeyOf(sel), Date: sel})
	return p
}

// rollback restores the list to its state before p. If something else changed
// the list since, it is reloaded instead.
func (c *Controller) rollback(ctx context.Context, p patch) {
	c.mu.Lock()
	if c.mealsSeq == p.seq {
		c.meals = p.prev
		c.mealsSeq++
		sel := c.selected
		c.mu.Unlock()
		c.emit(Event{Type: EventMealsChanged, Week: week.KeyOf(sel), Date: sel})
		return
	}
	sel, ok := c.selected, c.hasSelected
	c.mu.Unlock()
	if ok {
		c.refreshMeals(ctx, sel)
	}
}

func (c *Controller) isSelectedDay(t time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasSelected && week.SameDay(c.selected, c.day(t))
}

// AddMeal shows meal in the selected day's list immediately, writes it, and
// removes it again if the write fails.
func (c *Controller) AddMeal(ctx context.Context, meal model.Meal) (model.Meal, error) {
	if meal.ConsumedAt.IsZero() {
		meal.ConsumedAt = time.Now().In(c.loc)
	}
	meal.ID = 0

	var p patch
	visible := c.isSelectedDay(meal.ConsumedAt)
	if visible {
		p = c.patchMeals(func(list []model.Meal) []model.Meal { return append(list, meal) })
	}

	created, err := c.repo.CreateMeal(ctx, meal)
	if err != nil {
		if visible {
			c.rollback(ctx, p)
		}
		c.log.Warn(ctx, "add meal failed", zap.String("name", meal.Name), zap.Error(err))
		return model.Meal{}, fmt.Errorf("add meal: %w", err)
	}

	if visible {
		c.mu.Lock()
		if c.mealsSeq == p.seq {
			for i := range c.meals {
				if c.meals[i].ID == 0 && c.meals[i].Name == meal.Name && c.meals[i].ConsumedAt.Equal(meal.ConsumedAt) {
					c.meals[i] = created
					break
				}
			}
		}
		c.mu.Unlock()
	}
	c.log.Info(ctx, "meal added", zap.Int64("meal_id", created.ID), zap.String("date", week.Format(c.day(created.ConsumedAt))))
	return created, c.RecordMutation(ctx, Mutation{Date: created.ConsumedAt, ClearEvaluation: true})
}

// EditMeal replaces before with after. before must be in the selected day's list.
// The list is patched right away and restored if the write fails.
func (c *Controller) EditMeal(ctx context.Context, before, after model.Meal) error {
	if !c.isVisible(before.ID) {
		return fmt.Errorf("edit meal %d: %w", before.ID, ErrMealNotVisible)
	}
	after.ID = before.ID
	if after.ConsumedAt.IsZero() {
		after.ConsumedAt = before.ConsumedAt
	}
	stays := c.isSelectedDay(after.ConsumedAt)

	p := c.patchMeals(func(list []model.Meal) []model.Meal {
		out := list[:0]
		for _, m := range list {
			if m.ID != before.ID {
				out = append(out, m)
			} else if stays {
				out = append(out, after)
			}
		}
		return out
	})

	if err := c.repo.UpdateMeal(ctx, before.ID, after); err != nil {
		c.rollback(ctx, p)
		c.log.Warn(ctx, "edit meal failed", zap.Int64("meal_id", before.ID), zap.Error(err))
		return fmt.Errorf("edit meal %d: %w", before.ID, err)
	}
	c.log.Info(ctx, "meal updated", zap.Int64("meal_id", before.ID))
	return c.RecordMutation(ctx, Mutation{
		Date:            after.ConsumedAt,
		PreviousDate:    before.ConsumedAt,
		ClearEvaluation: true,
	})
}

// DeleteMeal removes meal from the visible list, deletes it, and puts it back at
// its original position if the delete fails.
func (c *Controller) DeleteMeal(ctx context.Context, meal model.Meal) error {
	var p patch
	visible := c.isVisible(meal.ID)
	if visible {
		p = c.patchMeals(func(list []model.Meal) []model.Meal {
			out := list[:0]
			for _, m := range list {
				if m.ID != meal.ID {
					out = append(out, m)
				}
			}
			return out
		})
	}

	if err := c.repo.DeleteMeal(ctx, meal.ID); err != nil {
		if visible {
			c.rollback(ctx, p)
		}
		c.log.Warn(ctx, "delete meal failed", zap.Int64("meal_id", meal.ID), zap.Error(err))
		return fmt.Errorf("delete meal %d: %w", meal.ID, err)
	}
	c.log.Info(ctx, "meal deleted", zap.Int64("meal_id", meal.ID))
	return c.RecordMutation(ctx, Mutation{Date: meal.ConsumedAt, ClearEvaluation: true})
}

func (c *Controller) isVisible(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.meals {
		if m.ID == id {
			return true
		}
	}
	return false
}

func sortMeals(meals []model.Meal) {
	sort.SliceStable(meals, func(i, j int) bool {
		return meals[i].ConsumedAt.Before(meals[j].ConsumedAt)
	})
}
