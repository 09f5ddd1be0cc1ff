package aggregate

import (
	"time"

	"github.com/saadjs/nutrilog/internal/week"
)

type EventType string

const (
	EventSelectionChanged  EventType = "selection_changed"
	EventWeekLoaded        EventType = "week_loaded"
	EventWeekFailed        EventType = "week_failed"
	EventMealsChanged      EventType = "meals_changed"
	EventInvalidated       EventType = "invalidated"
	EventEvaluationChanged EventType = "evaluation_changed"
)

// Event tells subscribers that controller state changed.
type Event struct {
	Type EventType
	Week week.Key
	Date time.Time
	Err  error
}

type listener struct {
	id int
	fn func(Event)
}

// Subscribe registers fn for every future event and returns a func that removes
// it. fn runs on the goroutine that caused the change and must not block.
func (c *Controller) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextListener++
	id := c.nextListener
	c.listeners = append(c.listeners, listener{id: id, fn: fn})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

func (c *Controller) emit(e Event) {
	c.mu.Lock()
	listeners := make([]listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()
	for _, l := range listeners {
		l.fn(e)
	}
}
