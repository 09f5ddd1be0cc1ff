package httpapi

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/saadjs/nutrilog/internal/aggregate"
	"github.com/saadjs/nutrilog/internal/week"
)

type eventPayload struct {
	WeekStart string `json:"week_start"`
	Date      string `json:"date"`
	Error     string `json:"error,omitempty"`
}

// streamEvents pushes controller events as server-sent events until the client
// goes away. Slow clients miss events rather than block the controller.
func (s *Server) streamEvents(c *gin.Context) {
	ch := make(chan aggregate.Event, 32)
	unsubscribe := s.ctrl.Subscribe(func(e aggregate.Event) {
		select {
		case ch <- e:
		default:
		}
	})
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent("ready", gin.H{"date": week.Format(s.win.Today())})
	c.Writer.Flush()

	loc := s.ctrl.Location()
	c.Stream(func(w io.Writer) bool {
		select {
		case e := <-ch:
			p := eventPayload{
				WeekStart: week.Format(week.StartOf(e.Week, loc)),
				Date:      week.Format(e.Date),
			}
			if e.Err != nil {
				p.Error = e.Err.Error()
			}
			c.SSEvent(string(e.Type), p)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
