// Package httpapi serves the day, week and chart views over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/saadjs/nutrilog/internal/aggregate"
	"github.com/saadjs/nutrilog/internal/chart"
	"github.com/saadjs/nutrilog/internal/logging"
	"github.com/saadjs/nutrilog/internal/model"
)

// MealSource looks up a single meal by id.
type MealSource interface {
	FetchMeal(ctx context.Context, id int64) (model.Meal, error)
}

type Deps struct {
	Controller     *aggregate.Controller
	Window         *chart.Window
	Meals          MealSource
	Gatherer       prometheus.Gatherer
	Logger         *logging.Logger
	AllowedOrigins []string
	Now            func() time.Time
}

type Server struct {
	engine *gin.Engine
	ctrl   *aggregate.Controller
	win    *chart.Window
	meals  MealSource
	log    *logging.Logger
	now    func() time.Time
}

func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = logging.Nop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		engine: gin.New(),
		ctrl:   d.Controller,
		win:    d.Window,
		meals:  d.Meals,
		log:    d.Logger.Named("http"),
		now:    d.Now,
	}

	s.engine.Use(gin.Recovery(), requestID(), accessLog(s.log))
	if len(d.AllowedOrigins) > 0 {
		config := cors.DefaultConfig()
		config.AllowOrigins = d.AllowedOrigins
		config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
		config.AllowHeaders = []string{"Origin", "Content-Type", requestIDHeader}
		config.ExposeHeaders = []string{requestIDHeader}
		s.engine.Use(cors.New(config))
	}

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))

	api := s.engine.Group("/api")
	{
		api.GET("/days/:date", s.getDay)
		api.POST("/days/:date/evaluation", s.evaluateDay)
		api.GET("/weeks/:date", s.getWeek)
		api.GET("/chart", s.getChart)
		api.POST("/chart/today", s.jumpToToday)
		api.POST("/meals", s.createMeal)
		api.PUT("/meals/:id", s.updateMeal)
		api.DELETE("/meals/:id", s.deleteMeal)
		api.POST("/refresh", s.refresh)
		api.GET("/events", s.streamEvents)
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is done, then shuts down within timeout.
// Request contexts derive from ctx so open event streams end with it.
func (s *Server) Run(ctx context.Context, addr string, timeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info(ctx, "listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.log.Info(shutdownCtx, "shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
