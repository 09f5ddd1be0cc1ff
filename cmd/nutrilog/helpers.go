package nutrilog

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/saadjs/nutrilog/internal/aggregate"
	"github.com/saadjs/nutrilog/internal/app"
	"github.com/saadjs/nutrilog/internal/cache"
	"github.com/saadjs/nutrilog/internal/chart"
	"github.com/saadjs/nutrilog/internal/config"
	"github.com/saadjs/nutrilog/internal/db"
	"github.com/saadjs/nutrilog/internal/evaluation"
	"github.com/saadjs/nutrilog/internal/logging"
	"github.com/saadjs/nutrilog/internal/store"
)

// session is everything a command needs to go through the controller.
type session struct {
	cfg   *config.Config
	log   *logging.Logger
	loc   *time.Location
	store *store.SQLite
	ctrl  *aggregate.Controller
	win   *chart.Window
	reg   *prometheus.Registry
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		p, err := app.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg, err := config.Load(config.Options{File: path, EnvFile: envFile})
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DB.Path = dbPath
	}
	return cfg, nil
}

func resolveDBPath(cfg *config.Config) (string, error) {
	if cfg.DB.Path != "" {
		return cfg.DB.Path, nil
	}
	return app.DefaultDBPath()
}

func openDB(cfg *config.Config) (*sql.DB, string, error) {
	path, err := resolveDBPath(cfg)
	if err != nil {
		return nil, "", err
	}
	sqldb, err := db.OpenMigrated(path)
	if err != nil {
		return nil, "", err
	}
	return sqldb, path, nil
}

func withDB(run func(*sql.DB) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sqldb, _, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer sqldb.Close()
	return run(sqldb)
}

// withApp wires the store, controller and chart window for one command run.
func withApp(ctx context.Context, run func(context.Context, *session) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	sqldb, _, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer sqldb.Close()

	reg := prometheus.NewRegistry()
	s := store.NewSQLite(sqldb, loc)
	evaluator := evaluation.NewRetrying(evaluation.Rules{}, evaluation.RetryConfig{
		MaxAttempts:     cfg.Evaluation.MaxAttempts,
		InitialInterval: cfg.Evaluation.InitialInterval,
	}, log)
	ctrl := aggregate.New(s, aggregate.Options{
		Location:    loc,
		Logger:      log,
		Metrics:     cache.NewMetrics(reg),
		Evaluator:   evaluator,
		Evaluations: s,
	})
	win := chart.New(ctrl, s, chart.Options{MinDays: cfg.Chart.MinDays, Logger: log})

	rt := &session{cfg: cfg, log: log, loc: loc, store: s, ctrl: ctrl, win: win, reg: reg}
	defer func() {
		win.Wait()
		ctrl.Wait()
	}()
	return run(ctx, rt)
}

// settle selects d and waits until its week and meals are in memory.
func (rt *session) settle(ctx context.Context, d time.Time) error {
	rt.ctrl.SelectDate(ctx, d)
	rt.ctrl.Wait()
	_, err := rt.ctrl.EnsureWeekLoaded(ctx, d)
	return err
}

func (rt *session) parseDate(value string) (time.Time, error) {
	return store.ParseDate(value, rt.loc, time.Now())
}

func parseInt64Arg(name, value string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, value)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be > 0", name)
	}
	return v, nil
}

func parseDateTimeOrNow(date, timeStr string, loc *time.Location) (time.Time, error) {
	date = strings.TrimSpace(date)
	timeStr = strings.TrimSpace(timeStr)
	if date == "" && timeStr == "" {
		return time.Now().In(loc), nil
	}
	if date == "" {
		return time.Time{}, fmt.Errorf("--date is required when --time is set")
	}
	if timeStr == "" {
		t, err := time.ParseInLocation("2006-01-02", date, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", date)
		}
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+timeStr, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date/--time (expected YYYY-MM-DD and HH:MM)")
	}
	return t, nil
}
