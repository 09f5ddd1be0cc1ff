// Package config loads nutrilog runtime configuration.
//
// Precedence (highest to lowest):
//  1. Environment variables prefixed NUTRILOG_ (NUTRILOG_DB_PATH -> db.path)
//  2. YAML config file
//  3. Defaults
//
// An optional .env file is loaded into the process environment first.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/saadjs/nutrilog/internal/logging"
)

const (
	envPrefix         = "NUTRILOG_"
	maxConfigFileSize = 1024 * 1024
	minChartDays      = 7
)

type Config struct {
	DB         DBConfig         `koanf:"db"`
	Log        logging.Config   `koanf:"log"`
	Server     ServerConfig     `koanf:"server"`
	Calendar   CalendarConfig   `koanf:"calendar"`
	Chart      ChartConfig      `koanf:"chart"`
	Evaluation EvaluationConfig `koanf:"evaluation"`
}

type DBConfig struct {
	Path string `koanf:"path"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// AllowedOrigins enables CORS for browser front ends. Empty disables it.
	AllowedOrigins  []string      `koanf:"allowed_origins"`
}

// CalendarConfig fixes the location in which meal timestamps become calendar days.
// Empty means the process local zone.
type CalendarConfig struct {
	Timezone string `koanf:"timezone"`
}

type ChartConfig struct {
	MinDays int `koanf:"min_days"`
}

type EvaluationConfig struct {
	MaxAttempts     uint          `koanf:"max_attempts"`
	InitialInterval time.Duration `koanf:"initial_interval"`
}

// Options tells Load where to look for files. Empty paths are skipped.
type Options struct {
	File    string
	EnvFile string
}

func Defaults() *Config {
	return &Config{
		Log: logging.Config{Level: "info", Format: "console"},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8085",
			ShutdownTimeout: 10 * time.Second,
		},
		Chart: ChartConfig{MinDays: minChartDays},
		Evaluation: EvaluationConfig{
			MaxAttempts:     3,
			InitialInterval: 500 * time.Millisecond,
		},
	}
}

func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", opts.EnvFile, err)
		}
	}

	k := koanf.New(".")
	if opts.File != "" {
		content, err := readConfigFile(opts.File)
		if err != nil {
			return nil, err
		}
		if content != nil {
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", opts.File, err)
			}
		}
	}

	// NUTRILOG_SERVER_SHUTDOWN_TIMEOUT -> server.shutdown_timeout
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Chart.MinDays < minChartDays {
		return fmt.Errorf("chart.min_days must be >= %d", minChartDays)
	}
	if c.Evaluation.MaxAttempts == 0 {
		return fmt.Errorf("evaluation.max_attempts must be > 0")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves calendar.timezone.
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Calendar.Timezone)
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar.timezone %q: %w", name, err)
	}
	return loc, nil
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return content, nil
}
