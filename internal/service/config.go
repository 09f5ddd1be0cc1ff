package service

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/saadjs/nutrilog/internal/model"
)

const (
	ConfigMinFiberG        = "min_fiber_g"
	ConfigMaxSugarG        = "max_sugar_g"
	ConfigMaxSaturatedFatG = "max_saturated_fat_g"
	ConfigCalorieTolerance = "calorie_tolerance"
)

// DefaultSettings are used for keys the user never set.
var DefaultSettings = model.Settings{
	MinFiberG:        25,
	MaxSugarG:        50,
	MaxSaturatedFatG: 20,
	CalorieTolerance: 0.10,
}

var numericConfigKeys = map[string]bool{
	ConfigMinFiberG:        true,
	ConfigMaxSugarG:        true,
	ConfigMaxSaturatedFatG: true,
	ConfigCalorieTolerance: true,
}

func SetConfig(db *sql.DB, key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return fmt.Errorf("config key is required")
	}
	value = strings.TrimSpace(value)
	if numericConfigKeys[key] {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("config %q must be a number", key)
		}
		if err := validateNonNegativeFloat(key, v); err != nil {
			return err
		}
	}
	_, err := db.Exec(`
INSERT INTO app_config(key, value, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, key, value)
	if err != nil {
		return fmt.Errorf("set config %q: %w", key, err)
	}
	return nil
}

func GetConfig(db *sql.DB, key string) (string, bool, error) {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return "", false, fmt.Errorf("config key is required")
	}
	var value string
	err := db.QueryRow(`SELECT value FROM app_config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get config %q: %w", key, err)
	}
	return value, true, nil
}

func ListConfig(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query(`SELECT key, value FROM app_config ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list config: %w", err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan config: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate config: %w", err)
	}
	return out, nil
}

// LoadSettings reads evaluation thresholds, falling back to DefaultSettings per key.
func LoadSettings(db *sql.DB) (model.Settings, error) {
	cfg, err := ListConfig(db)
	if err != nil {
		return model.Settings{}, err
	}
	out := DefaultSettings
	for key, dst := range map[string]*float64{
		ConfigMinFiberG:        &out.MinFiberG,
		ConfigMaxSugarG:        &out.MaxSugarG,
		ConfigMaxSaturatedFatG: &out.MaxSaturatedFatG,
		ConfigCalorieTolerance: &out.CalorieTolerance,
	} {
		raw, ok := cfg[key]
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.Settings{}, fmt.Errorf("parse config %q: %w", key, err)
		}
		*dst = v
	}
	return out, nil
}
