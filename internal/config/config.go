package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines application configuration.
type Config struct {
	DB     DBConfig     `yaml:"db"`
	Log    LogConfig    `yaml:"log"`
	Engine EngineConfig `yaml:"engine"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type EngineConfig struct {
	// Tolerance is the near-critical tolerance in working days.
	Tolerance int `yaml:"tolerance"`
	// RecomputeDebounce is how long the engine waits after an edit before
	// recomputing, so a burst of edits costs one pass.
	RecomputeDebounce time.Duration `yaml:"recompute_debounce"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		DB: DBConfig{
			Path: "crane.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Engine: EngineConfig{
			Tolerance:         0,
			RecomputeDebounce: 500 * time.Millisecond,
		},
	}

	if path := os.Getenv("CRANE_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if dbPath := os.Getenv("CRANE_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("CRANE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if tolStr := os.Getenv("CRANE_ENGINE_TOLERANCE"); tolStr != "" {
		tol, err := strconv.Atoi(tolStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CRANE_ENGINE_TOLERANCE: %w", err)
		}
		cfg.Engine.Tolerance = tol
	}
	if debounceStr := os.Getenv("CRANE_ENGINE_RECOMPUTE_DEBOUNCE"); debounceStr != "" {
		debounce, err := time.ParseDuration(debounceStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CRANE_ENGINE_RECOMPUTE_DEBOUNCE: %w", err)
		}
		cfg.Engine.RecomputeDebounce = debounce
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
