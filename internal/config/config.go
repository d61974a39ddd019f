package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the binaries.
type Config struct {
	Addr        string        `yaml:"addr"`
	Difficulty  float64       `yaml:"difficulty"`
	OpeningBias float64       `yaml:"opening_bias"`
	ThinkDelay  time.Duration `yaml:"think_delay"`
	Heartbeat   time.Duration `yaml:"heartbeat"`
	LogLevel    string        `yaml:"log_level"`
	LogFormat   string        `yaml:"log_format"`
}

func Default() Config {
	return Config{
		Addr:        ":8080",
		Difficulty:  0.8,
		OpeningBias: 0.7,
		ThinkDelay:  500 * time.Millisecond,
		Heartbeat:   15 * time.Second,
		LogLevel:    "info",
		LogFormat:   "console",
	}
}

var (
	ErrDifficulty  = errors.New("difficulty must be within [0,1]")
	ErrOpeningBias = errors.New("opening_bias must be within [0,1]")
	ErrDuration    = errors.New("durations must not be negative")
	ErrLogFormat   = errors.New("log_format must be console or json")
)

// Load reads a YAML file over the defaults. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Difficulty < 0 || c.Difficulty > 1 {
		return ErrDifficulty
	}
	if c.OpeningBias < 0 || c.OpeningBias > 1 {
		return ErrOpeningBias
	}
	if c.ThinkDelay < 0 || c.Heartbeat < 0 {
		return ErrDuration
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return ErrLogFormat
	}
	return nil
}
