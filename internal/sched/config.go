package sched

import (
	"os"
	"strings"

	yaml "github.com/goccy/go-yaml"
	"github.com/ledgerwatch/log/v3"
	"golang.org/x/exp/constraints"
)

// Config mirrors config.yml
type Config struct {
	Horizon  int64   `yaml:"horizon"`   // 1000 (by default), last tick simulated
	Epsilon  float64 `yaml:"epsilon"`   // 1e-9 (by default), HLP/PIP boost increment
	Protocol string  `yaml:"protocol"`  // NPP, HLP, PIP or ALL
	TickMS   int     `yaml:"tick_ms"`   // 0 (by default) runs unpaced
	Workers  int     `yaml:"workers"`   // pool size for ALL
	LogLevel string  `yaml:"log_level"` // info (by default)
}

// If the config file is not found, we use default values
func defaultConfig() Config {
	return Config{
		Horizon:  1000,
		Epsilon:  1e-9,
		Protocol: string(NPP),
		TickMS:   0,
		Workers:  3,
		LogLevel: "info",
	}
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config { return defaultConfig() }

// Load reads YAML and overrides defaults; empty path = defaults only
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("Config not readable, using defaults", "path", path, "err", err)
		return cfg
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Warn("Config not decodable, using defaults", "path", path, "err", err)
		return defaultConfig()
	}
	return cfg.sanitize()
}

// sanity clamps
func (cfg Config) sanitize() Config {
	def := defaultConfig()
	cfg.Horizon = atLeast(cfg.Horizon, 1)
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = def.Epsilon
	}
	cfg.TickMS = atLeast(cfg.TickMS, 0)
	cfg.Workers = atLeast(cfg.Workers, 1)
	cfg.Protocol = strings.ToUpper(strings.TrimSpace(cfg.Protocol))
	if cfg.Protocol == "" {
		cfg.Protocol = def.Protocol
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	return cfg
}

func atLeast[T constraints.Integer | constraints.Float](v, floor T) T {
	if v < floor {
		return floor
	}
	return v
}
