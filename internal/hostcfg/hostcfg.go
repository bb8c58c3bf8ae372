//go:build !tinygo

// Package hostcfg reads the desktop runner settings from the environment.
package hostcfg

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"sparkcalc/hal"
)

// Config is the host runner configuration. Command-line flags override it.
type Config struct {
	FlashPath   string `env:"SPARK_FLASH_PATH" envDefault:"sparkcalc.flash"`
	FlashSize   uint32 `env:"SPARK_FLASH_SIZE" envDefault:"65536"`
	StateOffset uint32 `env:"SPARK_STATE_OFFSET" envDefault:"0"`
	Scale       int    `env:"SPARK_SCALE" envDefault:"2"`
	Mute        bool   `env:"SPARK_MUTE" envDefault:"false"`
}

// Load parses Config from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Scale <= 0 {
		return Config{}, fmt.Errorf("parse env: SPARK_SCALE must be positive, got %d", cfg.Scale)
	}
	return cfg, nil
}

// HostOptions maps the configuration onto the host HAL options.
func (c Config) HostOptions() hal.HostOptions {
	return hal.HostOptions{
		FlashPath: c.FlashPath,
		FlashSize: c.FlashSize,
		Scale:     c.Scale,
		Mute:      c.Mute,
	}
}
