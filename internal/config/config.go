package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	WorkDurationSec  int `env:"WORK_DURATION_SEC" envDefault:"1500"`
	BreakDurationSec int `env:"BREAK_DURATION_SEC" envDefault:"300"`

	MaxParticipantsPerRoom    int `env:"MAX_PARTICIPANTS_PER_ROOM" envDefault:"50"`
	StalePresenceThresholdMin int `env:"STALE_PRESENCE_THRESHOLD_MIN" envDefault:"5"`
	SinkDeliveryTimeoutMs     int `env:"SINK_DELIVERY_TIMEOUT_MS" envDefault:"5000"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) StalePresenceThreshold() time.Duration {
	return time.Duration(c.StalePresenceThresholdMin) * time.Minute
}

func (c *Config) SinkDeliveryTimeout() time.Duration {
	return time.Duration(c.SinkDeliveryTimeoutMs) * time.Millisecond
}

func (c *Config) Validate() error {
	if c.WorkDurationSec < MinWorkDurationSec || c.WorkDurationSec > MaxWorkDurationSec {
		return fmt.Errorf("WORK_DURATION_SEC must be between %d and %d", MinWorkDurationSec, MaxWorkDurationSec)
	}
	if c.BreakDurationSec < MinBreakDurationSec || c.BreakDurationSec > MaxBreakDurationSec {
		return fmt.Errorf("BREAK_DURATION_SEC must be between %d and %d", MinBreakDurationSec, MaxBreakDurationSec)
	}
	if c.MaxParticipantsPerRoom <= 0 {
		return fmt.Errorf("MAX_PARTICIPANTS_PER_ROOM must be positive")
	}
	if c.SinkDeliveryTimeoutMs <= 0 {
		return fmt.Errorf("SINK_DELIVERY_TIMEOUT_MS must be positive")
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
