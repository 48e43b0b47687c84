package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("StalePresenceThreshold converts minutes to duration", func(t *testing.T) {
		cfg := &Config{StalePresenceThresholdMin: 5}
		assert.Equal(t, 5*time.Minute, cfg.StalePresenceThreshold())
	})

	t.Run("SinkDeliveryTimeout converts milliseconds to duration", func(t *testing.T) {
		cfg := &Config{SinkDeliveryTimeoutMs: 5000}
		assert.Equal(t, 5*time.Second, cfg.SinkDeliveryTimeout())
	})
}

func TestValidate(t *testing.T) {
	valid := Config{
		WorkDurationSec:        1500,
		BreakDurationSec:       300,
		MaxParticipantsPerRoom: 50,
		SinkDeliveryTimeoutMs:  5000,
	}

	t.Run("accepts defaults", func(t *testing.T) {
		cfg := valid
		assert.NoError(t, cfg.Validate())
	})

	t.Run("rejects work duration out of range", func(t *testing.T) {
		cfg := valid
		cfg.WorkDurationSec = 10
		assert.Error(t, cfg.Validate())

		cfg.WorkDurationSec = 7200
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects break duration out of range", func(t *testing.T) {
		cfg := valid
		cfg.BreakDurationSec = 3600
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects non-positive participant cap", func(t *testing.T) {
		cfg := valid
		cfg.MaxParticipantsPerRoom = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestLoad(t *testing.T) {
	originalEnv := map[string]string{
		"PORT":                         os.Getenv("PORT"),
		"DATABASE_URL":                 os.Getenv("DATABASE_URL"),
		"REDIS_URL":                    os.Getenv("REDIS_URL"),
		"JWT_SECRET":                   os.Getenv("JWT_SECRET"),
		"LOG_LEVEL":                    os.Getenv("LOG_LEVEL"),
		"WORK_DURATION_SEC":            os.Getenv("WORK_DURATION_SEC"),
		"BREAK_DURATION_SEC":           os.Getenv("BREAK_DURATION_SEC"),
		"MAX_PARTICIPANTS_PER_ROOM":    os.Getenv("MAX_PARTICIPANTS_PER_ROOM"),
		"STALE_PRESENCE_THRESHOLD_MIN": os.Getenv("STALE_PRESENCE_THRESHOLD_MIN"),
		"SINK_DELIVERY_TIMEOUT_MS":     os.Getenv("SINK_DELIVERY_TIMEOUT_MS"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	t.Run("loads config with defaults", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("JWT_SECRET", "secret")
		os.Unsetenv("PORT")
		os.Unsetenv("WORK_DURATION_SEC")
		os.Unsetenv("BREAK_DURATION_SEC")
		os.Unsetenv("LOG_LEVEL")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
		assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
		assert.Equal(t, 1500, cfg.WorkDurationSec)
		assert.Equal(t, 300, cfg.BreakDurationSec)
		assert.Equal(t, 50, cfg.MaxParticipantsPerRoom)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("loads custom values", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("JWT_SECRET", "secret")
		os.Setenv("PORT", "3000")
		os.Setenv("WORK_DURATION_SEC", "1800")
		os.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 3000, cfg.Port)
		assert.Equal(t, 1800, cfg.WorkDurationSec)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("fails without required DATABASE_URL", func(t *testing.T) {
		os.Unsetenv("DATABASE_URL")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("JWT_SECRET", "secret")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("fails on out-of-range duration", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("JWT_SECRET", "secret")
		os.Setenv("WORK_DURATION_SEC", "10")

		_, err := Load()
		assert.Error(t, err)
	})
}
