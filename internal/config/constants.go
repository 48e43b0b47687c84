package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Interval between stale-presence sweeps
const PresenceSweepInterval = 60 * time.Second

// Duration bounds for room settings, in seconds
const (
	MinWorkDurationSec  = 60
	MaxWorkDurationSec  = 3600
	MinBreakDurationSec = 60
	MaxBreakDurationSec = 1800
)

// Default rate limiting
const DefaultRateLimitPerMin = 60
