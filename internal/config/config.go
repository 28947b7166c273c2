// Package config loads settings from HARMODEL_* environment variables.
// Flags override these per command; the environment supplies defaults so a
// capture pipeline can be tuned without editing every invocation.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/usestring/harmodel/internal/consolidate"
	"github.com/usestring/harmodel/internal/logging"
	"github.com/usestring/harmodel/internal/replay"
)

// Config holds all tunables.
type Config struct {
	// Consolidation heuristics
	NormalizeIDs        bool // HARMODEL_NORMALIZE_IDS, default true
	MinHexLength        int  // HARMODEL_MIN_HEX_LENGTH, default 8
	MergeVarying        bool // HARMODEL_MERGE_VARYING, default true
	MaxUnionAlts        int  // HARMODEL_MAX_UNION_ALTS, default 0 (library default)
	ExamplesPerEndpoint int  // HARMODEL_EXAMPLES_PER_ENDPOINT, default 3
	MaxBodyBytes        int  // HARMODEL_MAX_BODY_BYTES, default 2_000_000

	// Parse cache
	BodyCacheMaxItems int // HARMODEL_BODY_CACHE_MAX_ITEMS, default 1024

	// Query engine
	QueryMaxResults int // HARMODEL_QUERY_MAX_RESULTS, default 100

	// Replay
	ReplayWorkers int           // HARMODEL_REPLAY_WORKERS, default 8
	ReplayTimeout time.Duration // HARMODEL_REPLAY_TIMEOUT_MS, default 30000ms

	// Logging
	LogLevel      string // HARMODEL_LOG_LEVEL, default "info"
	LogFile       string // HARMODEL_LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // HARMODEL_LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // HARMODEL_LOG_MAX_BACKUPS, default 3
	LogMaxAgeDays int    // HARMODEL_LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // HARMODEL_LOG_COMPRESS, default true
}

// Load reads configuration from the environment with defaults.
func Load() *Config {
	return &Config{
		NormalizeIDs:        getEnvBool("HARMODEL_NORMALIZE_IDS", true),
		MinHexLength:        getEnvInt("HARMODEL_MIN_HEX_LENGTH", 8),
		MergeVarying:        getEnvBool("HARMODEL_MERGE_VARYING", true),
		MaxUnionAlts:        getEnvInt("HARMODEL_MAX_UNION_ALTS", 0),
		ExamplesPerEndpoint: getEnvInt("HARMODEL_EXAMPLES_PER_ENDPOINT", 3),
		MaxBodyBytes:        getEnvInt("HARMODEL_MAX_BODY_BYTES", 2_000_000),

		BodyCacheMaxItems: getEnvInt("HARMODEL_BODY_CACHE_MAX_ITEMS", 1024),

		QueryMaxResults: getEnvInt("HARMODEL_QUERY_MAX_RESULTS", 100),

		ReplayWorkers: getEnvInt("HARMODEL_REPLAY_WORKERS", 8),
		ReplayTimeout: getEnvDurationMs("HARMODEL_REPLAY_TIMEOUT_MS", 30000),

		LogLevel:      getEnvString("HARMODEL_LOG_LEVEL", "info"),
		LogFile:       getEnvString("HARMODEL_LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("HARMODEL_LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("HARMODEL_LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: getEnvInt("HARMODEL_LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("HARMODEL_LOG_COMPRESS", true),
	}
}

// ConsolidateOptions maps the config onto consolidation options.
func (c *Config) ConsolidateOptions() consolidate.Options {
	return consolidate.Options{
		NormalizeIDs:        c.NormalizeIDs,
		MinHexLength:        c.MinHexLength,
		MergeVarying:        c.MergeVarying,
		MaxUnionAlts:        c.MaxUnionAlts,
		ExamplesPerEndpoint: c.ExamplesPerEndpoint,
		MaxBodyBytes:        c.MaxBodyBytes,
	}
}

// ReplayOptions maps the config onto replay options.
func (c *Config) ReplayOptions() replay.Options {
	return replay.Options{
		Workers: c.ReplayWorkers,
		Timeout: c.ReplayTimeout,
	}
}

// LoggingConfig maps the config onto logging setup.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:      c.LogLevel,
		FilePath:   c.LogFile,
		MaxSizeMB:  c.LogMaxSizeMB,
		MaxBackups: c.LogMaxBackups,
		MaxAgeDays: c.LogMaxAgeDays,
		Compress:   c.LogCompress,
	}
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	return time.Duration(getEnvInt(key, defaultMs)) * time.Millisecond
}
