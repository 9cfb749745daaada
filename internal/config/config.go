// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package config

import (
	"path/filepath"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Models      ModelsConfig      `koanf:"models"`
	Pipeline    PipelineConfig    `koanf:"pipeline"`
	History     HistoryConfig     `koanf:"history"`
	Database    DatabaseConfig    `koanf:"database"`
	Persistence PersistenceConfig `koanf:"persistence"`
	Retrain     RetrainConfig     `koanf:"retrain"`
	Security    SecurityConfig    `koanf:"security"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	Environment     string        `koanf:"environment" validate:"oneof=development staging production"`
}

// LoggingConfig holds zerolog settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level" validate:"oneof=trace debug info warn error"`

	// Format is json (production) or console (development).
	Format string `koanf:"format" validate:"oneof=json console"`

	// Caller includes file:line in each entry.
	Caller bool `koanf:"caller"`
}

// ModelsConfig locates the model and scaler artifacts. File names are
// relative to Dir unless absolute.
type ModelsConfig struct {
	Dir             string `koanf:"dir" validate:"required"`
	ChurnModel      string `koanf:"churn_model" validate:"required"`
	PlanModel       string `koanf:"plan_model" validate:"required"`
	PlanChurnModel  string `koanf:"plan_churn_model"`
	ValueModel      string `koanf:"value_model"`
	ChurnScaler     string `koanf:"churn_scaler"`
	PlanScaler      string `koanf:"plan_scaler"`
	PlanChurnScaler string `koanf:"plan_churn_scaler"`
}

// Path resolves an artifact file name against Dir. An empty name stays
// empty so optional artifacts can be disabled.
func (m ModelsConfig) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(m.Dir, name)
}

// PipelineConfig selects the enrichment stage of the analysis.
type PipelineConfig struct {
	Variant string `koanf:"variant" validate:"oneof=value similarity"`
}

// HistoryConfig locates the customer history log. The file is read once at
// startup for the similarity variant and appended to after each prediction.
type HistoryConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// DatabaseConfig holds DuckDB settings for the customer record store.
type DatabaseConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads" validate:"gte=0"` // 0 = runtime.NumCPU()
}

// PersistenceConfig controls how failed writes are retried.
type PersistenceConfig struct {
	// OutboxDir is the BadgerDB directory holding writes that failed.
	// Empty disables the outbox and failed writes are only logged.
	OutboxDir string `koanf:"outbox_dir"`

	// ReplayInterval is how often the outbox is drained.
	ReplayInterval time.Duration `koanf:"replay_interval" validate:"gt=0"`

	// ReplayRate caps replayed writes per second.
	ReplayRate  float64 `koanf:"replay_rate" validate:"gt=0"`
	ReplayBurst int     `koanf:"replay_burst" validate:"gte=1"`

	// MaxAttempts drops an outbox entry after this many failed replays.
	MaxAttempts int `koanf:"max_attempts" validate:"gte=1"`

	// Circuit breaker around database writes.
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures" validate:"gte=1"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
	BreakerInterval    time.Duration `koanf:"breaker_interval" validate:"gte=0"`
}

// RetrainConfig controls the retraining job.
type RetrainConfig struct {
	Dataset      string        `koanf:"dataset" validate:"required"`
	Seed         int64         `koanf:"seed"`
	TestFraction float64       `koanf:"test_fraction" validate:"gt=0,lt=1"`
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0"`
}

// SecurityConfig holds CORS and rate limit settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"gte=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// Load reads configuration from defaults, an optional file and the
// environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// LogFormat returns the configured log format. Production always logs JSON
// so log shippers can parse every line.
func (c *Config) LogFormat() string {
	if c.IsProduction() {
		return "json"
	}
	return c.Logging.Format
}
