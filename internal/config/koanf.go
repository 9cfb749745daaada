// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/insurepredict/config.yaml",
	"/etc/insurepredict/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults. They run the service from a
// working directory holding models/ and logs/.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8000,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Models: ModelsConfig{
			Dir:             "models",
			ChurnModel:      "churn_model.gbt",
			PlanModel:       "plan_recommender.gbt",
			PlanChurnModel:  "plan_recommender_churn.gbt",
			ValueModel:      "value_model.gbt",
			ChurnScaler:     "scaler_churn.json",
			PlanScaler:      "scaler_plan.json",
			PlanChurnScaler: "scaler_plan_churn.json",
		},
		Pipeline: PipelineConfig{
			Variant: "value",
		},
		History: HistoryConfig{
			Path: "logs/customer_data.csv",
		},
		Database: DatabaseConfig{
			Enabled:   true,
			Path:      "data/insurepredict.duckdb",
			MaxMemory: "512MB",
			Threads:   0,
		},
		Persistence: PersistenceConfig{
			OutboxDir:          "data/outbox",
			ReplayInterval:     30 * time.Second,
			ReplayRate:         20,
			ReplayBurst:        5,
			MaxAttempts:        10,
			BreakerMaxFailures: 5,
			BreakerTimeout:     60 * time.Second,
			BreakerInterval:    0,
		},
		Retrain: RetrainConfig{
			Dataset:      "logs/customer_data.csv",
			Seed:         42,
			TestFraction: 0.2,
			Timeout:      5 * time.Minute,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     5,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
	}
}

// LoadWithKoanf loads configuration in layers: defaults, then an optional
// YAML file, then environment variables. The result is validated before it
// is returned.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// HTTP_PORT -> server.port, MODELS_DIR -> models.dir, ...
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices.
// YAML lists are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Model artifacts
	"models_dir":             "models.dir",
	"churn_model_file":       "models.churn_model",
	"plan_model_file":        "models.plan_model",
	"plan_churn_model_file":  "models.plan_churn_model",
	"value_model_file":       "models.value_model",
	"churn_scaler_file":      "models.churn_scaler",
	"plan_scaler_file":       "models.plan_scaler",
	"plan_churn_scaler_file": "models.plan_churn_scaler",

	// Pipeline
	"pipeline_variant": "pipeline.variant",

	// History
	"history_path": "history.path",

	// Database
	"database_enabled":  "database.enabled",
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	// Persistence
	"outbox_dir":             "persistence.outbox_dir",
	"outbox_replay_interval": "persistence.replay_interval",
	"outbox_replay_rate":     "persistence.replay_rate",
	"outbox_replay_burst":    "persistence.replay_burst",
	"outbox_max_attempts":    "persistence.max_attempts",
	"breaker_max_failures":   "persistence.breaker_max_failures",
	"breaker_timeout":        "persistence.breaker_timeout",
	"breaker_interval":       "persistence.breaker_interval",

	// Retraining
	"retrain_dataset":       "retrain.dataset",
	"retrain_seed":          "retrain.seed",
	"retrain_test_fraction": "retrain.test_fraction",
	"retrain_timeout":       "retrain.timeout",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Unmapped names return "" so unrelated variables never leak into config.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - MODELS_DIR -> models.dir
//   - PIPELINE_VARIANT -> pipeline.variant
//   - RETRAIN_TIMEOUT -> retrain.timeout
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
