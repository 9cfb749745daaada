// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

/*
Package config loads and validates InsurePredict configuration.

# Configuration Sources

Configuration is layered with Koanf v2, later layers overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: $CONFIG_PATH, ./config.yaml, ./config.yml,
    /etc/insurepredict/config.yaml
 3. Environment variables, mapped explicitly by envTransformFunc

Unknown environment variables are ignored.

# Sections

  - server: HTTP listener (HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT, ENVIRONMENT)
  - logging: zerolog level and format (LOG_LEVEL, LOG_FORMAT, LOG_CALLER)
  - models: artifact directory and file names (MODELS_DIR, CHURN_MODEL_FILE, ...)
  - pipeline: enrichment variant, "value" or "similarity" (PIPELINE_VARIANT)
  - history: customer history log (HISTORY_PATH)
  - database: DuckDB customer store (DATABASE_ENABLED, DUCKDB_PATH)
  - persistence: retry outbox and circuit breaker (OUTBOX_DIR, ...)
  - retrain: retraining job (RETRAIN_DATASET, RETRAIN_TIMEOUT, RETRAIN_SEED)
  - security: CORS and rate limits (CORS_ORIGINS, RATE_LIMIT_REQUESTS)

# Validation

Validate runs go-playground/validator struct tags first and then the
cross-field checks that tags cannot express. Load fails on the first
invalid field, naming it by its koanf path.

Example config.yaml:

	server:
	  port: 8000
	pipeline:
	  variant: similarity
	models:
	  dir: /var/lib/insurepredict/models
	retrain:
	  timeout: 10m
*/
package config
