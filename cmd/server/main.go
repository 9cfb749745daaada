// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

// Package main is the InsurePredict HTTP server.
//
// The server loads configuration (koanf: defaults, then config.yaml, then
// environment), loads every model artifact once into an immutable registry,
// and serves the prediction API under a suture supervisor tree.
//
// Startup order:
//
//  1. Configuration and logging
//  2. Model registry (a missing churn or plan model is fatal)
//  3. History snapshot (similarity variant only) and history log appender
//  4. DuckDB customer store and the badger outbox (when enabled)
//  5. Persister, analyzer and trainer
//  6. Supervisor tree with the HTTP server and the outbox replay loop
//
// SIGINT and SIGTERM stop the tree; the HTTP server drains in-flight
// requests for up to server.shutdown_timeout.
//
// Example:
//
//	export MODELS_DIR=/var/lib/insurepredict/models
//	export PIPELINE_VARIANT=similarity
//	export HTTP_PORT=8000
//	./insurepredict
package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/tomtom215/insurepredict/internal/config"
	"github.com/tomtom215/insurepredict/internal/logging"
	"github.com/tomtom215/insurepredict/internal/registry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.LogFormat(),
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("variant", cfg.Pipeline.Variant).
		Str("models_dir", cfg.Models.Dir).
		Bool("database", cfg.Database.Enabled).
		Msg("Starting InsurePredict")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		if errors.Is(err, registry.ErrArtifactUnavailable) {
			logging.Fatal().Err(err).Msg("Required model artifact missing, refusing to start")
		}
		logging.Fatal().Err(err).Msg("Failed to initialize server")
	}
	defer a.Close()

	logging.Info().Str("addr", a.server.Addr).Msg("Starting supervisor tree")
	errCh := a.tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for services to stop")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if unstopped, _ := a.tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	logging.Info().Msg("InsurePredict stopped")
}
