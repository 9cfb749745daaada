// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/tomtom215/insurepredict/internal/api"
	"github.com/tomtom215/insurepredict/internal/config"
	"github.com/tomtom215/insurepredict/internal/database"
	"github.com/tomtom215/insurepredict/internal/history"
	"github.com/tomtom215/insurepredict/internal/logging"
	"github.com/tomtom215/insurepredict/internal/persist"
	"github.com/tomtom215/insurepredict/internal/predict"
	"github.com/tomtom215/insurepredict/internal/registry"
	"github.com/tomtom215/insurepredict/internal/retrain"
	"github.com/tomtom215/insurepredict/internal/supervisor"
	"github.com/tomtom215/insurepredict/internal/supervisor/services"
)

// app owns everything main starts and must close.
type app struct {
	tree   *supervisor.SupervisorTree
	server *http.Server
	db     *database.DB
	outbox *persist.Outbox
}

// newApp builds the component graph from cfg. On error every resource
// opened so far is closed.
func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	variant, err := predict.ParseVariant(cfg.Pipeline.Variant)
	if err != nil {
		return nil, err
	}

	reg, err := registry.Load(ctx, registryPaths(&cfg.Models), logging.Logger())
	if err != nil {
		return nil, err
	}

	var table *history.Table
	if variant == predict.VariantSimilarity {
		table, err = history.Load(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
		logging.Info().Int("rows", table.Len()).Str("path", cfg.History.Path).Msg("History snapshot loaded")
	}
	appender := history.NewAppender(cfg.History.Path)

	deps := api.Deps{
		Analyzer:  predict.NewAnalyzer(reg, table, variant, logging.Logger()),
		Artifacts: reg,
		Trainer:   retrain.NewTrainer(retrainConfig(&cfg.Retrain, &cfg.Models), logging.Logger()),
		Retrain: api.RetrainTarget{
			Dataset: cfg.Retrain.Dataset,
			Output:  cfg.Models.Path(cfg.Models.ChurnModel),
		},
	}

	var store persist.CustomerStore
	if cfg.Database.Enabled {
		a.db, err = database.New(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		deps.Customers = a.db
		store = persist.NewBreakerStore(a.db, breakerConfig(&cfg.Persistence))
	}

	if cfg.Persistence.OutboxDir != "" {
		a.outbox, err = persist.OpenOutbox(cfg.Persistence.OutboxDir)
		if err != nil {
			return nil, err
		}
		deps.Outbox = a.outbox
	}

	deps.Persister = persist.NewPersister(appender, store, a.outbox, logging.Logger())

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create supervisor tree: %w", err)
	}
	a.tree = tree

	router := api.NewRouter(api.NewHandler(deps), api.NewChiMiddlewareFromConfig(&cfg.Security))
	a.server = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: cfg.Server.Timeout,
		ReadTimeout:       cfg.Server.Timeout,
		// Retraining runs inside the request, so writes may take as long
		// as the retrain timeout.
		WriteTimeout: cfg.Server.Timeout + cfg.Retrain.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(a.server, cfg.Server.ShutdownTimeout))

	if a.outbox != nil {
		replayer := persist.NewReplayer(a.outbox, appender, store, replayConfig(&cfg.Persistence), logging.Logger())
		tree.AddPersistenceService(services.NewOutboxReplayService(replayer, cfg.Persistence.ReplayInterval, logging.Logger()))
	}

	logging.Info().
		Str("variant", string(variant)).
		Interface("artifacts", reg.Summary()).
		Bool("outbox", a.outbox != nil).
		Msg("Components initialized")

	return a, nil
}

// Close releases the outbox and the database. Safe on a partial app.
func (a *app) Close() {
	var errs []error
	if a.outbox != nil {
		errs = append(errs, a.outbox.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		logging.Error().Err(err).Msg("Error closing resources")
	}
}

func registryPaths(m *config.ModelsConfig) registry.Paths {
	return registry.Paths{
		ChurnModel:      m.Path(m.ChurnModel),
		PlanModel:       m.Path(m.PlanModel),
		PlanChurnModel:  m.Path(m.PlanChurnModel),
		ValueModel:      m.Path(m.ValueModel),
		ChurnScaler:     m.Path(m.ChurnScaler),
		PlanScaler:      m.Path(m.PlanScaler),
		PlanChurnScaler: m.Path(m.PlanChurnScaler),
	}
}

func retrainConfig(r *config.RetrainConfig, m *config.ModelsConfig) retrain.Config {
	cfg := retrain.DefaultConfig()
	cfg.Seed = r.Seed
	cfg.TestFraction = r.TestFraction
	cfg.Timeout = r.Timeout
	cfg.ScalerPath = m.Path(m.ChurnScaler)
	return cfg
}

func breakerConfig(p *config.PersistenceConfig) persist.BreakerConfig {
	return persist.BreakerConfig{
		Name:        "customer-db",
		MaxFailures: p.BreakerMaxFailures,
		Timeout:     p.BreakerTimeout,
		Interval:    p.BreakerInterval,
	}
}

func replayConfig(p *config.PersistenceConfig) persist.ReplayConfig {
	return persist.ReplayConfig{
		Rate:        p.ReplayRate,
		Burst:       p.ReplayBurst,
		MaxAttempts: p.MaxAttempts,
	}
}
