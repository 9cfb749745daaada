// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

// Package logging provides centralized zerolog-based structured logging for InsurePredict.
//
// The package wraps a single global zerolog.Logger that is configured once at
// startup with Init. Components derive their own loggers with WithComponent
// and receive them through their constructors, so the prediction pipeline never
// reaches for the global instance directly.
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("variant", "value").Msg("Pipeline ready")
//	logging.Error().Err(err).Msg("Failed to append history row")
//
// # Context-Aware Logging
//
// HTTP middleware stores a request ID in the request context; Ctx returns a
// logger that carries it:
//
//	logging.Ctx(r.Context()).Warn().Err(err).Msg("Value model failed, using fallback")
//
// # slog Adapter
//
// Suture reports supervisor events through log/slog. NewSlogLogger bridges
// those events onto the global zerolog logger:
//
//	handler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
//
// # Output Formats
//
// JSON Format (Production):
//
//	{"level":"info","time":"2026-01-03T10:30:00Z","message":"Server starting","port":8000}
//
// Console Format (Development):
//
//	10:30:00 INF Server starting port=8000
//
// All exported functions are safe for concurrent use.
package logging
