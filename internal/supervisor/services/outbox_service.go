// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/insurepredict/internal/persist"
)

// Drainer replays pending outbox entries. Satisfied by *persist.Replayer.
type Drainer interface {
	Drain(ctx context.Context) (persist.DrainStats, error)
}

// OutboxReplayService drains the outbox once at startup and then on every
// tick. A failed pass is logged and retried on the next tick; it does not
// fail the service.
type OutboxReplayService struct {
	drainer  Drainer
	interval time.Duration
	logger   zerolog.Logger
	name     string
}

// NewOutboxReplayService creates the service. A non-positive interval
// becomes 30s.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewOutboxReplayService(drainer Drainer, interval time.Duration, logger zerolog.Logger) *OutboxReplayService {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &OutboxReplayService{
		drainer:  drainer,
		interval: interval,
		logger:   logger.With().Str("service", "outbox-replay").Logger(),
		name:     "outbox-replay",
	}
}

// Serve implements suture.Service.
func (s *OutboxReplayService) Serve(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("Outbox replay service starting")

	s.drain(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Outbox replay service stopping")
			return ctx.Err()
		case <-ticker.C:
			s.drain(ctx)
		}
	}
}

func (s *OutboxReplayService) drain(ctx context.Context) {
	stats, err := s.drainer.Drain(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn().
			Err(err).
			Int("replayed", stats.Replayed).
			Int("failed", stats.Failed).
			Msg("Outbox drain interrupted")
	}
}

func (s *OutboxReplayService) String() string {
	return s.name
}
