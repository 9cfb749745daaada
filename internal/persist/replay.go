// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/insurepredict/internal/database"
	"github.com/tomtom215/insurepredict/internal/features"
	"github.com/tomtom215/insurepredict/internal/metrics"
)

// ReplayConfig paces outbox replays.
type ReplayConfig struct {
	// Rate is the maximum number of replays per second.
	Rate float64
	// Burst is the limiter burst size.
	Burst int
	// MaxAttempts drops an entry after this many failed replays.
	MaxAttempts int
}

// DrainStats summarizes one drain pass.
type DrainStats struct {
	Replayed int
	Failed   int
	Dropped  int
}

// Replayer re-applies outbox entries to their destinations.
type Replayer struct {
	outbox      *Outbox
	history     HistoryWriter
	store       CustomerStore
	limiter     *rate.Limiter
	maxAttempts int
	logger      zerolog.Logger
}

// NewReplayer creates a Replayer.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewReplayer(outbox *Outbox, history HistoryWriter, store CustomerStore, cfg ReplayConfig, logger zerolog.Logger) *Replayer {
	if cfg.Rate <= 0 {
		cfg.Rate = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	return &Replayer{
		outbox:      outbox,
		history:     history,
		store:       store,
		limiter:     rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		maxAttempts: cfg.MaxAttempts,
		logger:      logger.With().Str("component", "outbox-replay").Logger(),
	}
}

// Drain makes one pass over the outbox. It stops early when ctx is done.
func (r *Replayer) Drain(ctx context.Context) (DrainStats, error) {
	var stats DrainStats

	entries, err := r.outbox.Pending(ctx)
	if err != nil {
		return stats, err
	}

	for _, e := range entries {
		if err := r.limiter.Wait(ctx); err != nil {
			return stats, err
		}

		if err := r.apply(ctx, e); err != nil {
			stats.Failed++
			metrics.OutboxReplayed.WithLabelValues("failure").Inc()

			if e.Attempts+1 >= r.maxAttempts {
				stats.Dropped++
				metrics.OutboxReplayed.WithLabelValues("dropped").Inc()
				r.logger.Error().Err(err).
					Str("outbox_id", e.ID).
					Str("kind", e.Kind).
					Int("attempts", e.Attempts+1).
					Msg("Dropping outbox entry after repeated failures")
				if derr := r.outbox.Delete(ctx, e.ID); derr != nil && !errors.Is(derr, ErrEntryNotFound) {
					return stats, derr
				}
				continue
			}
			if aerr := r.outbox.RecordAttempt(ctx, e.ID, err); aerr != nil && !errors.Is(aerr, ErrEntryNotFound) {
				return stats, aerr
			}
			continue
		}

		if err := r.outbox.Delete(ctx, e.ID); err != nil && !errors.Is(err, ErrEntryNotFound) {
			return stats, err
		}
		stats.Replayed++
		metrics.OutboxReplayed.WithLabelValues("success").Inc()
	}

	if stats.Replayed+stats.Failed > 0 {
		r.logger.Info().
			Int("replayed", stats.Replayed).
			Int("failed", stats.Failed).
			Int("dropped", stats.Dropped).
			Msg("Outbox drained")
	}
	return stats, nil
}

func (r *Replayer) apply(ctx context.Context, e *Entry) error {
	switch e.Kind {
	case KindHistory:
		if r.history == nil {
			return errors.New("no history writer configured")
		}
		var p historyPayload
		if err := e.UnmarshalPayload(&p); err != nil {
			return fmt.Errorf("decode history payload: %w", err)
		}
		v, err := features.FromFloats(p.Features)
		if err != nil {
			return fmt.Errorf("decode history payload: %w", err)
		}
		return r.history.Append(v, p.Label)

	case KindCustomer:
		if r.store == nil {
			return errors.New("no customer store configured")
		}
		var rec database.CustomerRecord
		if err := e.UnmarshalPayload(&rec); err != nil {
			return fmt.Errorf("decode customer payload: %w", err)
		}
		return r.store.InsertCustomer(ctx, &rec)

	default:
		return fmt.Errorf("unknown outbox entry kind %q", e.Kind)
	}
}
