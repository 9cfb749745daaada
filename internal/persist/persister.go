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

	"github.com/tomtom215/insurepredict/internal/database"
	"github.com/tomtom215/insurepredict/internal/features"
	"github.com/tomtom215/insurepredict/internal/logging"
	"github.com/tomtom215/insurepredict/internal/metrics"
)

// ErrPersistence wraps every failed write reported by Record.
var ErrPersistence = errors.New("persistence failed")

// HistoryWriter appends labeled rows to the history log.
type HistoryWriter interface {
	Append(v features.Vector, label int) error
}

// Prediction is what gets stored for one successful analysis.
type Prediction struct {
	Features    features.Vector
	Label       int
	Probability float64

	// Customer is stored when the request carried raw customer data.
	Customer *database.CustomerRecord
}

// historyPayload is the outbox form of a history row.
type historyPayload struct {
	Features []float64 `json:"features"`
	Label    int       `json:"label"`
}

// Persister writes predictions to the history log and the customer store.
// Either destination may be nil, in which case that write is skipped.
type Persister struct {
	history HistoryWriter
	store   CustomerStore
	outbox  *Outbox
	logger  zerolog.Logger
}

// NewPersister creates a Persister. outbox may be nil to disable retries.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewPersister(history HistoryWriter, store CustomerStore, outbox *Outbox, logger zerolog.Logger) *Persister {
	return &Persister{
		history: history,
		store:   store,
		outbox:  outbox,
		logger:  logger.With().Str("component", "persist").Logger(),
	}
}

// Record performs both writes. Failures are logged, counted and queued in
// the outbox; the returned error only tells the caller that something was
// deferred and wraps ErrPersistence.
func (p *Persister) Record(ctx context.Context, pred Prediction) error {
	var errs []error

	if p.history != nil {
		if err := p.history.Append(pred.Features, pred.Label); err != nil {
			p.fail(ctx, KindHistory, err, historyPayload{Features: pred.Features.Slice(), Label: pred.Label})
			errs = append(errs, fmt.Errorf("history: %w", err))
		}
	}

	if pred.Customer != nil && p.store != nil {
		rec := *pred.Customer
		rec.ChurnProbability = pred.Probability
		rec.Churn = churnText(pred.Label)
		if rec.ID == "" {
			rec.ID = database.NewCustomerID()
		}
		if err := p.store.InsertCustomer(ctx, &rec); err != nil {
			p.fail(ctx, KindCustomer, err, &rec)
			errs = append(errs, fmt.Errorf("customer %s: %w", rec.ID, err))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPersistence, errors.Join(errs...))
}

func (p *Persister) fail(ctx context.Context, kind string, cause error, payload interface{}) {
	metrics.RecordPersistenceFailure(kind)

	ev := p.logger.Error().
		Err(cause).
		Str("target", kind).
		Str("request_id", logging.RequestIDFromContext(ctx))

	if p.outbox == nil {
		ev.Msg("Persistence write failed, no outbox configured")
		return
	}
	id, err := p.outbox.Put(ctx, kind, payload)
	if err != nil {
		ev.AnErr("outbox_error", err).Msg("Persistence write failed and could not be queued")
		return
	}
	ev.Str("outbox_id", id).Msg("Persistence write failed, queued for replay")
}

func churnText(label int) string {
	if label == 1 {
		return "Yes"
	}
	return "No"
}
