// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package persist

import (
	"context"
	"sync"
	"testing"

	"github.com/tomtom215/insurepredict/internal/database"
	"github.com/tomtom215/insurepredict/internal/features"
)

type fakeHistory struct {
	mu     sync.Mutex
	err    error
	rows   []features.Vector
	labels []int
}

func (f *fakeHistory) Append(v features.Vector, label int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, v)
	f.labels = append(f.labels, label)
	return nil
}

func (f *fakeHistory) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type fakeStore struct {
	mu    sync.Mutex
	err   error
	calls int
	recs  []database.CustomerRecord
}

func (f *fakeStore) InsertCustomer(_ context.Context, rec *database.CustomerRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.recs = append(f.recs, *rec)
	return nil
}

func (f *fakeStore) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func newTestOutbox(t *testing.T) *Outbox {
	t.Helper()

	o, err := OpenInMemoryOutbox()
	if err != nil {
		t.Fatalf("OpenInMemoryOutbox() error = %v", err)
	}
	t.Cleanup(func() { _ = o.Close() })
	return o
}

func sampleVector() features.Vector {
	return features.Vector{45, 1, 60000, 2000, 3000, 1, 0, 10, 1, 0, 0, 2}
}
