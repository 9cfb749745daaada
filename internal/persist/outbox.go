// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package persist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/insurepredict/internal/logging"
	"github.com/tomtom215/insurepredict/internal/metrics"
)

// Entry kinds.
const (
	KindHistory  = "history"
	KindCustomer = "customer"
)

const prefixPending = "pending:"

var (
	// ErrOutboxClosed is returned by operations on a closed outbox.
	ErrOutboxClosed = errors.New("outbox is closed")

	// ErrEntryNotFound is returned when an entry id is unknown.
	ErrEntryNotFound = errors.New("outbox entry not found")
)

// Entry is one write waiting to be replayed.
type Entry struct {
	ID            string          `json:"id"`
	Kind          string          `json:"kind"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"created_at"`
	Attempts      int             `json:"attempts"`
	LastAttemptAt time.Time       `json:"last_attempt_at,omitempty"`
	LastError     string          `json:"last_error,omitempty"`
}

// UnmarshalPayload decodes the payload into v.
func (e *Entry) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// Outbox is a BadgerDB-backed queue of failed writes.
type Outbox struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed bool
}

// OpenOutbox opens or creates the outbox in dir.
func OpenOutbox(dir string) (*Outbox, error) {
	opts := badger.DefaultOptions(dir).
		WithSyncWrites(true).
		WithLogger(nil)
	return openOutbox(opts, dir)
}

// OpenInMemoryOutbox opens an outbox that does not survive Close.
func OpenInMemoryOutbox() (*Outbox, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil)
	return openOutbox(opts, ":memory:")
}

//nolint:gocritic // badger.Options is passed by value throughout badger's API
func openOutbox(opts badger.Options, label string) (*Outbox, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open outbox: %w", err)
	}
	o := &Outbox{db: db}

	n, err := o.Len(context.Background())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	metrics.OutboxPending.Set(float64(n))

	logging.Info().Str("path", label).Int("pending", n).Msg("Outbox opened")
	return o, nil
}

func (o *Outbox) checkOpen() error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return ErrOutboxClosed
	}
	return nil
}

// Put stores payload under kind and returns the entry id.
func (o *Outbox) Put(_ context.Context, kind string, payload interface{}) (string, error) {
	if err := o.checkOpen(); err != nil {
		return "", err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	entry := &Entry{
		ID:        uuid.New().String(),
		Kind:      kind,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("marshal entry: %w", err)
	}

	err = o.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefixPending+entry.ID), data)
	})
	if err != nil {
		return "", fmt.Errorf("write outbox entry: %w", err)
	}
	metrics.OutboxPending.Inc()
	return entry.ID, nil
}

// Pending returns every stored entry, oldest key order first.
func (o *Outbox) Pending(ctx context.Context) ([]*Entry, error) {
	if err := o.checkOpen(); err != nil {
		return nil, err
	}

	var entries []*Entry
	err := o.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixPending)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var e Entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				logging.Warn().Err(err).Str("key", string(it.Item().Key())).Msg("Skipping unreadable outbox entry")
				continue
			}
			entries = append(entries, &e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read outbox: %w", err)
	}
	return entries, nil
}

// Len counts stored entries.
func (o *Outbox) Len(ctx context.Context) (int, error) {
	if err := o.checkOpen(); err != nil {
		return 0, err
	}
	n := 0
	err := o.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixPending)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count outbox: %w", err)
	}
	return n, nil
}

// RecordAttempt increments the attempt counter of id and stores cause.
func (o *Outbox) RecordAttempt(_ context.Context, id string, cause error) error {
	if err := o.checkOpen(); err != nil {
		return err
	}
	key := []byte(prefixPending + id)
	return o.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrEntryNotFound
		}
		if err != nil {
			return fmt.Errorf("get outbox entry: %w", err)
		}
		var e Entry
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &e)
		}); err != nil {
			return fmt.Errorf("unmarshal outbox entry: %w", err)
		}

		e.Attempts++
		e.LastAttemptAt = time.Now().UTC()
		if cause != nil {
			e.LastError = cause.Error()
		}
		data, err := json.Marshal(&e)
		if err != nil {
			return fmt.Errorf("marshal outbox entry: %w", err)
		}
		return txn.Set(key, data)
	})
}

// Delete removes id. Deleting an unknown id returns ErrEntryNotFound.
func (o *Outbox) Delete(_ context.Context, id string) error {
	if err := o.checkOpen(); err != nil {
		return err
	}
	key := []byte(prefixPending + id)
	err := o.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrEntryNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		return err
	}
	metrics.OutboxPending.Dec()
	return nil
}

// Close closes the underlying database. Further calls return ErrOutboxClosed.
func (o *Outbox) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	return o.db.Close()
}
