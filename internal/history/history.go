// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

// Package history reads and appends the customer history log: a CSV file
// with the 12 feature columns followed by a churn label.
//
// The log serves two consumers. The similarity recommender reads it once at
// startup as a Table and never again; rows appended while the process runs
// only become visible after a restart. Retraining reads the same file as its
// training set.
package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/insurepredict/internal/features"
)

// LabelColumn is the header of the 13th column.
const LabelColumn = "Churn"

// Header returns the 13 column names written at the top of a new log.
func Header() []string {
	return append(features.Names(), LabelColumn)
}

// ErrMalformed is wrapped by every parse error in Load.
var ErrMalformed = errors.New("malformed history log")

// Table is a frozen snapshot of the history log.
type Table struct {
	rows     []features.Vector
	labels   []int
	loadedAt time.Time
}

// NewTable builds a Table from parallel rows and labels.
func NewTable(rows []features.Vector, labels []int) (*Table, error) {
	if len(rows) != len(labels) {
		return nil, fmt.Errorf("got %d rows but %d labels", len(rows), len(labels))
	}
	for i, l := range labels {
		if l != 0 && l != 1 {
			return nil, fmt.Errorf("row %d: label must be 0 or 1, got %d", i, l)
		}
	}
	return &Table{
		rows:     append([]features.Vector(nil), rows...),
		labels:   append([]int(nil), labels...),
		loadedAt: time.Now().UTC(),
	}, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns row i.
func (t *Table) Row(i int) features.Vector { return t.rows[i] }

// Label returns the churn label of row i.
func (t *Table) Label(i int) int { return t.labels[i] }

// LoadedAt reports when the snapshot was taken.
func (t *Table) LoadedAt() time.Time { return t.loadedAt }

// Load reads the log at path. A missing file yields an empty table so a
// fresh deployment can serve before its first prediction is logged.
func Load(path string) (*Table, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewTable(nil, nil)
		}
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // read-only

	r := csv.NewReader(f)
	r.FieldsPerRecord = features.Count + 1
	r.TrimLeadingSpace = true

	var rows []features.Vector
	var labels []int
	line := 0
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
		}
		if line == 1 && isHeader(rec) {
			continue
		}

		var v features.Vector
		for i := 0; i < features.Count; i++ {
			x, err := strconv.ParseFloat(rec[i], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s line %d column %s: %q is not a number",
					ErrMalformed, path, line, features.Name(i), rec[i])
			}
			v[i] = x
		}
		label, err := parseLabel(rec[features.Count])
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrMalformed, path, line, err)
		}
		rows = append(rows, v)
		labels = append(labels, label)
	}
	return NewTable(rows, labels)
}

func isHeader(rec []string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
	return err != nil
}

func parseLabel(s string) (int, error) {
	x, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || (x != 0 && x != 1) {
		return 0, fmt.Errorf("churn label must be 0 or 1, got %q", s)
	}
	return int(x), nil
}

// Appender appends rows to the log. Appends are serialized; concurrent
// predictions may call Append freely.
type Appender struct {
	path string
	mu   sync.Mutex
}

// NewAppender returns an Appender for path. The file is created on first
// append.
func NewAppender(path string) *Appender {
	return &Appender{path: path}
}

// Path returns the log path.
func (a *Appender) Path() string { return a.path }

// Append writes one row. A header is written first when the file is new or
// empty.
func (a *Appender) Append(v features.Vector, label int) error {
	if label != 0 && label != 1 {
		return fmt.Errorf("history: label must be 0 or 1, got %d", label)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(a.path), 0o750); err != nil {
		return fmt.Errorf("history: create log directory: %w", err)
	}
	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // path comes from configuration
	if err != nil {
		return fmt.Errorf("history: open %s: %w", a.path, err)
	}
	defer f.Close() //nolint:errcheck // write errors surface through Flush

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("history: stat %s: %w", a.path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Header()); err != nil {
			return fmt.Errorf("history: write header: %w", err)
		}
	}
	rec := make([]string, 0, features.Count+1)
	for _, x := range v {
		rec = append(rec, strconv.FormatFloat(x, 'g', -1, 64))
	}
	rec = append(rec, strconv.Itoa(label))
	if err := w.Write(rec); err != nil {
		return fmt.Errorf("history: write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("history: flush %s: %w", a.path, err)
	}
	return nil
}
