// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package retrain

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
)

// Dataset is a parsed training file. The label column is removed from X.
type Dataset struct {
	Header []string
	X      [][]float64
	Y      []float64
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Y) }

// LoadDataset reads a headered CSV whose last column is a 0/1 label.
func LoadDataset(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, path)
		}
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // read-only

	return ParseDataset(f)
}

// ParseDataset reads a dataset from r.
func ParseDataset(r io.Reader) (*Dataset, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty file (no header row)", ErrInvalidDataset)
	}

	header := records[0]
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: need at least one feature and a label column, got %d columns",
			ErrInvalidDataset, len(header))
	}
	width := len(header) - 1

	ds := &Dataset{
		Header: header,
		X:      make([][]float64, 0, len(records)-1),
		Y:      make([]float64, 0, len(records)-1),
	}
	for i, rec := range records[1:] {
		line := i + 2
		if len(rec) != len(header) {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d",
				ErrInvalidDataset, line, len(rec), len(header))
		}
		row := make([]float64, width)
		for j := 0; j < width; j++ {
			v, err := parseCell(rec[j])
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %q: %v", ErrInvalidDataset, line, header[j], err)
			}
			row[j] = v
		}
		label, err := parseCell(rec[width])
		if err != nil || (label != 0 && label != 1) {
			return nil, fmt.Errorf("%w: row %d label %q must be 0 or 1", ErrInvalidDataset, line, rec[width])
		}
		ds.X = append(ds.X, row)
		ds.Y = append(ds.Y, label)
	}
	if ds.Len() == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrInvalidDataset)
	}
	return ds, nil
}

func parseCell(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not finite: %q", s)
	}
	return v, nil
}

// Split shuffles the rows with seed and returns the training and holdout
// partitions. The holdout receives ceil(fraction*n) rows.
func (d *Dataset) Split(seed int64, fraction float64) (train, test *Dataset) {
	n := d.Len()
	idx := rand.New(rand.NewSource(seed)).Perm(n) //nolint:gosec // reproducible split, not security sensitive

	// The epsilon keeps products like 0.2*300 from rounding up a row.
	holdout := int(math.Ceil(fraction*float64(n) - 1e-9))
	if holdout > n {
		holdout = n
	}

	pick := func(ix []int) *Dataset {
		out := &Dataset{Header: d.Header, X: make([][]float64, len(ix)), Y: make([]float64, len(ix))}
		for k, i := range ix {
			out.X[k] = d.X[i]
			out.Y[k] = d.Y[i]
		}
		return out
	}
	return pick(idx[holdout:]), pick(idx[:holdout])
}
