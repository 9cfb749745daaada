// InsurePredict - Insurance Churn Scoring and Plan Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insurepredict

package registry

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/tomtom215/insurepredict/internal/gbdt"
)

// Metadata describes a stored model artifact.
type Metadata struct {
	Name            string         `json:"name" yaml:"name"`
	Objective       gbdt.Objective `json:"objective" yaml:"objective"`
	NumFeatures     int            `json:"num_features" yaml:"num_features"`
	Trees           int            `json:"trees" yaml:"trees"`
	TrainRows       int            `json:"train_rows" yaml:"train_rows"`
	HoldoutRows     int            `json:"holdout_rows" yaml:"holdout_rows"`
	HoldoutAccuracy float64        `json:"holdout_accuracy" yaml:"holdout_accuracy"`
	TrainedAt       time.Time      `json:"trained_at" yaml:"trained_at"`
	SavedAt         time.Time      `json:"saved_at" yaml:"saved_at"`
	Checksum        string         `json:"checksum" yaml:"checksum"`
	SizeBytes       int64          `json:"size_bytes" yaml:"size_bytes"`
}

// storedFile is the on-disk format: gob(Metadata, gzip(gob(model))).
type storedFile struct {
	Metadata       Metadata
	CompressedData []byte
}

// SaveModel writes m to path atomically. The previous artifact at path is
// only replaced once the new file is fully written and synced.
//
//nolint:gocritic // meta passed by value is filled in before writing
func SaveModel(path string, m *gbdt.Model, meta Metadata) (*Metadata, error) {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(m); err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	hash := sha256.Sum256(raw.Bytes())
	meta.Checksum = hex.EncodeToString(hash[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return nil, fmt.Errorf("compress model: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("finalize compression: %w", err)
	}

	meta.SizeBytes = int64(compressed.Len())
	meta.SavedAt = time.Now().UTC()
	meta.Objective = m.Objective
	meta.NumFeatures = m.NumFeatures
	meta.Trees = len(m.Trees)
	if meta.Name == "" {
		meta.Name = filepath.Base(path)
	}

	var file bytes.Buffer
	if err := gob.NewEncoder(&file).Encode(storedFile{Metadata: meta, CompressedData: compressed.Bytes()}); err != nil {
		return nil, fmt.Errorf("encode model file: %w", err)
	}
	if err := WriteFileAtomic(path, file.Bytes(), 0o640); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadModel reads, verifies and decodes the model at path. A missing file
// is reported as fs.ErrNotExist so callers can tell it apart from corruption.
func LoadModel(path string) (*gbdt.Model, *Metadata, error) {
	sf, err := readStored(path)
	if err != nil {
		return nil, nil, err
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, nil, fmt.Errorf("decompress model: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // read-only

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, nil, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(raw)
	if got := hex.EncodeToString(hash[:]); got != sf.Metadata.Checksum {
		return nil, nil, fmt.Errorf("checksum mismatch: expected %s, got %s", sf.Metadata.Checksum, got)
	}

	var m gbdt.Model
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&m); err != nil {
		return nil, nil, fmt.Errorf("decode model: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid model: %w", err)
	}
	return &m, &sf.Metadata, nil
}

// ReadMetadata returns only the metadata header of the artifact at path.
func ReadMetadata(path string) (*Metadata, error) {
	sf, err := readStored(path)
	if err != nil {
		return nil, err
	}
	return &sf.Metadata, nil
}

func readStored(path string) (*storedFile, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // read-only

	var sf storedFile
	if err := gob.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	return &sf, nil
}

// WriteFileAtomic writes data to a temporary file in the target directory,
// syncs it and renames it over path. On failure the temporary file is
// removed and path is left as it was.
func WriteFileAtomic(path string, data []byte, perm fs.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()       //nolint:errcheck // best effort on failure path
			_ = os.Remove(tmpName) //nolint:errcheck // best effort on failure path
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Chmod(perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
