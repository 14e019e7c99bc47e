// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package storage

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tomtom215/postwise/internal/features"
	"github.com/tomtom215/postwise/internal/gbm"
	"github.com/tomtom215/postwise/internal/timeprediction"
)

// ErrChecksumMismatch means an artifact's payload does not match its checksum.
var ErrChecksumMismatch = errors.New("artifact checksum mismatch")

// ArtifactMetadata describes one stored tier.
type ArtifactMetadata struct {
	// Key is the tier key ("global", "channel:<id>", "content:<type>").
	Key string `json:"key"`

	// Version and RunID identify the model set the tier belongs to.
	Version int    `json:"version"`
	RunID   string `json:"run_id"`

	Samples   int       `json:"samples"`
	TrainMSE  float64   `json:"train_mse"`
	TrainedAt time.Time `json:"trained_at"`
	SavedAt   time.Time `json:"saved_at"`

	// Checksum is the SHA-256 of the uncompressed payload.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed payload size.
	SizeBytes int64 `json:"size_bytes"`
}

// artifactState is the payload of an artifact.
type artifactState struct {
	Columns []string
	Model   gbm.Model
}

// storedFile is the on-disk format of an artifact.
type storedFile struct {
	Metadata       ArtifactMetadata
	CompressedData []byte
}

// encodeArtifact serializes one tier of a model set.
func encodeArtifact(m *timeprediction.TrainedModel, info timeprediction.SetInfo) ([]byte, ArtifactMetadata, error) {
	if m.Model == nil {
		return nil, ArtifactMetadata{}, fmt.Errorf("tier %s has no model", m.Tier)
	}

	var raw bytes.Buffer
	state := artifactState{Columns: m.Schema.Columns(), Model: *m.Model}
	if err := gob.NewEncoder(&raw).Encode(state); err != nil {
		return nil, ArtifactMetadata{}, fmt.Errorf("encode tier %s: %w", m.Tier, err)
	}

	hash := sha256.Sum256(raw.Bytes())

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return nil, ArtifactMetadata{}, fmt.Errorf("compress tier %s: %w", m.Tier, err)
	}
	if err := gzw.Close(); err != nil {
		return nil, ArtifactMetadata{}, fmt.Errorf("finalize compression: %w", err)
	}

	meta := ArtifactMetadata{
		Key:       m.Tier.Key(),
		Version:   info.Version,
		RunID:     info.RunID,
		Samples:   m.Samples,
		TrainMSE:  m.TrainMSE,
		TrainedAt: m.TrainedAt,
		SavedAt:   time.Now().UTC(),
		Checksum:  hex.EncodeToString(hash[:]),
		SizeBytes: int64(compressed.Len()),
	}

	var out bytes.Buffer
	if err := gob.NewEncoder(&out).Encode(storedFile{Metadata: meta, CompressedData: compressed.Bytes()}); err != nil {
		return nil, ArtifactMetadata{}, fmt.Errorf("write tier %s: %w", m.Tier, err)
	}
	return out.Bytes(), meta, nil
}

// decodeArtifact restores a tier and verifies its integrity: checksum,
// tree structure, and agreement between the schema and the model.
func decodeArtifact(data []byte) (*timeprediction.TrainedModel, ArtifactMetadata, error) {
	var sf storedFile
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&sf); err != nil {
		return nil, ArtifactMetadata{}, fmt.Errorf("read artifact: %w", err)
	}
	meta := sf.Metadata

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, meta, fmt.Errorf("decompress artifact: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, meta, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(raw)
	if checksum := hex.EncodeToString(hash[:]); checksum != meta.Checksum {
		return nil, meta, fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, meta.Checksum, checksum)
	}

	var state artifactState
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&state); err != nil {
		return nil, meta, fmt.Errorf("decode artifact: %w", err)
	}

	tier, err := timeprediction.ParseTierKey(meta.Key)
	if err != nil {
		return nil, meta, err
	}
	if len(state.Columns) == 0 {
		return nil, meta, fmt.Errorf("%w: tier %s has no recorded schema", timeprediction.ErrSchemaMismatch, tier)
	}
	schema, err := features.NewSchema(state.Columns)
	if err != nil {
		return nil, meta, fmt.Errorf("%w: tier %s: %v", timeprediction.ErrSchemaMismatch, tier, err)
	}
	if err := state.Model.Validate(); err != nil {
		return nil, meta, fmt.Errorf("tier %s: %w", tier, err)
	}
	if schema.Len() != state.Model.NumFeatures {
		return nil, meta, fmt.Errorf("%w: tier %s schema has %d columns, model expects %d",
			timeprediction.ErrSchemaMismatch, tier, schema.Len(), state.Model.NumFeatures)
	}

	model := state.Model
	return &timeprediction.TrainedModel{
		Tier:      tier,
		Schema:    schema,
		Model:     &model,
		Samples:   meta.Samples,
		TrainMSE:  meta.TrainMSE,
		TrainedAt: meta.TrainedAt,
	}, meta, nil
}

// Manifest lists the artifacts of a published model set.
type Manifest struct {
	Version     int             `json:"version"`
	RunID       string          `json:"run_id"`
	TrainedAt   time.Time       `json:"trained_at"`
	PublishedAt time.Time       `json:"published_at"`
	Tiers       []ManifestEntry `json:"tiers"`
}

// ManifestEntry points at one artifact.
type ManifestEntry struct {
	Key      string `json:"key"`
	File     string `json:"file,omitempty"`
	Checksum string `json:"checksum"`
	Samples  int    `json:"samples"`
}

func (m *Manifest) info() timeprediction.SetInfo {
	return timeprediction.SetInfo{Version: m.Version, RunID: m.RunID, TrainedAt: m.TrainedAt}
}

// setName is the storage name of a model set: the zero-padded version
// followed by the first eight characters of the run id.
func setName(info timeprediction.SetInfo) string {
	run := info.RunID
	if len(run) > 8 {
		run = run[:8]
	}
	if run == "" {
		run = "norun"
	}
	return fmt.Sprintf("v%06d-%s", info.Version, run)
}

// parseSetVersion extracts the version from a set name, or returns false.
func parseSetVersion(name string) (int, bool) {
	var v int
	var rest string
	if n, err := fmt.Sscanf(name, "v%d-%s", &v, &rest); err != nil || n != 2 || v < 1 {
		return 0, false
	}
	return v, true
}
