// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/postwise/internal/timeprediction"
)

// Key layout
const (
	keyCurrent   = "modelset:current"
	keySetPrefix = "modelset:set:"

	suffixManifest = ":manifest"
	suffixReport   = ":report"
	infixTier      = ":tier:"
)

// OpenBadger opens a BadgerDB for model storage. An empty path opens an
// in-memory database.
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	return db, nil
}

// BadgerStore persists model sets in BadgerDB.
type BadgerStore struct {
	db     *badger.DB
	retain int
	logger zerolog.Logger

	mu sync.Mutex
}

var _ timeprediction.Store = (*BadgerStore)(nil)

// NewBadgerStore creates a store on db keeping the retain most recent sets.
// The caller owns db.
func NewBadgerStore(db *badger.DB, retain int, logger zerolog.Logger) *BadgerStore {
	if retain < 1 {
		retain = 1
	}
	return &BadgerStore{
		db:     db,
		retain: retain,
		logger: logger.With().Str("component", "model_store").Str("backend", "badger").Logger(),
	}
}

func setPrefix(name string) string { return keySetPrefix + name }

func tierKey(name, tier string) []byte {
	return []byte(setPrefix(name) + infixTier + tier)
}

// Publish writes every artifact of set and then switches the current
// pointer in a single transaction.
func (s *BadgerStore) Publish(ctx context.Context, set *timeprediction.ModelSet, report *timeprediction.TrainingReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := set.Info()
	name := setName(info)

	exists := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(setPrefix(name) + suffixManifest))
		if err == nil {
			exists = true
			return nil
		}
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %v", timeprediction.ErrPersistence, err)
	}
	if exists {
		return fmt.Errorf("%w: model set %s already exists", timeprediction.ErrPersistence, name)
	}

	manifest := Manifest{
		Version:     info.Version,
		RunID:       info.RunID,
		TrainedAt:   info.TrainedAt,
		PublishedAt: time.Now().UTC(),
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, m := range set.Models() {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, meta, err := encodeArtifact(m, info)
		if err != nil {
			return fmt.Errorf("%w: %v", timeprediction.ErrPersistence, err)
		}
		if err := wb.Set(tierKey(name, meta.Key), data); err != nil {
			return fmt.Errorf("%w: write tier %s: %v", timeprediction.ErrPersistence, meta.Key, err)
		}
		manifest.Tiers = append(manifest.Tiers, ManifestEntry{
			Key:      meta.Key,
			Checksum: meta.Checksum,
			Samples:  meta.Samples,
		})
	}

	manifestData, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("%w: marshal manifest: %v", timeprediction.ErrPersistence, err)
	}
	if err := wb.Set([]byte(setPrefix(name)+suffixManifest), manifestData); err != nil {
		return fmt.Errorf("%w: write manifest: %v", timeprediction.ErrPersistence, err)
	}
	if report != nil {
		reportData, err := json.Marshal(report)
		if err != nil {
			return fmt.Errorf("%w: marshal report: %v", timeprediction.ErrPersistence, err)
		}
		if err := wb.Set([]byte(setPrefix(name)+suffixReport), reportData); err != nil {
			return fmt.Errorf("%w: write report: %v", timeprediction.ErrPersistence, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("%w: flush model set: %v", timeprediction.ErrPersistence, err)
	}

	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyCurrent), []byte(name))
	}); err != nil {
		return fmt.Errorf("%w: swap pointer: %v", timeprediction.ErrPersistence, err)
	}

	s.logger.Info().
		Str("set", name).
		Int("tiers", len(manifest.Tiers)).
		Msg("Published model set")

	s.prune(name)
	return nil
}

// Load reads the active model set.
func (s *BadgerStore) Load(ctx context.Context) (*timeprediction.ModelSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		manifest  Manifest
		artifacts = make(map[string][]byte)
		noCurrent bool
	)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyCurrent))
		if errors.Is(err, badger.ErrKeyNotFound) {
			noCurrent = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("read pointer: %w", err)
		}
		nameBytes, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("read pointer: %w", err)
		}
		name := string(nameBytes)

		item, err = txn.Get([]byte(setPrefix(name) + suffixManifest))
		if err != nil {
			return fmt.Errorf("read manifest of %s: %w", name, err)
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &manifest)
		}); err != nil {
			return fmt.Errorf("parse manifest of %s: %w", name, err)
		}

		for _, e := range manifest.Tiers {
			item, err := txn.Get(tierKey(name, e.Key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("read tier %s: %w", e.Key, err)
			}
			data, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read tier %s: %w", e.Key, err)
			}
			artifacts[e.Key] = data
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", timeprediction.ErrPersistence, err)
	}
	if noCurrent {
		return nil, fmt.Errorf("%w: no model set published", timeprediction.ErrModelNotTrained)
	}

	read := func(e ManifestEntry) ([]byte, error) {
		data, ok := artifacts[e.Key]
		if !ok {
			return nil, fmt.Errorf("artifact for tier %s: %w", e.Key, fs.ErrNotExist)
		}
		return data, nil
	}
	return assemble(ctx, &manifest, read, s.logger)
}

// LatestVersion returns the highest version present in the store.
func (s *BadgerStore) LatestVersion(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sets, err := s.listSets()
	if err != nil {
		return 0, err
	}
	if len(sets) == 0 {
		return 0, nil
	}
	return sets[0].version, nil
}

// Report returns the training report stored with the active set.
func (s *BadgerStore) Report() (*timeprediction.TrainingReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report *timeprediction.TrainingReport
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyCurrent))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return timeprediction.ErrModelNotTrained
		}
		if err != nil {
			return err
		}
		name, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err = txn.Get([]byte(setPrefix(string(name)) + suffixReport))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			report = &timeprediction.TrainingReport{}
			return json.Unmarshal(val, report)
		})
	})
	if errors.Is(err, timeprediction.ErrModelNotTrained) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read report: %v", timeprediction.ErrPersistence, err)
	}
	return report, nil
}

// listSets returns the published sets, newest first. A set counts as
// published once its manifest is written.
func (s *BadgerStore) listSets() ([]storedSet, error) {
	var sets []storedSet
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keySetPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			if !strings.HasSuffix(key, suffixManifest) {
				continue
			}
			name := strings.TrimSuffix(strings.TrimPrefix(key, keySetPrefix), suffixManifest)
			if strings.Contains(name, ":") {
				continue
			}
			if v, ok := parseSetVersion(name); ok {
				sets = append(sets, storedSet{name: name, version: v})
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list model sets: %v", timeprediction.ErrPersistence, err)
	}
	sortNewestFirst(sets)
	return sets, nil
}

// prune deletes every key of all but the retain newest sets. The active set
// is never removed.
func (s *BadgerStore) prune(current string) {
	sets, err := s.listSets()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to list model sets for pruning")
		return
	}
	for i, st := range sets {
		if i < s.retain || st.name == current {
			continue
		}
		if err := s.deleteSet(st.name); err != nil {
			s.logger.Warn().Err(err).Str("set", st.name).Msg("Failed to prune model set")
			continue
		}
		s.logger.Debug().Str("set", st.name).Msg("Pruned model set")
	}
}

func (s *BadgerStore) deleteSet(name string) error {
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(setPrefix(name) + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return err
		}
	}
	return wb.Flush()
}
