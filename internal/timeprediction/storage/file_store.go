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
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/postwise/internal/timeprediction"
)

const (
	currentFile  = "CURRENT"
	setsDir      = "sets"
	manifestFile = "manifest.json"
	reportFile   = "report.json"
	stagingGlob  = ".staging-*"
)

// FileStore persists model sets as directories on the local filesystem.
type FileStore struct {
	root   string
	retain int
	logger zerolog.Logger

	mu sync.Mutex
}

var _ timeprediction.Store = (*FileStore)(nil)

// NewFileStore creates a store rooted at root, keeping the retain most
// recent model sets. Staging directories left by an interrupted publish are
// removed.
func NewFileStore(root string, retain int, logger zerolog.Logger) (*FileStore, error) {
	if retain < 1 {
		retain = 1
	}
	if err := os.MkdirAll(filepath.Join(root, setsDir), 0o750); err != nil { //nolint:gosec // 0750 is acceptable for model storage
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	s := &FileStore{
		root:   root,
		retain: retain,
		logger: logger.With().Str("component", "model_store").Str("backend", "file").Logger(),
	}

	stale, err := filepath.Glob(filepath.Join(root, stagingGlob))
	if err != nil {
		return nil, fmt.Errorf("scan staging directories: %w", err)
	}
	for _, dir := range stale {
		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warn().Err(err).Str("path", dir).Msg("Failed to remove stale staging directory")
		}
	}
	return s, nil
}

// Root returns the store directory.
func (s *FileStore) Root() string { return s.root }

// artifactFile names the file of a tier. Tier ids are escaped so that any
// channel id maps to a single path element.
func artifactFile(t timeprediction.Tier) string {
	if t.Kind == timeprediction.TierGlobal {
		return "global.gob.gz"
	}
	return string(t.Kind) + "_" + url.PathEscape(t.ID) + ".gob.gz"
}

// Publish writes set to a staging directory, moves it into place and then
// makes it current.
func (s *FileStore) Publish(ctx context.Context, set *timeprediction.ModelSet, report *timeprediction.TrainingReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := set.Info()
	name := setName(info)
	final := filepath.Join(s.root, setsDir, name)
	if _, err := os.Stat(final); err == nil {
		return fmt.Errorf("%w: model set %s already exists", timeprediction.ErrPersistence, name)
	}

	staging, err := os.MkdirTemp(s.root, ".staging-")
	if err != nil {
		return fmt.Errorf("%w: create staging directory: %v", timeprediction.ErrPersistence, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(staging) //nolint:errcheck // best-effort cleanup of a failed publish
		}
	}()

	manifest := Manifest{
		Version:     info.Version,
		RunID:       info.RunID,
		TrainedAt:   info.TrainedAt,
		PublishedAt: time.Now().UTC(),
	}
	for _, m := range set.Models() {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, meta, err := encodeArtifact(m, info)
		if err != nil {
			return fmt.Errorf("%w: %v", timeprediction.ErrPersistence, err)
		}
		file := artifactFile(m.Tier)
		if err := os.WriteFile(filepath.Join(staging, file), data, 0o640); err != nil { //nolint:gosec // model files are not secrets
			return fmt.Errorf("%w: write %s: %v", timeprediction.ErrPersistence, file, err)
		}
		manifest.Tiers = append(manifest.Tiers, ManifestEntry{
			Key:      meta.Key,
			File:     file,
			Checksum: meta.Checksum,
			Samples:  meta.Samples,
		})
	}

	if err := writeJSON(filepath.Join(staging, manifestFile), manifest); err != nil {
		return err
	}
	if report != nil {
		if err := writeJSON(filepath.Join(staging, reportFile), report); err != nil {
			return err
		}
	}

	if err := os.Rename(staging, final); err != nil {
		return fmt.Errorf("%w: move model set into place: %v", timeprediction.ErrPersistence, err)
	}
	committed = true

	if err := s.setCurrent(name); err != nil {
		return err
	}

	s.logger.Info().
		Str("set", name).
		Int("tiers", len(manifest.Tiers)).
		Msg("Published model set")

	s.prune(name)
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal %s: %v", timeprediction.ErrPersistence, filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o640); err != nil { //nolint:gosec // metadata files are not secrets
		return fmt.Errorf("%w: write %s: %v", timeprediction.ErrPersistence, filepath.Base(path), err)
	}
	return nil
}

// setCurrent atomically replaces the CURRENT pointer.
func (s *FileStore) setCurrent(name string) error {
	tmp, err := os.CreateTemp(s.root, ".current-")
	if err != nil {
		return fmt.Errorf("%w: create pointer: %v", timeprediction.ErrPersistence, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(name + "\n"); err != nil {
		_ = tmp.Close()        //nolint:errcheck // already failing
		_ = os.Remove(tmpName) //nolint:errcheck // already failing
		return fmt.Errorf("%w: write pointer: %v", timeprediction.ErrPersistence, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()        //nolint:errcheck // already failing
		_ = os.Remove(tmpName) //nolint:errcheck // already failing
		return fmt.Errorf("%w: sync pointer: %v", timeprediction.ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // already failing
		return fmt.Errorf("%w: close pointer: %v", timeprediction.ErrPersistence, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.root, currentFile)); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // already failing
		return fmt.Errorf("%w: swap pointer: %v", timeprediction.ErrPersistence, err)
	}
	return nil
}

// current returns the name of the active set, or "" when none was published.
func (s *FileStore) current() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.root, currentFile))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: read pointer: %v", timeprediction.ErrPersistence, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Load reads the active model set.
func (s *FileStore) Load(ctx context.Context) (*timeprediction.ModelSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, err := s.current()
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: no model set published in %s", timeprediction.ErrModelNotTrained, s.root)
	}
	return s.loadSet(ctx, name)
}

func (s *FileStore) loadSet(ctx context.Context, name string) (*timeprediction.ModelSet, error) {
	dir := filepath.Join(s.root, setsDir, name)

	data, err := os.ReadFile(filepath.Join(dir, manifestFile)) //nolint:gosec // path is built from the store's own pointer
	if err != nil {
		return nil, fmt.Errorf("%w: read manifest of %s: %v", timeprediction.ErrPersistence, name, err)
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("%w: parse manifest of %s: %v", timeprediction.ErrPersistence, name, err)
	}

	read := func(e ManifestEntry) ([]byte, error) {
		if e.File == "" || filepath.Base(e.File) != e.File {
			return nil, fmt.Errorf("invalid artifact file %q", e.File)
		}
		return os.ReadFile(filepath.Join(dir, e.File)) //nolint:gosec // file name validated above
	}
	return assemble(ctx, &manifest, read, s.logger)
}

// assemble decodes the artifacts listed in manifest. A missing global tier
// reports ErrModelNotTrained and an unreadable one ErrPersistence;
// specialists that fail are skipped.
func assemble(ctx context.Context, manifest *Manifest, read func(ManifestEntry) ([]byte, error),
	logger zerolog.Logger) (*timeprediction.ModelSet, error) {
	models := make([]*timeprediction.TrainedModel, 0, len(manifest.Tiers))
	for _, e := range manifest.Tiers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		global := e.Key == string(timeprediction.TierGlobal)

		m, err := loadArtifact(e, read)
		if err != nil {
			if global && errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: global tier of v%d is missing", timeprediction.ErrModelNotTrained, manifest.Version)
			}
			if global {
				return nil, fmt.Errorf("%w: global tier of v%d: %v", timeprediction.ErrPersistence, manifest.Version, err)
			}
			logger.Warn().Err(err).Str("tier", e.Key).Int("version", manifest.Version).Msg("Skipping unreadable tier")
			continue
		}
		models = append(models, m)
	}

	set, err := timeprediction.NewModelSet(manifest.info(), models)
	if errors.Is(err, timeprediction.ErrModelNotTrained) {
		return nil, fmt.Errorf("model set v%d: %w", manifest.Version, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", timeprediction.ErrPersistence, err)
	}
	return set, nil
}

func loadArtifact(e ManifestEntry, read func(ManifestEntry) ([]byte, error)) (*timeprediction.TrainedModel, error) {
	data, err := read(e)
	if err != nil {
		return nil, err
	}
	m, meta, err := decodeArtifact(data)
	if err != nil {
		return nil, err
	}
	if meta.Key != e.Key {
		return nil, fmt.Errorf("artifact holds tier %s, manifest expects %s", meta.Key, e.Key)
	}
	if e.Checksum != "" && meta.Checksum != e.Checksum {
		return nil, fmt.Errorf("%w: manifest and artifact disagree", ErrChecksumMismatch)
	}
	return m, nil
}

// LatestVersion returns the highest version present in the store.
func (s *FileStore) LatestVersion(_ context.Context) (int, error) {
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

// Versions returns the stored versions, newest first.
func (s *FileStore) Versions() ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sets, err := s.listSets()
	if err != nil {
		return nil, err
	}
	out := make([]int, len(sets))
	for i, st := range sets {
		out[i] = st.version
	}
	return out, nil
}

// Report returns the training report stored with the active set.
func (s *FileStore) Report() (*timeprediction.TrainingReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, err := s.current()
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, timeprediction.ErrModelNotTrained
	}
	data, err := os.ReadFile(filepath.Join(s.root, setsDir, name, reportFile)) //nolint:gosec // path is built from the store's own pointer
	if err != nil {
		return nil, fmt.Errorf("%w: read report: %v", timeprediction.ErrPersistence, err)
	}
	var report timeprediction.TrainingReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("%w: parse report: %v", timeprediction.ErrPersistence, err)
	}
	return &report, nil
}

type storedSet struct {
	name    string
	version int
}

// listSets returns the published sets, newest first.
func (s *FileStore) listSets() ([]storedSet, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, setsDir))
	if err != nil {
		return nil, fmt.Errorf("%w: read sets directory: %v", timeprediction.ErrPersistence, err)
	}
	var sets []storedSet
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if v, ok := parseSetVersion(entry.Name()); ok {
			sets = append(sets, storedSet{name: entry.Name(), version: v})
		}
	}
	sortNewestFirst(sets)
	return sets, nil
}

func sortNewestFirst(sets []storedSet) {
	sort.Slice(sets, func(i, j int) bool {
		if sets[i].version != sets[j].version {
			return sets[i].version > sets[j].version
		}
		return sets[i].name > sets[j].name
	})
}

// prune removes all but the retain newest sets. The active set is never
// removed.
func (s *FileStore) prune(current string) {
	sets, err := s.listSets()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to list model sets for pruning")
		return
	}
	for i, st := range sets {
		if i < s.retain || st.name == current {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.root, setsDir, st.name)); err != nil {
			s.logger.Warn().Err(err).Str("set", st.name).Msg("Failed to prune model set")
			continue
		}
		s.logger.Debug().Str("set", st.name).Msg("Pruned model set")
	}
}
