// Postwise - Optimal Posting Time Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/postwise

package timeprediction

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/postwise/internal/dataset"
	"github.com/tomtom215/postwise/internal/features"
	"github.com/tomtom215/postwise/internal/metrics"
)

// Training stages reported in TrainingStatus.Stage.
const (
	StageConsolidating = "consolidating"
	StageTraining      = "training"
	StagePublishing    = "publishing"
)

// Store persists model sets.
// Implementations live in the storage subpackage.
type Store interface {
	// Publish atomically makes set the current model set.
	Publish(ctx context.Context, set *ModelSet, report *TrainingReport) error

	// Load returns the current model set. It fails with ErrModelNotTrained
	// when none exists and with ErrPersistence when it cannot be read.
	Load(ctx context.Context) (*ModelSet, error)

	// LatestVersion returns the highest version ever published, or 0.
	LatestVersion(ctx context.Context) (int, error)
}

// Engine trains the model hierarchy and serves predictions from the active
// model set. It is safe for concurrent use.
type Engine struct {
	config  *Config
	logger  zerolog.Logger
	trainer *Trainer

	// Dependencies
	depsMu   sync.RWMutex
	provider dataset.Provider
	store    Store

	// Active model set, replaced as a whole
	current atomic.Pointer[ModelSet]

	// Training state
	trainMu    sync.Mutex
	statusMu   sync.RWMutex
	status     TrainingStatus
	lastReport *TrainingReport
}

// NewEngine creates an engine. A nil config uses DefaultConfig.
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg = cfg.Clone()

	logger = logger.With().Str("component", "timeprediction").Logger()
	e := &Engine{
		config:  cfg,
		logger:  logger,
		trainer: NewTrainer(cfg, logger),
	}
	e.trainer.SetProgress(e.updateProgress)
	return e, nil
}

// SetSourceProvider sets where training data comes from.
func (e *Engine) SetSourceProvider(p dataset.Provider) {
	e.depsMu.Lock()
	defer e.depsMu.Unlock()
	e.provider = p
}

// SetStore sets where model sets are persisted.
func (e *Engine) SetStore(s Store) {
	e.depsMu.Lock()
	defer e.depsMu.Unlock()
	e.store = s
}

func (e *Engine) deps() (dataset.Provider, Store) {
	e.depsMu.RLock()
	defer e.depsMu.RUnlock()
	return e.provider, e.store
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// ModelSet returns the active model set, or nil.
func (e *Engine) ModelSet() *ModelSet {
	return e.current.Load()
}

// Train runs the full training pipeline and, on success, publishes and
// activates the new model set. A failed run leaves the active set untouched.
func (e *Engine) Train(ctx context.Context) error {
	if !e.trainMu.TryLock() {
		metrics.RecordTrainingRun("busy", 0)
		return ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	provider, store := e.deps()
	if provider == nil {
		return fmt.Errorf("source provider not set")
	}

	start := time.Now()
	runID := uuid.NewString()
	logger := e.logger.With().Str("run_id", runID).Logger()
	e.beginTraining(runID)
	logger.Info().Msg("Starting model training")

	trainCtx, cancel := context.WithTimeout(ctx, e.config.Training.Timeout)
	defer cancel()

	report, err := e.runTraining(trainCtx, runID, provider, store, logger)
	e.finishTraining(report, err, start)

	switch {
	case err != nil:
		metrics.RecordTrainingRun("failed", time.Since(start))
		logger.Error().Err(err).Msg("Model training failed")
		return err
	case report.Partial:
		metrics.RecordTrainingRun("partial", time.Since(start))
	default:
		metrics.RecordTrainingRun("success", time.Since(start))
	}

	logger.Info().
		Int("version", report.Version).
		Int("rows", report.Rows).
		Int("tiers", countTrained(report)).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("Model training complete")
	return nil
}

func (e *Engine) runTraining(ctx context.Context, runID string, provider dataset.Provider,
	store Store, logger zerolog.Logger) (*TrainingReport, error) {
	e.setStage(StageConsolidating)
	sources, err := provider.Sources(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("list sources: %w", err)
		}
		return nil, fmt.Errorf("%w: list sources: %v", ErrDataUnavailable, err)
	}

	consolidated, err := dataset.Consolidate(ctx, sources, logger)
	if err != nil {
		return nil, err
	}

	e.setStage(StageTraining)
	outcome, err := e.trainer.Fit(ctx, consolidated.Records, runID)
	if err != nil {
		return nil, err
	}
	report := outcome.Report
	report.Sources = consolidated.Loaded
	for _, s := range consolidated.Skipped {
		report.SkippedSources = append(report.SkippedSources, s.Channel)
	}

	// Publishing must complete even if the run deadline expired while the
	// last specialists were training.
	publishCtx := context.WithoutCancel(ctx)

	version, err := e.nextVersion(publishCtx, store)
	if err != nil {
		return nil, err
	}
	report.Version = version

	set, err := NewModelSet(SetInfo{Version: version, RunID: runID, TrainedAt: report.FinishedAt}, outcome.Models)
	if err != nil {
		return nil, err
	}

	if cal, err := CalibrateWeights(ctx, set, outcome.Rows, outcome.Targets); err != nil {
		logger.Debug().Err(err).Msg("Skipping weight calibration report")
	} else {
		report.Calibration = cal
		logger.Info().
			Int("rows", cal.Rows).
			Float64("r2", cal.R2).
			Interface("suggested_weights", cal.SuggestedWeights).
			Msg("Weight calibration report")
	}

	if store != nil {
		e.setStage(StagePublishing)
		if err := store.Publish(publishCtx, set, report); err != nil {
			if !errors.Is(err, ErrPersistence) {
				err = fmt.Errorf("%w: %v", ErrPersistence, err)
			}
			return nil, fmt.Errorf("publish model set v%d: %w", version, err)
		}
	}

	e.activate(set)
	return report, nil
}

// nextVersion returns one more than the highest version known to the engine
// or the store.
func (e *Engine) nextVersion(ctx context.Context, store Store) (int, error) {
	latest := 0
	if set := e.current.Load(); set != nil {
		latest = set.Version()
	}
	if store != nil {
		v, err := store.LatestVersion(ctx)
		if err != nil {
			return 0, fmt.Errorf("%w: read latest version: %v", ErrPersistence, err)
		}
		if v > latest {
			latest = v
		}
	}
	return latest + 1, nil
}

// Load activates the current model set from the store.
func (e *Engine) Load(ctx context.Context) error {
	_, store := e.deps()
	if store == nil {
		return fmt.Errorf("model store not set")
	}

	set, err := store.Load(ctx)
	if err != nil {
		return err
	}
	e.activate(set)

	e.logger.Info().
		Int("version", set.Version()).
		Int("channel_models", set.ChannelCount()).
		Int("content_models", set.ContentCount()).
		Msg("Loaded model set")
	return nil
}

func (e *Engine) activate(set *ModelSet) {
	e.current.Store(set)
	metrics.RecordModelSet(set.Version(), set.ChannelCount(), set.ContentCount())
}

// CancelTier cancels a tier that is currently training, by key
// ("global", "channel:<id>" or "content:<type>"). Cancelling the global tier
// fails the run; cancelling a specialist only leaves it out of the set.
func (e *Engine) CancelTier(key string) bool {
	ok := e.trainer.Cancel(key)
	if ok {
		e.logger.Warn().Str("tier", key).Msg("Cancelled tier training")
	}
	return ok
}

// Predict returns the optimal posting hour for a channel and content type.
// extras supplies optional feature values by column name. It never fails:
// problems are reported through the result's Status.
func (e *Engine) Predict(channel, contentType string, extras map[string]float64) PredictionResult {
	set := e.current.Load()
	if set == nil {
		return e.record(e.fallbackResult(channel, contentType))
	}

	ct, ok := dataset.ParseContentType(contentType)
	if !ok {
		return e.record(e.errorResult(channel, contentType, fmt.Sprintf("invalid content type %q", contentType)))
	}

	in := features.Input{Channel: channel, ContentType: ct, Signals: extras}

	tiers := []*TrainedModel{set.Global()}
	if m, ok := set.Channel(channel); ok {
		tiers = append(tiers, m)
	}
	if m, ok := set.Content(ct); ok {
		tiers = append(tiers, m)
	}

	answers := make([]tierHour, 0, len(tiers))
	predictions := make(map[string]int, len(tiers))
	for _, m := range tiers {
		raw, err := m.Predict(in)
		if err == nil && (math.IsNaN(raw) || math.IsInf(raw, 0)) {
			err = fmt.Errorf("non-finite prediction %v", raw)
		}
		if err != nil {
			e.logger.Warn().Err(err).Str("tier", m.Tier.Key()).Msg("Tier could not serve prediction")
			continue
		}
		h := ClipHour(raw)
		answers = append(answers, tierHour{kind: m.Tier.Kind, hour: h})
		predictions[m.Tier.Kind.predictionKey()] = h
	}

	if len(answers) == 0 {
		return e.record(e.errorResult(channel, contentType, "no model tier could serve the request"))
	}

	hour, confidence := combine(answers, e.config.Weights, e.config.Confidence)
	return e.record(PredictionResult{
		OptimalHour:  hour,
		Predictions:  predictions,
		Confidence:   confidence,
		Status:       StatusSuccess,
		Channel:      channel,
		ContentType:  string(ct),
		ModelVersion: set.Version(),
	})
}

// PredictHours runs Predict once per hour with the hour supplied as a
// signal. An empty hours slice scans DefaultScanHours.
func (e *Engine) PredictHours(channel, contentType string, hours []int, extras map[string]float64) []HourPrediction {
	if len(hours) == 0 {
		hours = DefaultScanHours
	}
	out := make([]HourPrediction, 0, len(hours))
	for _, h := range hours {
		signals := make(map[string]float64, len(extras)+1)
		for k, v := range extras {
			signals[k] = v
		}
		signals[features.ColHour] = float64(h)

		res := e.Predict(channel, contentType, signals)
		out = append(out, HourPrediction{
			Hour:        h,
			OptimalHour: res.OptimalHour,
			Confidence:  res.Confidence,
			Status:      res.Status,
		})
	}
	return out
}

func (e *Engine) fallbackResult(channel, contentType string) PredictionResult {
	return PredictionResult{
		OptimalHour: e.config.Fallback.Hour,
		Predictions: map[string]int{},
		Confidence:  e.config.Fallback.Confidence,
		Status:      StatusFallback,
		Channel:     channel,
		ContentType: contentType,
	}
}

func (e *Engine) errorResult(channel, contentType, msg string) PredictionResult {
	res := e.fallbackResult(channel, contentType)
	res.Status = StatusError
	res.Error = msg
	return res
}

func (e *Engine) record(res PredictionResult) PredictionResult {
	metrics.RecordPrediction(string(res.Status), res.Confidence)
	return res
}

// Status reports the active model set and training progress.
func (e *Engine) Status() ModelStatus {
	e.statusMu.RLock()
	training := e.status
	e.statusMu.RUnlock()

	st := ModelStatus{Training: training}
	set := e.current.Load()
	if set == nil {
		return st
	}

	info := set.Info()
	st.ModelsAvailable = true
	st.GlobalModel = set.Global() != nil
	st.ChannelModels = set.ChannelCount()
	st.ContentModels = set.ContentCount()
	st.Channels = set.ChannelIDs()
	st.Version = info.Version
	st.RunID = info.RunID
	if !info.TrainedAt.IsZero() {
		t := info.TrainedAt
		st.TrainedAt = &t
	}
	return st
}

// LastReport returns the report of the last successful training run, or nil.
func (e *Engine) LastReport() *TrainingReport {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.lastReport
}

func (e *Engine) beginTraining(runID string) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.status.IsTraining = true
	e.status.RunID = runID
	e.status.Stage = ""
	e.status.Progress = 0
	e.status.LastError = ""
}

func (e *Engine) setStage(stage string) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.status.Stage = stage
}

func (e *Engine) updateProgress(_ string, done, total int) {
	if total <= 0 {
		return
	}
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.status.Progress = float64(done) / float64(total) * 100
}

func (e *Engine) finishTraining(report *TrainingReport, err error, start time.Time) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.status.IsTraining = false
	e.status.Stage = ""
	e.status.LastDurationMS = time.Since(start).Milliseconds()
	if err != nil {
		e.status.LastError = err.Error()
		return
	}
	e.status.Progress = 100
	e.status.LastTrainedAt = time.Now().UTC()
	e.lastReport = report
}

func countTrained(r *TrainingReport) int {
	n := 0
	for _, t := range r.Tiers {
		if t.Trained {
			n++
		}
	}
	return n
}
