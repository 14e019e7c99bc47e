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
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/postwise/internal/dataset"
	"github.com/tomtom215/postwise/internal/features"
	"github.com/tomtom215/postwise/internal/gbm"
	"github.com/tomtom215/postwise/internal/labeling"
	"github.com/tomtom215/postwise/internal/metrics"
)

// minHoldoutRows is the smallest data set for which a holdout split is made.
const minHoldoutRows = 10

// ProgressFunc is called after each tier finishes, successfully or not.
type ProgressFunc func(tier string, done, total int)

// Trainer fits the model hierarchy for one run at a time.
// Running tiers can be cancelled individually by key.
type Trainer struct {
	config *Config
	logger zerolog.Logger

	mu       sync.Mutex
	running  map[string]context.CancelFunc
	progress ProgressFunc

	// onTierStart is invoked once a tier is registered and before it fits.
	onTierStart func(key string)
}

// TrainingOutcome is the product of a successful run.
type TrainingOutcome struct {
	// Models holds the global tier first, then every specialist that trained.
	Models []*TrainedModel

	Report *TrainingReport

	// Rows and Targets are the engineered training data, kept for
	// post-training diagnostics.
	Rows    []features.Row
	Targets []float64
}

// NewTrainer creates a trainer.
func NewTrainer(cfg *Config, logger zerolog.Logger) *Trainer {
	return &Trainer{
		config:  cfg,
		logger:  logger.With().Str("component", "trainer").Logger(),
		running: make(map[string]context.CancelFunc),
	}
}

// SetProgress registers a progress callback.
func (t *Trainer) SetProgress(fn ProgressFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress = fn
}

// Cancel stops the tier with key if it is currently training.
// It reports whether a running tier was found.
func (t *Trainer) Cancel(key string) bool {
	t.mu.Lock()
	cancel, ok := t.running[key]
	t.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Running returns the keys of the tiers currently training, sorted.
func (t *Trainer) Running() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	keys := make([]string, 0, len(t.running))
	for k := range t.running {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (t *Trainer) track(ctx context.Context, key string) (context.Context, func()) {
	tctx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	t.running[key] = cancel
	hook := t.onTierStart
	t.mu.Unlock()

	if hook != nil {
		hook(key)
	}

	return tctx, func() {
		t.mu.Lock()
		delete(t.running, key)
		t.mu.Unlock()
		cancel()
	}
}

func (t *Trainer) reportProgress(key string, done, total int) {
	t.mu.Lock()
	fn := t.progress
	t.mu.Unlock()
	if fn != nil {
		fn(key, done, total)
	}
}

// tierJob is a specialist tier waiting to be trained.
type tierJob struct {
	tier Tier
	rows []int
}

// Fit engineers features, labels the rows and trains every tier.
//
// Only a failure of the global tier fails the run. Specialist tiers below
// MinSamples are skipped, and specialists that fail or are cancelled are
// left out of the outcome. If ctx ends while specialists are training, the
// tiers finished so far are returned and the report is marked partial.
func (t *Trainer) Fit(ctx context.Context, records []dataset.Record, runID string) (*TrainingOutcome, error) {
	logger := t.logger.With().Str("run_id", runID).Logger()
	report := &TrainingReport{
		RunID:     runID,
		StartedAt: time.Now().UTC(),
		Records:   len(records),
	}

	rows, dropped := features.Engineer(records)
	metrics.RecordRowsDropped(dropped)
	report.Rows = len(rows)
	report.DroppedRows = dropped
	if dropped > 0 {
		logger.Warn().Int("dropped", dropped).Msg("Dropped rows with unparseable timestamps")
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows with a valid timestamp among %d records", ErrDataUnavailable, len(records))
	}

	labels := labeling.Label(rows)
	report.Labels = labels.ByChannel
	for ch, h := range labels.ByChannel {
		logger.Debug().Str("channel", ch).Int("optimal_hour", h).Msg("Labeled channel")
	}

	schema := features.BuildSchema(rows)
	X := features.Matrix(schema, rows)
	y := labels.Targets()

	jobs, skipped := t.planSpecialists(rows, logger)
	total := 1 + len(jobs)

	global, globalReport, err := t.fitTier(ctx, GlobalTier(), schema, X, y, nil, t.config.globalParams())
	report.Tiers = append(report.Tiers, globalReport)
	t.reportProgress(GlobalTier().Key(), 1, total)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("global tier cancelled: %w", err)
		}
		return nil, fmt.Errorf("%w: global tier: %v", ErrDataUnavailable, err)
	}
	logger.Info().
		Int("samples", global.Samples).
		Float64("train_mse", global.TrainMSE).
		Int("columns", schema.Len()).
		Msg("Trained global tier")

	t.evaluateHoldout(ctx, X, y, report, logger)

	specialists, specialistReports := t.fitSpecialists(ctx, jobs, schema, X, y, total, logger)

	report.Tiers = append(report.Tiers, specialistReports...)
	report.Tiers = append(report.Tiers, skipped...)
	rest := report.Tiers[1:]
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].Key < rest[j].Key })

	if ctx.Err() != nil {
		report.Partial = true
		logger.Warn().Err(ctx.Err()).Int("trained", len(specialists)).Msg("Training interrupted, keeping completed tiers")
	}
	report.FinishedAt = time.Now().UTC()

	models := append([]*TrainedModel{global}, specialists...)
	return &TrainingOutcome{
		Models:  models,
		Report:  report,
		Rows:    rows,
		Targets: y,
	}, nil
}

// planSpecialists lists the channel and content tiers that meet the sample
// threshold and reports the ones that do not.
func (t *Trainer) planSpecialists(rows []features.Row, logger zerolog.Logger) ([]tierJob, []TierReport) {
	byChannel := make(map[string][]int)
	byContent := make(map[dataset.ContentType][]int)
	for i := range rows {
		rec := &rows[i].Record
		byChannel[rec.Channel] = append(byChannel[rec.Channel], i)
		if rec.ContentType.Valid() {
			byContent[rec.ContentType] = append(byContent[rec.ContentType], i)
		}
	}

	channels := make([]string, 0, len(byChannel))
	for ch := range byChannel {
		channels = append(channels, ch)
	}
	sort.Strings(channels)

	var (
		jobs    []tierJob
		skipped []TierReport
	)
	consider := func(tier Tier, idx []int) {
		if len(idx) >= t.config.Training.MinSamples {
			jobs = append(jobs, tierJob{tier: tier, rows: idx})
			return
		}
		reason := fmt.Errorf("%w: %d < %d", ErrInsufficientSamples, len(idx), t.config.Training.MinSamples)
		logger.Info().Err(reason).Str("tier", tier.Key()).Msg("Skipping tier")
		skipped = append(skipped, TierReport{
			Key:     tier.Key(),
			Kind:    string(tier.Kind),
			Samples: len(idx),
			Reason:  reason.Error(),
		})
	}

	for _, ch := range channels {
		consider(ChannelTier(ch), byChannel[ch])
	}
	for _, ct := range dataset.ContentTypes {
		if idx, ok := byContent[ct]; ok {
			consider(ContentTier(ct), idx)
		}
	}
	return jobs, skipped
}

// fitSpecialists trains jobs concurrently with at most Workers in flight.
// The feature matrix is shared read-only between workers.
func (t *Trainer) fitSpecialists(ctx context.Context, jobs []tierJob, schema *features.Schema,
	X [][]float64, y []float64, total int, logger zerolog.Logger) ([]*TrainedModel, []TierReport) {
	models := make([]*TrainedModel, len(jobs))
	reports := make([]TierReport, len(jobs))
	params := t.config.specialistParams()

	var (
		g    errgroup.Group
		mu   sync.Mutex
		done = 1
	)
	g.SetLimit(t.config.Training.Workers)

	for i, job := range jobs {
		g.Go(func() error {
			m, rep, err := t.fitTier(ctx, job.tier, schema, X, y, job.rows, params)
			reports[i] = rep
			if err != nil {
				logger.Warn().Err(err).Str("tier", job.tier.Key()).Msg("Tier training failed, tier will be absent")
			} else {
				models[i] = m
				logger.Info().
					Str("tier", job.tier.Key()).
					Int("samples", m.Samples).
					Float64("train_mse", m.TrainMSE).
					Msg("Trained specialist tier")
			}

			mu.Lock()
			done++
			n := done
			mu.Unlock()
			t.reportProgress(job.tier.Key(), n, total)

			// Tier failures never abort the group.
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*TrainedModel, 0, len(models))
	for _, m := range models {
		if m != nil {
			out = append(out, m)
		}
	}
	return out, reports
}

// fitTier trains one tier on the given rows (all rows when idx is nil).
func (t *Trainer) fitTier(ctx context.Context, tier Tier, schema *features.Schema,
	X [][]float64, y []float64, idx []int, params gbm.Params) (*TrainedModel, TierReport, error) {
	start := time.Now()
	key := tier.Key()
	rep := TierReport{Key: key, Kind: string(tier.Kind)}

	Xs, ys := X, y
	if idx != nil {
		Xs = make([][]float64, len(idx))
		ys = make([]float64, len(idx))
		for j, i := range idx {
			Xs[j] = X[i]
			ys[j] = y[i]
		}
	}
	rep.Samples = len(Xs)

	tctx, release := t.track(ctx, key)
	defer release()

	model, err := gbm.Fit(tctx, Xs, ys, params)
	rep.DurationMS = time.Since(start).Milliseconds()
	if err != nil {
		if tctx.Err() != nil {
			rep.Reason = "cancelled: " + err.Error()
		} else {
			rep.Reason = err.Error()
		}
		return nil, rep, fmt.Errorf("tier %s: %w", key, err)
	}

	mse, err := gbm.MSE(model, Xs, ys)
	if err != nil {
		rep.Reason = err.Error()
		return nil, rep, fmt.Errorf("tier %s: %w", key, err)
	}
	rep.Trained = true
	rep.TrainMSE = mse

	return &TrainedModel{
		Tier:      tier,
		Schema:    schema,
		Model:     model,
		Samples:   len(Xs),
		TrainMSE:  mse,
		TrainedAt: time.Now().UTC(),
	}, rep, nil
}

// evaluateHoldout fits a throwaway global model on a seeded random split and
// records its test error. The published global model always uses all rows.
func (t *Trainer) evaluateHoldout(ctx context.Context, X [][]float64, y []float64,
	report *TrainingReport, logger zerolog.Logger) {
	frac := t.config.Training.EvalFraction
	n := len(X)
	if frac <= 0 || n < minHoldoutRows {
		return
	}
	nTest := int(math.Round(float64(n) * frac))
	if nTest < 1 || nTest >= n {
		return
	}

	rng := rand.New(rand.NewSource(t.config.Seed)) //nolint:gosec // reproducible split, not security
	perm := rng.Perm(n)
	test, train := perm[:nTest], perm[nTest:]
	sort.Ints(test)
	sort.Ints(train)

	pick := func(idx []int) ([][]float64, []float64) {
		xs := make([][]float64, len(idx))
		ys := make([]float64, len(idx))
		for j, i := range idx {
			xs[j] = X[i]
			ys[j] = y[i]
		}
		return xs, ys
	}
	Xtr, ytr := pick(train)
	Xte, yte := pick(test)

	model, err := gbm.Fit(ctx, Xtr, ytr, t.config.globalParams())
	if err != nil {
		logger.Warn().Err(err).Msg("Holdout evaluation failed")
		return
	}
	mse, err := gbm.MSE(model, Xte, yte)
	if err != nil {
		logger.Warn().Err(err).Msg("Holdout evaluation failed")
		return
	}
	report.HoldoutRows = nTest
	report.HoldoutMSE = mse
	logger.Info().Int("test_rows", nTest).Float64("test_mse", mse).Msg("Evaluated global tier on holdout split")
}
