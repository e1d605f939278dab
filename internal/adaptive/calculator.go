package adaptive

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jdvot/paris-sportif/internal/models"
)

// Metric selects which performance measure drives the re-weighting
type Metric string

const (
	MetricAccuracy Metric = "accuracy"
	MetricBrier    Metric = "brier"
	MetricLogLoss  Metric = "log_loss"
)

// IsValid checks the metric name
func (m Metric) IsValid() bool {
	switch m {
	case MetricAccuracy, MetricBrier, MetricLogLoss:
		return true
	}
	return false
}

// Weights is a computed weight table: model name to weight, summing to 1
type Weights struct {
	Weights      map[string]float64      `json:"weights"`
	Metric       Metric                  `json:"metric"`
	CalculatedAt time.Time               `json:"calculated_at"`
	Window       time.Duration           `json:"window"`
	ModelMetrics map[string]ModelMetrics `json:"model_metrics"`
	// Fallback is set when no model had sufficient data and the default
	// table was used
	Fallback bool `json:"fallback"`
}

// For returns the weight for a model, or 0 when unknown
func (w *Weights) For(model string) float64 {
	if w == nil {
		return 0
	}
	return w.Weights[model]
}

// Params holds the tunable constants of the calculator
type Params struct {
	// RollingWindow bounds how far back performance is measured
	RollingWindow time.Duration
	// MinSamples is the minimum resolved predictions a model needs inside
	// the window to participate
	MinSamples int
	// Temperature scales the softmax; lower values separate weights more
	// aggressively. Clamped to [0.1, 2.0].
	Temperature float64
	// FloorWeight is the guaranteed minimum weight per participating model
	FloorWeight float64
	// CacheTTL is the validity window of a computed weight table
	CacheTTL time.Duration
	// DefaultWeights is the fallback table when no model qualifies
	DefaultWeights map[string]float64
}

// DefaultParams returns the calculator defaults
func DefaultParams() Params {
	return Params{
		RollingWindow: 90 * 24 * time.Hour,
		MinSamples:    10,
		Temperature:   0.5,
		FloorWeight:   0.05,
		CacheTTL:      time.Hour,
		DefaultWeights: map[string]float64{
			"poisson":      0.25,
			"dixon_coles":  0.25,
			"elo":          0.15,
			"elo_advanced": 0.15,
			"classifier":   0.20,
		},
	}
}

// Calculator owns the prediction record log and recomputes model weights
// over a rolling performance window. The cached weight table is the only
// shared mutable state; it is invalidated atomically whenever a record is
// appended or resolved.
type Calculator struct {
	store  RecordStore
	cache  *weightsCache
	params Params
	logger *logrus.Entry
}

// NewCalculator creates a calculator over the given record store
func NewCalculator(store RecordStore, params Params, logger *logrus.Logger) (*Calculator, error) {
	if store == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if params.MinSamples <= 0 {
		params.MinSamples = DefaultParams().MinSamples
	}
	if params.RollingWindow <= 0 {
		params.RollingWindow = DefaultParams().RollingWindow
	}
	if params.FloorWeight < 0 || params.FloorWeight > 0.2 {
		params.FloorWeight = DefaultParams().FloorWeight
	}
	params.Temperature = clampTemperature(params.Temperature)
	if len(params.DefaultWeights) == 0 {
		params.DefaultWeights = DefaultParams().DefaultWeights
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.PanicLevel)
	}
	return &Calculator{
		store:  store,
		cache:  newWeightsCache(params.CacheTTL),
		params: params,
		logger: logger.WithField("component", "adaptive"),
	}, nil
}

// Append adds a new prediction record and invalidates the weight cache
func (c *Calculator) Append(ctx context.Context, record *models.PredictionRecord) error {
	if err := c.store.Append(ctx, record); err != nil {
		return fmt.Errorf("failed to append prediction record: %w", err)
	}
	c.cache.Invalidate()
	return nil
}

// RecordOutcome resolves every pending record for a match and invalidates
// the weight cache
func (c *Calculator) RecordOutcome(ctx context.Context, matchID uuid.UUID, actual models.Outcome) (int, error) {
	resolved, err := c.store.ResolveMatch(ctx, matchID, actual)
	if err != nil {
		return resolved, fmt.Errorf("failed to resolve match records: %w", err)
	}
	if resolved > 0 {
		c.cache.Invalidate()
	}
	c.logger.WithFields(logrus.Fields{
		"match_id": matchID,
		"actual":   actual,
		"resolved": resolved,
	}).Info("Match outcome recorded")
	return resolved, nil
}

// Trim applies the retention policy, dropping records older than the
// retention horizon
func (c *Calculator) Trim(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-retention)
	dropped, err := c.store.TrimBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to trim prediction records: %w", err)
	}
	if dropped > 0 {
		c.cache.Invalidate()
	}
	return dropped, nil
}

// Weights returns the current weight table for the metric, recomputing it
// when the cache is cold
func (c *Calculator) Weights(ctx context.Context, metric Metric) (*Weights, error) {
	if !metric.IsValid() {
		metric = MetricAccuracy
	}
	if cached := c.cache.Get(metric); cached != nil {
		return cached, nil
	}
	return c.Recompute(ctx, metric)
}

// Recompute recalculates weights from the rolling window, bypassing the
// cache, and stores the fresh table
func (c *Calculator) Recompute(ctx context.Context, metric Metric) (*Weights, error) {
	if !metric.IsValid() {
		metric = MetricAccuracy
	}
	records, err := c.store.RecentResolved(ctx, c.params.RollingWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent records: %w", err)
	}

	modelMetrics := computeModelMetrics(records)
	qualified := make([]ModelMetrics, 0, len(modelMetrics))
	for _, m := range modelMetrics {
		if m.SampleCount >= c.params.MinSamples {
			qualified = append(qualified, m)
		}
	}
	sort.Slice(qualified, func(i, j int) bool { return qualified[i].Model < qualified[j].Model })

	result := &Weights{
		Metric:       metric,
		CalculatedAt: time.Now().UTC(),
		Window:       c.params.RollingWindow,
		ModelMetrics: modelMetrics,
	}

	if len(qualified) == 0 {
		result.Weights = copyWeightTable(c.params.DefaultWeights)
		result.Fallback = true
		c.logger.WithField("metric", metric).Warn("No model has sufficient samples; using default weights")
	} else {
		result.Weights = c.softmaxWithFloor(qualified, metric)
	}

	c.cache.Set(metric, result)
	c.logger.WithFields(logrus.Fields{
		"metric":    metric,
		"models":    len(result.Weights),
		"fallback":  result.Fallback,
		"window":    c.params.RollingWindow,
	}).Info("Adaptive weights recomputed")
	return result, nil
}

// InvalidateCache drops any cached weight tables
func (c *Calculator) InvalidateCache() {
	c.cache.Invalidate()
}

// softmaxWithFloor converts per-model scores into weights via
// temperature-scaled softmax, then guarantees the floor by allocating
// floor + (1 - n*floor) * softmax_i, which both respects the floor and
// sums to 1
func (c *Calculator) softmaxWithFloor(qualified []ModelMetrics, metric Metric) map[string]float64 {
	n := float64(len(qualified))
	floor := c.params.FloorWeight
	if floor*n >= 1 {
		floor = 0
	}

	maxScore := math.Inf(-1)
	for _, m := range qualified {
		if s := m.score(metric); s > maxScore {
			maxScore = s
		}
	}

	exps := make([]float64, len(qualified))
	total := 0.0
	for i, m := range qualified {
		exps[i] = math.Exp((m.score(metric) - maxScore) / c.params.Temperature)
		total += exps[i]
	}

	weights := make(map[string]float64, len(qualified))
	for i, m := range qualified {
		softmax := exps[i] / total
		weights[m.Model] = floor + (1-n*floor)*softmax
	}
	return weights
}

func clampTemperature(t float64) float64 {
	if t <= 0 {
		return 0.5
	}
	if t < 0.1 {
		return 0.1
	}
	if t > 2.0 {
		return 2.0
	}
	return t
}

func copyWeightTable(src map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(src))
	total := 0.0
	for _, v := range src {
		total += v
	}
	for k, v := range src {
		if total > 0 {
			out[k] = v / total
		} else {
			out[k] = 1.0 / float64(len(src))
		}
	}
	return out
}
