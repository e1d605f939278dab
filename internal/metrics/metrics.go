// Package metrics provides the centralized Prometheus registry for the
// prediction service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PredictionsGeneratedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paris_sportif",
		Name:      "predictions_generated_total",
		Help:      "Total number of ensemble predictions by recommended outcome",
	}, []string{"outcome"})
	PredictionsCalibratedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "paris_sportif",
		Name:      "predictions_calibrated_total",
		Help:      "Total number of predictions that passed through a fitted calibrator",
	})
	OutcomesResolvedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paris_sportif",
		Name:      "outcomes_resolved_total",
		Help:      "Total number of resolved predictions by correctness",
	}, []string{"correct"})
	EnrichmentFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paris_sportif",
		Name:      "enrichment_failures_total",
		Help:      "Total number of failed enrichment fetches by source",
	}, []string{"source"})
	WeightRecomputesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paris_sportif",
		Name:      "weight_recomputes_total",
		Help:      "Total number of adaptive weight recomputations by metric and status",
	}, []string{"metric", "status"})
	CalibrationRefreshesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paris_sportif",
		Name:      "calibration_refreshes_total",
		Help:      "Total number of calibration refits by method and status",
	}, []string{"method", "status"})
	OddsSnapshotsIngestedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "paris_sportif",
		Name:      "odds_snapshots_ingested_total",
		Help:      "Total number of bookmaker odds snapshots ingested",
	})
)

// Gauge metrics
var (
	ModelWeight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "paris_sportif",
		Name:      "model_weight",
		Help:      "Current adaptive weight per base model",
	}, []string{"model"})
	PendingPredictionRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "paris_sportif",
		Name:      "pending_prediction_records",
		Help:      "Unresolved prediction records awaiting a final score",
	})
	CalibrationBrierScore = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "paris_sportif",
		Name:      "calibration_brier_score",
		Help:      "Brier score of the last calibration quality report",
	})
	CalibrationECE = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "paris_sportif",
		Name:      "calibration_expected_error",
		Help:      "Expected calibration error of the last quality report",
	})
)

// Histogram metrics
var (
	PredictionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "paris_sportif",
		Name:      "prediction_duration_seconds",
		Help:      "End-to-end duration of ensemble predictions in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	EnsembleConfidence = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "paris_sportif",
		Name:      "ensemble_confidence",
		Help:      "Confidence scores of generated predictions",
		Buckets:   []float64{0.5, 0.55, 0.6, 0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1.0},
	})
	BacktestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "paris_sportif",
		Name:      "backtest_duration_seconds",
		Help:      "Duration of backtest runs in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(PredictionsGeneratedTotal)
		registry.MustRegister(PredictionsCalibratedTotal)
		registry.MustRegister(OutcomesResolvedTotal)
		registry.MustRegister(EnrichmentFailuresTotal)
		registry.MustRegister(WeightRecomputesTotal)
		registry.MustRegister(CalibrationRefreshesTotal)
		registry.MustRegister(OddsSnapshotsIngestedTotal)

		// Register gauge metrics
		registry.MustRegister(ModelWeight)
		registry.MustRegister(PendingPredictionRecords)
		registry.MustRegister(CalibrationBrierScore)
		registry.MustRegister(CalibrationECE)

		// Register histogram metrics
		registry.MustRegister(PredictionDuration)
		registry.MustRegister(EnsembleConfidence)
		registry.MustRegister(BacktestDuration)

		// Register backtest metrics
		registry.MustRegister(BacktestRunsTotal)
		registry.MustRegister(BacktestFoldAccuracy)
		registry.MustRegister(BacktestROI)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler. The classifier client
// registers its metrics on the default registry, so both are gathered.
func Handler() http.Handler {
	gatherers := prometheus.Gatherers{GetRegistry(), prometheus.DefaultGatherer}
	return promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})
}

// RecordPrediction records a generated ensemble prediction.
func RecordPrediction(outcome string, confidence, durationSeconds float64, calibrated bool) {
	PredictionsGeneratedTotal.WithLabelValues(outcome).Inc()
	EnsembleConfidence.Observe(confidence)
	PredictionDuration.Observe(durationSeconds)
	if calibrated {
		PredictionsCalibratedTotal.Inc()
	}
}

// RecordOutcomeResolved records a resolved prediction.
func RecordOutcomeResolved(correct bool) {
	if correct {
		OutcomesResolvedTotal.WithLabelValues("true").Inc()
	} else {
		OutcomesResolvedTotal.WithLabelValues("false").Inc()
	}
}

// RecordEnrichmentFailure records a failed odds or context fetch.
func RecordEnrichmentFailure(source string) {
	EnrichmentFailuresTotal.WithLabelValues(source).Inc()
}

// RecordWeightRecompute records an adaptive weight recomputation.
// status should be one of: "success", "failure", "fallback"
func RecordWeightRecompute(metric, status string) {
	WeightRecomputesTotal.WithLabelValues(metric, status).Inc()
}

// RecordCalibrationRefresh records a calibration refit.
// status should be one of: "success", "failure", "skipped"
func RecordCalibrationRefresh(method, status string) {
	CalibrationRefreshesTotal.WithLabelValues(method, status).Inc()
}

// UpdateModelWeights publishes the current adaptive weight table.
func UpdateModelWeights(weights map[string]float64) {
	for model, weight := range weights {
		ModelWeight.WithLabelValues(model).Set(weight)
	}
}

// UpdateCalibrationQuality publishes the latest calibration report.
func UpdateCalibrationQuality(brier, ece float64) {
	CalibrationBrierScore.Set(brier)
	CalibrationECE.Set(ece)
}

// RecordBacktestDuration records backtest duration.
func RecordBacktestDuration(durationSeconds float64) {
	BacktestDuration.Observe(durationSeconds)
}
