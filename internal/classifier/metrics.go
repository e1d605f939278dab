// Package classifier provides Prometheus metrics for classifier operations.
package classifier

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PredictionsTotal tracks total classifier predictions
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classifier_predictions_total",
			Help: "Total number of classifier predictions made",
		},
		[]string{"model_type", "cache_hit"},
	)

	// PredictionLatency tracks classifier prediction latency
	PredictionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "classifier_prediction_latency_seconds",
			Help:    "Classifier prediction latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model_type"},
	)

	// ErrorsTotal tracks classifier request errors
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classifier_errors_total",
			Help: "Total number of classifier request errors",
		},
		[]string{"operation", "error_type"},
	)

	// SchemaReloadsTotal tracks schema reloads after retraining
	SchemaReloadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "classifier_schema_reloads_total",
			Help: "Total number of classifier schema reloads",
		},
	)

	// CacheHitRatio tracks the prediction cache hit ratio
	CacheHitRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "classifier_cache_hit_ratio",
			Help: "Classifier prediction cache hit ratio",
		},
	)
)
