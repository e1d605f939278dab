// Package metrics defines backtesting-specific metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Backtest counter vectors
var (
	BacktestRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paris_sportif",
		Name:      "backtest_runs_total",
		Help:      "Total number of backtest runs by status",
	}, []string{"status"})
)

// Backtest histogram vectors
var (
	BacktestFoldAccuracy = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "paris_sportif",
		Name:      "backtest_fold_accuracy",
		Help:      "Out-of-sample accuracy per walk-forward fold",
		Buckets:   []float64{0.2, 0.25, 0.3, 0.35, 0.4, 0.45, 0.5, 0.55, 0.6, 0.7},
	})
)

// Backtest gauges
var (
	BacktestROI = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "paris_sportif",
		Name:      "backtest_roi",
		Help:      "Value-betting return on investment of the last backtest run",
	})
)

// RecordBacktestRun records a backtest run event.
// status should be one of: "success", "failure", "cancelled"
func RecordBacktestRun(status string) {
	BacktestRunsTotal.WithLabelValues(status).Inc()
}

// RecordFoldAccuracy records one fold's out-of-sample accuracy.
func RecordFoldAccuracy(accuracy float64) {
	BacktestFoldAccuracy.Observe(accuracy)
}

// UpdateBacktestROI publishes the aggregate ROI of a completed run.
func UpdateBacktestROI(roi float64) {
	BacktestROI.Set(roi)
}
