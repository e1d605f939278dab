// Package logger provides ensemble-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// EnsembleLogger provides dedicated logging for weighting and calibration.
type EnsembleLogger struct {
	*logrus.Entry
}

// NewEnsembleLogger creates a new ensemble logger.
func NewEnsembleLogger(baseLogger *logrus.Logger) *EnsembleLogger {
	return &EnsembleLogger{
		Entry: baseLogger.WithField("component", "ensemble"),
	}
}

// LogWeightRecompute logs an adaptive weight recomputation.
func (el *EnsembleLogger) LogWeightRecompute(metric string, window string, samples int, weights map[string]float64, fallback bool) {
	el.WithFields(logrus.Fields{
		"metric":   metric,
		"window":   window,
		"samples":  samples,
		"weights":  weights,
		"fallback": fallback,
	}).Info("Adaptive model weights recomputed")
}

// LogModelPerformance logs per-model rolling performance.
func (el *EnsembleLogger) LogModelPerformance(model string, samples int, accuracy, brier, logLoss float64) {
	el.WithFields(logrus.Fields{
		"model":    model,
		"samples":  samples,
		"accuracy": accuracy,
		"brier":    brier,
		"log_loss": logLoss,
	}).Info("Model performance computed")
}

// LogCalibrationFit logs a calibrator refit.
func (el *EnsembleLogger) LogCalibrationFit(method string, samples int, brierBefore, brierAfter, eceBefore, eceAfter float64) {
	el.WithFields(logrus.Fields{
		"method":       method,
		"samples":      samples,
		"brier_before": brierBefore,
		"brier_after":  brierAfter,
		"ece_before":   eceBefore,
		"ece_after":    eceAfter,
	}).Info("Probability calibrator refitted")
}

// LogCalibrationSkipped logs a refit skipped for lack of data.
func (el *EnsembleLogger) LogCalibrationSkipped(method string, samples, minSamples int) {
	el.WithFields(logrus.Fields{
		"method":      method,
		"samples":     samples,
		"min_samples": minSamples,
	}).Warn("Calibration refit skipped; not enough resolved predictions")
}

// LogRetentionTrim logs history trimming.
func (el *EnsembleLogger) LogRetentionTrim(removed int, retentionDays int) {
	el.WithFields(logrus.Fields{
		"records_removed": removed,
		"retention_days":  retentionDays,
	}).Info("Prediction history trimmed")
}
