// Package logger provides backtest logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// BacktestLogger provides dedicated logging for walk-forward backtests.
type BacktestLogger struct {
	*logrus.Entry
}

// NewBacktestLogger creates a new backtest logger.
func NewBacktestLogger(baseLogger *logrus.Logger) *BacktestLogger {
	return &BacktestLogger{
		Entry: baseLogger.WithField("component", "backtest"),
	}
}

// LogFoldStart logs the beginning of a walk-forward fold.
func (bl *BacktestLogger) LogFoldStart(fold int, trainStart, trainEnd, testStart, testEnd time.Time, trainMatches, testMatches int) {
	bl.WithFields(logrus.Fields{
		"fold":          fold,
		"train_start":   trainStart.Format("2006-01-02"),
		"train_end":     trainEnd.Format("2006-01-02"),
		"test_start":    testStart.Format("2006-01-02"),
		"test_end":      testEnd.Format("2006-01-02"),
		"train_matches": trainMatches,
		"test_matches":  testMatches,
	}).Info("Walk-forward fold started")
}

// LogFoldComplete logs per-fold metrics.
func (bl *BacktestLogger) LogFoldComplete(fold int, predictions int, accuracy, brier, logLoss float64, durationMs float64) {
	bl.WithFields(logrus.Fields{
		"fold":        fold,
		"predictions": predictions,
		"accuracy":    accuracy,
		"brier":       brier,
		"log_loss":    logLoss,
		"duration_ms": durationMs,
	}).Info("Walk-forward fold completed")
}

// LogFoldSkipped logs a fold with no test matches.
func (bl *BacktestLogger) LogFoldSkipped(fold int, reason string) {
	bl.WithFields(logrus.Fields{
		"fold":   fold,
		"reason": reason,
	}).Warn("Walk-forward fold skipped")
}

// LogBacktestSummary logs the aggregate result.
func (bl *BacktestLogger) LogBacktestSummary(folds, predictions, valueBets int, accuracy, brier, roi float64) {
	bl.WithFields(logrus.Fields{
		"folds":       folds,
		"predictions": predictions,
		"value_bets":  valueBets,
		"accuracy":    accuracy,
		"brier":       brier,
		"roi":         roi,
	}).Info("Backtest completed")
}
