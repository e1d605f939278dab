// Package logger provides prediction-specific logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// PredictionLogger provides dedicated logging for prediction operations.
type PredictionLogger struct {
	*logrus.Entry
}

// NewPredictionLogger creates a new prediction logger.
func NewPredictionLogger(baseLogger *logrus.Logger) *PredictionLogger {
	return &PredictionLogger{
		Entry: baseLogger.WithField("component", "prediction"),
	}
}

// LogPredictionGenerated logs a completed ensemble prediction.
func (pl *PredictionLogger) LogPredictionGenerated(matchID string, outcome string, homeProb, drawProb, awayProb, confidence float64, modelsUsed int, durationMs float64) {
	pl.WithFields(logrus.Fields{
		"match_id":    matchID,
		"outcome":     outcome,
		"home_prob":   homeProb,
		"draw_prob":   drawProb,
		"away_prob":   awayProb,
		"confidence":  confidence,
		"models_used": modelsUsed,
		"duration_ms": durationMs,
	}).Info("Ensemble prediction generated")
}

// LogModelContribution logs a single base model contribution.
func (pl *PredictionLogger) LogModelContribution(matchID, model string, homeProb, drawProb, awayProb, weight, confidence float64) {
	pl.WithFields(logrus.Fields{
		"match_id":   matchID,
		"model":      model,
		"home_prob":  homeProb,
		"draw_prob":  drawProb,
		"away_prob":  awayProb,
		"weight":     weight,
		"confidence": confidence,
	}).Debug("Base model contribution")
}

// LogClassifierFallback logs the classifier dropping out of a prediction.
func (pl *PredictionLogger) LogClassifierFallback(matchID string, reason string) {
	pl.WithFields(logrus.Fields{
		"match_id": matchID,
		"reason":   reason,
	}).Warn("Classifier unavailable; predicting with statistical models only")
}

// LogContextualAdjustment logs an applied contextual adjustment.
func (pl *PredictionLogger) LogContextualAdjustment(matchID string, homeDelta, awayDelta float64, reasoning []string) {
	pl.WithFields(logrus.Fields{
		"match_id":   matchID,
		"home_delta": homeDelta,
		"away_delta": awayDelta,
		"reasoning":  reasoning,
	}).Info("Contextual adjustment applied")
}

// LogOutcomeResolved logs a prediction being resolved against a final score.
func (pl *PredictionLogger) LogOutcomeResolved(matchID string, predicted, actual string, correct bool, resolvedAt time.Time) {
	pl.WithFields(logrus.Fields{
		"match_id":    matchID,
		"predicted":   predicted,
		"actual":      actual,
		"correct":     correct,
		"resolved_at": resolvedAt.Unix(),
	}).Info("Prediction resolved")
}
