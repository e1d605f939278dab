package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerLevelParsing(t *testing.T) {
	log := NewLogger("debug")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log = NewLogger("not-a-level")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestPredictionLoggerGenerated(t *testing.T) {
	log, buf := setupTestLogger()
	predictionLogger := NewPredictionLogger(log)

	predictionLogger.LogPredictionGenerated(
		"match_001",
		"home",
		0.52,
		0.26,
		0.22,
		0.61,
		5,
		42.0,
	)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "match_001", logEntry["match_id"])
	assert.Equal(t, "prediction", logEntry["component"])
	assert.Equal(t, "home", logEntry["outcome"])
	assert.InDelta(t, 0.52, logEntry["home_prob"], 1e-9)
}

func TestPredictionLoggerClassifierFallback(t *testing.T) {
	log, buf := setupTestLogger()
	predictionLogger := NewPredictionLogger(log)

	predictionLogger.LogClassifierFallback("match_002", "connection refused")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])
	assert.Equal(t, "connection refused", logEntry["reason"])
}

func TestPredictionLoggerOutcomeResolved(t *testing.T) {
	log, buf := setupTestLogger()
	predictionLogger := NewPredictionLogger(log)

	predictionLogger.LogOutcomeResolved("match_003", "home", "draw", false, time.Unix(1700000000, 0))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "home", logEntry["predicted"])
	assert.Equal(t, "draw", logEntry["actual"])
	assert.Equal(t, false, logEntry["correct"])
}

func TestEnsembleLoggerWeightRecompute(t *testing.T) {
	log, buf := setupTestLogger()
	ensembleLogger := NewEnsembleLogger(log)

	ensembleLogger.LogWeightRecompute(
		"accuracy",
		"2160h0m0s",
		120,
		map[string]float64{"poisson": 0.3, "elo": 0.2},
		false,
	)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "ensemble", logEntry["component"])
	assert.Equal(t, "accuracy", logEntry["metric"])
	assert.Equal(t, false, logEntry["fallback"])
}

func TestEnsembleLoggerCalibrationSkipped(t *testing.T) {
	log, buf := setupTestLogger()
	ensembleLogger := NewEnsembleLogger(log)

	ensembleLogger.LogCalibrationSkipped("platt", 12, 50)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])
	assert.InDelta(t, 12, logEntry["samples"], 1e-9)
}

func TestBacktestLoggerFoldComplete(t *testing.T) {
	log, buf := setupTestLogger()
	backtestLogger := NewBacktestLogger(log)

	backtestLogger.LogFoldComplete(3, 87, 0.51, 0.19, 0.98, 1200.0)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "backtest", logEntry["component"])
	assert.InDelta(t, 3, logEntry["fold"], 1e-9)
	assert.InDelta(t, 0.51, logEntry["accuracy"], 1e-9)
}

func TestBacktestLoggerFoldSkipped(t *testing.T) {
	log, buf := setupTestLogger()
	backtestLogger := NewBacktestLogger(log)

	backtestLogger.LogFoldSkipped(5, "no matches in test window")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])
	assert.Equal(t, "no matches in test window", logEntry["reason"])
}
