package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdvot/paris-sportif/internal/adaptive"
	"github.com/jdvot/paris-sportif/internal/calibration"
	"github.com/jdvot/paris-sportif/internal/config"
	"github.com/jdvot/paris-sportif/internal/models"
	"github.com/jdvot/paris-sportif/internal/service"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func testConfig() *config.Config {
	return &config.Config{
		Adaptive: config.AdaptiveConfig{
			WindowDays:        90,
			MinSamples:        2,
			Temperature:       0.5,
			WeightFloor:       0.05,
			CacheTTLMinutes:   15,
			RetentionDays:     365,
			PerformanceMetric: "accuracy",
		},
		Calibration: config.CalibrationConfig{
			Method:     "platt",
			MinSamples: 5,
			Enabled:    true,
		},
		Scheduler: config.SchedulerConfig{
			Enabled:                 true,
			WeightRecomputeSchedule: "0 * * * *",
			CalibrationSchedule:     "30 4 * * *",
			RetentionSchedule:       "0 3 * * *",
		},
	}
}

func newTestScheduler(t *testing.T) (*Scheduler, *adaptive.MemoryStore) {
	t.Helper()
	cfg := testConfig()
	store := adaptive.NewMemoryStore()
	calculator, err := adaptive.NewCalculator(store, adaptive.Params{
		RollingWindow: cfg.AdaptiveWindow(),
		MinSamples:    cfg.Adaptive.MinSamples,
		Temperature:   cfg.Adaptive.Temperature,
		FloorWeight:   cfg.Adaptive.WeightFloor,
	}, testLogger())
	require.NoError(t, err)

	calibrator, err := calibration.New(calibration.MethodPlatt, testLogger())
	require.NoError(t, err)

	s, err := NewScheduler(cfg, calculator, store, calibrator, testLogger())
	require.NoError(t, err)
	return s, store
}

func resolvedRecord(t *testing.T, model string, probs models.Probabilities, actual models.Outcome) *models.PredictionRecord {
	t.Helper()
	record := models.NewPredictionRecord(model, uuid.New(), probs)
	require.NoError(t, record.Resolve(actual, time.Now().UTC()))
	return record
}

func TestNewSchedulerRequiresCalculator(t *testing.T) {
	_, err := NewScheduler(testConfig(), nil, nil, nil, testLogger())
	assert.Error(t, err)
}

func TestScheduleAllRegistersJobs(t *testing.T) {
	s, _ := newTestScheduler(t)

	require.NoError(t, s.ScheduleAll())
	assert.Len(t, s.jobIDs, 3)
}

func TestScheduleAllSkipsCalibrationWithoutCalibrator(t *testing.T) {
	cfg := testConfig()
	store := adaptive.NewMemoryStore()
	calculator, err := adaptive.NewCalculator(store, adaptive.DefaultParams(), testLogger())
	require.NoError(t, err)

	s, err := NewScheduler(cfg, calculator, store, nil, testLogger())
	require.NoError(t, err)

	require.NoError(t, s.ScheduleAll())
	assert.Len(t, s.jobIDs, 2)
}

func TestScheduleAllRejectsBadExpression(t *testing.T) {
	s, _ := newTestScheduler(t)
	s.cfg.Scheduler.WeightRecomputeSchedule = "not a cron expression"

	assert.Error(t, s.ScheduleAll())
}

func TestStartRequiresJobs(t *testing.T) {
	s, _ := newTestScheduler(t)
	assert.Error(t, s.Start())
}

func TestStartStopLifecycle(t *testing.T) {
	s, _ := newTestScheduler(t)
	require.NoError(t, s.ScheduleAll())

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start(), "double start should fail")
	assert.False(t, s.NextRun().IsZero())
	assert.Len(t, s.Entries(), 3)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.NoError(t, s.Stop(), "stop when idle is a no-op")
}

func TestCannotScheduleWhileRunning(t *testing.T) {
	s, _ := newTestScheduler(t)
	require.NoError(t, s.ScheduleAll())
	require.NoError(t, s.Start())
	defer func() { _ = s.Stop() }()

	assert.Error(t, s.ScheduleAll())
}

func TestRunWeightRecompute(t *testing.T) {
	s, store := newTestScheduler(t)
	ctx := context.Background()

	homeHeavy := models.Probabilities{Home: 0.7, Draw: 0.2, Away: 0.1}
	awayHeavy := models.Probabilities{Home: 0.1, Draw: 0.2, Away: 0.7}
	for i := 0; i < 4; i++ {
		require.NoError(t, store.Append(ctx, resolvedRecord(t, "poisson", homeHeavy, models.OutcomeHome)))
		require.NoError(t, store.Append(ctx, resolvedRecord(t, "elo", awayHeavy, models.OutcomeHome)))
	}

	assert.NotPanics(t, func() { s.runWeightRecompute(ctx) })

	weights, err := s.calculator.Weights(ctx, adaptive.MetricAccuracy)
	require.NoError(t, err)
	assert.False(t, weights.Fallback)
	assert.Greater(t, weights.For("poisson"), weights.For("elo"),
		"the consistently correct model should outweigh the consistently wrong one")
}

func TestRunCalibrationRefreshFitsOnEnsembleRecords(t *testing.T) {
	s, store := newTestScheduler(t)
	ctx := context.Background()

	confident := models.Probabilities{Home: 0.8, Draw: 0.12, Away: 0.08}
	for i := 0; i < 20; i++ {
		actual := models.OutcomeHome
		if i%3 == 0 {
			actual = models.OutcomeAway
		}
		require.NoError(t, store.Append(ctx, resolvedRecord(t, service.EnsembleModelName, confident, actual)))
	}

	s.runCalibrationRefresh(ctx)
	assert.True(t, s.calibrator.Fitted())
}

func TestRunCalibrationRefreshSkipsThinData(t *testing.T) {
	s, store := newTestScheduler(t)
	ctx := context.Background()

	probs := models.Probabilities{Home: 0.5, Draw: 0.3, Away: 0.2}
	require.NoError(t, store.Append(ctx, resolvedRecord(t, service.EnsembleModelName, probs, models.OutcomeHome)))
	// Base-model records never feed the calibrator, only the blended output.
	require.NoError(t, store.Append(ctx, resolvedRecord(t, "poisson", probs, models.OutcomeHome)))

	s.runCalibrationRefresh(ctx)
	assert.False(t, s.calibrator.Fitted())
}

func TestRunRetentionTrim(t *testing.T) {
	s, store := newTestScheduler(t)
	ctx := context.Background()

	old := resolvedRecord(t, "poisson", models.Probabilities{Home: 0.5, Draw: 0.3, Away: 0.2}, models.OutcomeHome)
	old.PredictedAt = time.Now().UTC().Add(-400 * 24 * time.Hour)
	require.NoError(t, store.Append(ctx, old))
	require.NoError(t, store.Append(ctx, resolvedRecord(t, "poisson", models.Probabilities{Home: 0.5, Draw: 0.3, Away: 0.2}, models.OutcomeHome)))

	s.runRetentionTrim(ctx)

	recent, err := store.RecentResolved(ctx, 500*24*time.Hour)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}
