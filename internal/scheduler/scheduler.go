// Package scheduler runs the periodic maintenance jobs of the prediction
// ensemble: adaptive weight recomputes, calibration refreshes, and
// prediction-record retention.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/jdvot/paris-sportif/internal/adaptive"
	"github.com/jdvot/paris-sportif/internal/calibration"
	"github.com/jdvot/paris-sportif/internal/config"
	"github.com/jdvot/paris-sportif/internal/logger"
	"github.com/jdvot/paris-sportif/internal/metrics"
	"github.com/jdvot/paris-sportif/internal/service"
)

const jobTimeout = 10 * time.Minute

// Scheduler manages the ensemble's periodic maintenance jobs
type Scheduler struct {
	cron       *cron.Cron
	calculator *adaptive.Calculator
	store      adaptive.RecordStore
	calibrator *calibration.Calibrator
	cfg        *config.Config
	ensLog     *logger.EnsembleLogger
	log        *logrus.Entry

	mu        sync.RWMutex
	isRunning bool
	jobIDs    []cron.EntryID
}

// NewScheduler creates a scheduler over the adaptive calculator and its
// record store. The calibrator is optional; without one the calibration
// refresh job is not scheduled.
func NewScheduler(
	cfg *config.Config,
	calculator *adaptive.Calculator,
	store adaptive.RecordStore,
	calibrator *calibration.Calibrator,
	baseLogger *logrus.Logger,
) (*Scheduler, error) {
	if calculator == nil || store == nil {
		return nil, fmt.Errorf("calculator and record store are required")
	}
	if baseLogger == nil {
		baseLogger = logrus.New()
		baseLogger.SetLevel(logrus.PanicLevel)
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		calculator: calculator,
		store:      store,
		calibrator: calibrator,
		cfg:        cfg,
		ensLog:     logger.NewEnsembleLogger(baseLogger),
		log:        baseLogger.WithField("component", "scheduler"),
	}, nil
}

// ScheduleAll registers the configured maintenance jobs
func (s *Scheduler) ScheduleAll() error {
	sched := s.cfg.Scheduler

	if err := s.scheduleJob(sched.WeightRecomputeSchedule, "weight_recompute", s.runWeightRecompute); err != nil {
		return err
	}
	if s.calibrator != nil {
		if err := s.scheduleJob(sched.CalibrationSchedule, "calibration_refresh", s.runCalibrationRefresh); err != nil {
			return err
		}
	}
	if err := s.scheduleJob(sched.RetentionSchedule, "retention_trim", s.runRetentionTrim); err != nil {
		return err
	}
	return nil
}

func (s *Scheduler) scheduleJob(cronExpression, name string, job func(context.Context)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		job(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to add %s job: %w", name, err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.log.WithFields(logrus.Fields{
		"job":      name,
		"schedule": cronExpression,
	}).Info("Scheduled maintenance job")

	return nil
}

// runWeightRecompute refreshes the adaptive weight table
func (s *Scheduler) runWeightRecompute(ctx context.Context) {
	metric := adaptive.Metric(s.cfg.Adaptive.PerformanceMetric)
	if !metric.IsValid() {
		metric = adaptive.MetricAccuracy
	}

	weights, err := s.calculator.Recompute(ctx, metric)
	if err != nil {
		s.log.WithError(err).Error("Adaptive weight recompute failed")
		metrics.RecordWeightRecompute(string(metric), "failure")
		return
	}

	status := "success"
	if weights.Fallback {
		status = "fallback"
	}
	metrics.RecordWeightRecompute(string(metric), status)
	metrics.UpdateModelWeights(weights.Weights)

	samples := 0
	for model, mm := range weights.ModelMetrics {
		samples += mm.SampleCount
		s.ensLog.LogModelPerformance(model, mm.SampleCount, mm.Accuracy, mm.Brier, mm.LogLoss)
	}
	s.ensLog.LogWeightRecompute(string(metric), weights.Window.String(), samples, weights.Weights, weights.Fallback)
}

// runCalibrationRefresh refits the calibrator on recently resolved
// ensemble outputs
func (s *Scheduler) runCalibrationRefresh(ctx context.Context) {
	method := string(s.calibrator.Method())

	records, err := s.store.RecentResolved(ctx, s.cfg.AdaptiveWindow())
	if err != nil {
		s.log.WithError(err).Error("Loading resolved records for calibration failed")
		metrics.RecordCalibrationRefresh(method, "failure")
		return
	}

	samples := make([]calibration.Sample, 0, len(records))
	for _, record := range records {
		if record.ModelName != service.EnsembleModelName || record.Actual == nil {
			continue
		}
		samples = append(samples, calibration.Sample{
			Probabilities: record.Probabilities,
			Actual:        *record.Actual,
		})
	}

	if len(samples) < s.cfg.Calibration.MinSamples {
		s.ensLog.LogCalibrationSkipped(method, len(samples), s.cfg.Calibration.MinSamples)
		metrics.RecordCalibrationRefresh(method, "skipped")
		return
	}

	before := calibration.Evaluate(samples, nil)

	if err := s.calibrator.Fit(samples); err != nil {
		s.log.WithError(err).Error("Calibration refit failed")
		metrics.RecordCalibrationRefresh(method, "failure")
		return
	}

	after := calibration.Evaluate(samples, s.calibrator)
	s.ensLog.LogCalibrationFit(method, len(samples), before.Brier, after.Brier, before.ECE, after.ECE)
	metrics.RecordCalibrationRefresh(method, "success")
	metrics.UpdateCalibrationQuality(after.Brier, after.ECE)
}

// runRetentionTrim drops prediction records past the retention horizon
func (s *Scheduler) runRetentionTrim(ctx context.Context) {
	retentionDays := s.cfg.Adaptive.RetentionDays
	removed, err := s.calculator.Trim(ctx, time.Duration(retentionDays)*24*time.Hour)
	if err != nil {
		s.log.WithError(err).Error("Prediction record retention trim failed")
		return
	}
	s.ensLog.LogRetentionTrim(removed, retentionDays)
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.log.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	<-s.cron.Stop().Done()
	s.isRunning = false
	s.log.Info("Scheduler stopped")

	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the earliest next scheduled job time
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			if nextRun.IsZero() || entry.Next.Before(nextRun) {
				nextRun = entry.Next
			}
		}
	}
	return nextRun
}

// Entries returns the scheduled entries
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			entries = append(entries, entry)
		}
	}
	return entries
}
