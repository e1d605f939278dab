// Package main provides the entry point for the prediction service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jdvot/paris-sportif/internal/adaptive"
	"github.com/jdvot/paris-sportif/internal/calibration"
	"github.com/jdvot/paris-sportif/internal/classifier"
	"github.com/jdvot/paris-sportif/internal/config"
	"github.com/jdvot/paris-sportif/internal/database"
	"github.com/jdvot/paris-sportif/internal/datasource"
	"github.com/jdvot/paris-sportif/internal/health"
	"github.com/jdvot/paris-sportif/internal/logger"
	"github.com/jdvot/paris-sportif/internal/metrics"
	"github.com/jdvot/paris-sportif/internal/models"
	"github.com/jdvot/paris-sportif/internal/repository"
	"github.com/jdvot/paris-sportif/internal/scheduler"
	"github.com/jdvot/paris-sportif/internal/service"
)

func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "Path to config file")
		matchID    = flag.String("match", "", "Predict a single match by ID and exit")
		upcoming   = flag.Int("upcoming", 0, "Predict the next N upcoming fixtures and exit")
		serve      = flag.Bool("serve", false, "Run as a long-lived service with scheduled maintenance")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		stdlog.Fatalf("Failed to load config: %v", err)
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			stdlog.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			stdlog.Fatalf("Failed to load secrets: %v", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		stdlog.Fatalf("Invalid configuration: %v", err)
	}

	appLog := logger.NewLogger(cfg.App.LogLevel)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
	}).Info("Paris Sportif prediction service starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize repositories")
	}

	svc, deps := buildService(ctx, cfg, repos, appLog)
	if deps.classifier != nil {
		defer deps.classifier.Close()
	}

	switch {
	case *matchID != "":
		predictOne(ctx, svc, *matchID, appLog)
	case *upcoming > 0:
		predictUpcoming(ctx, svc, *upcoming, appLog)
	case *serve:
		runService(ctx, cancel, cfg, svc, deps, db, appLog)
	default:
		predictUpcoming(ctx, svc, 10, appLog)
	}
}

// serviceDeps holds the long-lived components the serve mode manages
type serviceDeps struct {
	classifier *classifier.CachedClient
	calculator *adaptive.Calculator
	calibrator *calibration.Calibrator
	sources    *datasource.Sources
	records    repository.PredictionRecordRepository
	matches    repository.MatchRepository
	odds       repository.OddsRepository
}

func buildService(ctx context.Context, cfg *config.Config, repos *repository.Repositories, appLog *logrus.Logger) (*service.PredictionService, serviceDeps) {
	params := adaptive.DefaultParams()
	params.RollingWindow = cfg.AdaptiveWindow()
	params.MinSamples = cfg.Adaptive.MinSamples
	params.Temperature = cfg.Adaptive.Temperature
	params.FloorWeight = cfg.Adaptive.WeightFloor
	params.CacheTTL = time.Duration(cfg.Adaptive.CacheTTLMinutes) * time.Minute

	calculator, err := adaptive.NewCalculator(repos.PredictionRecord, params, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to create adaptive calculator")
	}

	var calibrator *calibration.Calibrator
	if cfg.Calibration.Enabled {
		calibrator, err = calibration.New(calibration.Method(cfg.Calibration.Method), appLog)
		if err != nil {
			appLog.WithError(err).Fatal("Failed to create calibrator")
		}
	}

	var cls *classifier.CachedClient
	if cfg.Classifier.Enabled {
		cls, err = classifier.NewCachedClient(ctx, &cfg.Classifier, appLog)
		if err != nil {
			appLog.WithError(err).Warn("Classifier unavailable; running on statistical models only")
			cls = nil
		}
	}

	predictor, err := service.NewPredictor(cfg, classifierOrNil(cls), calculator, calibrator, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to create predictor")
	}

	dsLogger := stdlog.New(os.Stdout, "datasource: ", stdlog.LstdFlags)
	sources, err := datasource.NewFactory(&cfg.DataSources, dsLogger).NewSources()
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize data sources")
	}

	assembler := service.NewFactsAssembler(repos.Match, repos.TeamStats, repos.Odds, appLog)
	svc, err := service.NewPredictionService(
		assembler,
		predictor,
		calculator,
		repos.Match,
		repos.Odds,
		repos.PredictionRecord,
		sources,
		appLog,
	)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to create prediction service")
	}

	return svc, serviceDeps{
		classifier: cls,
		calculator: calculator,
		calibrator: calibrator,
		sources:    sources,
		records:    repos.PredictionRecord,
		matches:    repos.Match,
		odds:       repos.Odds,
	}
}

func predictOne(ctx context.Context, svc *service.PredictionService, rawID string, appLog *logrus.Logger) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		appLog.Fatalf("Invalid match ID %q: %v", rawID, err)
	}
	prediction, err := svc.PredictMatch(ctx, id)
	if err != nil {
		appLog.WithError(err).Fatal("Prediction failed")
	}
	printJSON(prediction, appLog)
}

func predictUpcoming(ctx context.Context, svc *service.PredictionService, limit int, appLog *logrus.Logger) {
	predictions, err := svc.PredictUpcoming(ctx, limit)
	if err != nil {
		appLog.WithError(err).Fatal("Predicting upcoming fixtures failed")
	}
	if len(predictions) == 0 {
		appLog.Info("No upcoming fixtures with sufficient history")
		return
	}
	printJSON(predictions, appLog)
}

func printJSON(v interface{}, appLog *logrus.Logger) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		appLog.WithError(err).Fatal("Failed to encode prediction")
	}
	fmt.Println(string(data))
}

func runService(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, svc *service.PredictionService, deps serviceDeps, db *database.DB, appLog *logrus.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Port:        os.Getenv("HEALTH_PORT"),
		Logger:      appLog,
		DB:          db,
		Classifier:  classifierOrNilChecker(deps.classifier),
	})
	if err := healthServer.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start health server")
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
		metricsServer = &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		go func() {
			appLog.WithFields(logrus.Fields{
				"port": cfg.Metrics.Port,
				"path": cfg.Metrics.Path,
			}).Info("Metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				appLog.WithError(err).Error("Metrics server error")
			}
		}()
	}

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		var err error
		sched, err = scheduler.NewScheduler(cfg, deps.calculator, deps.records, deps.calibrator, appLog)
		if err != nil {
			appLog.WithError(err).Fatal("Failed to create scheduler")
		}
		if err := sched.ScheduleAll(); err != nil {
			appLog.WithError(err).Fatal("Failed to schedule maintenance jobs")
		}
		if err := sched.Start(); err != nil {
			appLog.WithError(err).Fatal("Failed to start scheduler")
		}
		appLog.WithField("next_run", sched.NextRun()).Info("Maintenance scheduler started")
	}

	startOddsStream(ctx, deps, appLog)

	healthServer.SetReady(true)
	appLog.Info("Prediction service is running")

	sig := <-sigChan
	appLog.WithField("signal", sig).Info("Shutdown signal received")

	cancel()
	if sched != nil {
		if err := sched.Stop(); err != nil {
			appLog.WithError(err).Error("Error stopping scheduler")
		}
	}
	if deps.sources != nil && deps.sources.Stream != nil {
		if err := deps.sources.Stream.Close(); err != nil {
			appLog.WithError(err).Error("Error closing odds stream")
		}
	}
	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			appLog.WithError(err).Error("Error stopping metrics server")
		}
	}

	appLog.Info("Prediction service shut down")
}

// startOddsStream connects the live odds feed and persists every update
// as a new snapshot. Failures are logged and the service runs without
// the stream.
func startOddsStream(ctx context.Context, deps serviceDeps, appLog *logrus.Logger) {
	stream := deps.sources.Stream
	if stream == nil {
		return
	}

	stream.AddHandler(func(odds models.BookmakerOdds) error {
		if err := deps.odds.InsertBatch(ctx, []*models.BookmakerOdds{&odds}); err != nil {
			return err
		}
		metrics.OddsSnapshotsIngestedTotal.Inc()
		return nil
	})

	if err := stream.Connect(ctx); err != nil {
		appLog.WithError(err).Warn("Odds stream unavailable; continuing without live odds")
		return
	}

	upcoming, err := deps.matches.GetUpcoming(ctx, 50)
	if err != nil {
		appLog.WithError(err).Warn("Could not load upcoming fixtures for stream subscription")
		return
	}
	ids := make([]uuid.UUID, 0, len(upcoming))
	for _, m := range upcoming {
		ids = append(ids, m.ID)
	}
	if len(ids) > 0 {
		if err := stream.Subscribe(ctx, ids); err != nil {
			appLog.WithError(err).Warn("Odds stream subscription failed")
		}
	}
	appLog.WithField("matches", len(ids)).Info("Live odds stream connected")
}

func classifierOrNil(cls *classifier.CachedClient) classifier.Predictor {
	if cls == nil {
		return nil
	}
	return cls
}

func classifierOrNilChecker(cls *classifier.CachedClient) health.ClassifierChecker {
	if cls == nil {
		return nil
	}
	return cls
}
