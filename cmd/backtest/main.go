// Package main provides the entry point for the walk-forward backtesting CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flag"

	"github.com/sirupsen/logrus"

	"github.com/jdvot/paris-sportif/internal/backtest"
	"github.com/jdvot/paris-sportif/internal/classifier"
	"github.com/jdvot/paris-sportif/internal/config"
	"github.com/jdvot/paris-sportif/internal/database"
	"github.com/jdvot/paris-sportif/internal/metrics"
	"github.com/jdvot/paris-sportif/internal/repository"
	"github.com/jdvot/paris-sportif/internal/service"
)

func main() {
	var (
		configPath   = flag.String("config", "config/config.yaml", "Path to config file")
		startDate    = flag.String("start-date", "", "Override start date (YYYY-MM-DD)")
		endDate      = flag.String("end-date", "", "Override end date (YYYY-MM-DD)")
		output       = flag.String("output", "", "Override JSON output path")
		csvPath      = flag.String("csv", "", "Also write per-fold metrics as CSV")
		noClassifier = flag.Bool("no-classifier", false, "Run with statistical models only")
	)
	flag.Parse()

	appLog := newLogger()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := loadConfigWithSecrets(*configPath, appLog)
	btConfig := buildBacktestConfig(cfg, *output, *startDate, *endDate, appLog)

	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		appLog.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		appLog.Fatalf("Failed to initialize repositories: %v", err)
	}

	cls := buildClassifier(ctx, cfg, *noClassifier, appLog)
	if cls != nil {
		defer cls.Close()
	}

	assembler := service.NewFactsAssembler(repos.Match, repos.TeamStats, repos.Odds, appLog)
	factory := func() (backtest.Pipeline, error) {
		return service.NewFoldPredictor(cfg, classifierOrNil(cls), appLog)
	}

	engine, err := backtest.NewEngine(btConfig, assembler, factory, appLog)
	if err != nil {
		appLog.Fatalf("Failed to create engine: %v", err)
	}

	appLog.WithFields(logrus.Fields{
		"start": btConfig.StartDate.Format("2006-01-02"),
		"end":   btConfig.EndDate.Format("2006-01-02"),
		"train": btConfig.TrainWindowDays,
		"test":  btConfig.TestWindowDays,
	}).Info("Starting walk-forward backtest")

	started := time.Now()
	result, err := engine.Run(ctx)
	metrics.RecordBacktestDuration(time.Since(started).Seconds())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			metrics.RecordBacktestRun("cancelled")
			appLog.Warn("Backtest cancelled")
			os.Exit(1)
		}
		metrics.RecordBacktestRun("failure")
		appLog.Fatalf("Backtest failed: %v", err)
	}
	metrics.RecordBacktestRun("success")

	for _, fold := range result.Folds {
		if !fold.Skipped {
			metrics.RecordFoldAccuracy(fold.Metrics.Accuracy)
		}
	}
	metrics.UpdateBacktestROI(result.Summary.ROI)

	fmt.Print(backtest.GenerateConsoleReport(result))

	if err := backtest.WriteJSONReport(result, btConfig.OutputPath); err != nil {
		appLog.Fatalf("Failed to write JSON report: %v", err)
	}
	appLog.WithField("path", btConfig.OutputPath).Info("JSON report written")

	if *csvPath != "" {
		if err := backtest.WriteCSVReport(result, *csvPath); err != nil {
			appLog.Fatalf("Failed to write CSV report: %v", err)
		}
		appLog.WithField("path", *csvPath).Info("CSV report written")
	}
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	return logger
}

func loadConfigWithSecrets(path string, logger *logrus.Logger) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			logger.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			logger.Fatalf("Failed to load secrets: %v", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

func buildBacktestConfig(cfg *config.Config, output, startOverride, endOverride string, logger *logrus.Logger) backtest.BacktestConfig {
	btConfig, err := backtest.FromConfig(&cfg.Backtest)
	if err != nil {
		logger.Fatalf("Invalid backtest config: %v", err)
	}
	if output != "" {
		btConfig.OutputPath = output
	}
	if startOverride != "" {
		parsed, err := time.Parse("2006-01-02", startOverride)
		if err != nil {
			logger.Fatalf("Invalid start date: %v", err)
		}
		btConfig.StartDate = parsed
	}
	if endOverride != "" {
		parsed, err := time.Parse("2006-01-02", endOverride)
		if err != nil {
			logger.Fatalf("Invalid end date: %v", err)
		}
		btConfig.EndDate = parsed
	}
	if err := btConfig.Validate(); err != nil {
		logger.Fatalf("Invalid backtest window: %v", err)
	}
	return btConfig
}

// buildClassifier returns nil when the classifier is disabled or
// unreachable; the ensemble degrades to statistical models only.
func buildClassifier(ctx context.Context, cfg *config.Config, disabled bool, logger *logrus.Logger) *classifier.CachedClient {
	if disabled || !cfg.Classifier.Enabled {
		logger.Info("Classifier disabled; running on statistical models only")
		return nil
	}
	cls, err := classifier.NewCachedClient(ctx, &cfg.Classifier, logger)
	if err != nil {
		logger.WithError(err).Warn("Classifier unavailable; running on statistical models only")
		return nil
	}
	return cls
}

// classifierOrNil avoids handing the factory a typed nil pointer inside
// the interface value
func classifierOrNil(cls *classifier.CachedClient) classifier.Predictor {
	if cls == nil {
		return nil
	}
	return cls
}
