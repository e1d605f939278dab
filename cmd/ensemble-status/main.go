package main

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jdvot/paris-sportif/internal/adaptive"
	"github.com/jdvot/paris-sportif/internal/classifier"
	"github.com/jdvot/paris-sportif/internal/config"
	"github.com/jdvot/paris-sportif/internal/database"
	"github.com/jdvot/paris-sportif/internal/repository"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	logger     *logrus.Logger
	cfg        *config.Config
	db         *database.DB
	repos      *repository.Repositories
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
}

var rootCmd = &cobra.Command{
	Use:   "ensemble-status",
	Short: "Inspect ensemble model weights and classifier health",
	Long:  `Displays the current adaptive weight table, per-model performance over the rolling window, and the trained classifier's health and schema.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := setupDependencies(cmd.Context()); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		displayStatus()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
	if db != nil {
		db.Close()
	}
}

func loadConfig() error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return err
	}
	return config.Validate(cfg)
}

func setupDependencies(ctx context.Context) error {
	logger = logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	var err error
	db, err = database.NewDB(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	repos, err = repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	return nil
}

func displayStatus() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fmt.Println("\n╔════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                  Prediction Ensemble Status                    ║")
	fmt.Println("╚════════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nVersion: %s (%s, built %s)\n", Version, GitCommit, BuildDate)

	displayClassifierStatus(ctx)
	displayWeights(ctx)
	displayConfiguration()

	fmt.Println()
}

func displayClassifierStatus(ctx context.Context) {
	fmt.Print("\nClassifier Service: ")
	if !cfg.Classifier.Enabled {
		fmt.Println("disabled")
		return
	}

	cls, err := classifier.NewCachedClient(ctx, &cfg.Classifier, logger)
	if err != nil {
		fmt.Println("UNAVAILABLE")
		fmt.Printf("   Error: %v\n", err)
		return
	}
	defer cls.Close()

	if err := cls.HealthCheck(ctx); err != nil {
		fmt.Println("UNHEALTHY")
		fmt.Printf("   Error: %v\n", err)
		return
	}
	fmt.Println("ONLINE")

	schema := cls.Schema()
	fmt.Printf("  Model Type: %s\n", schema.ModelType)
	fmt.Printf("  Model Version: %s\n", schema.ModelVersion)
	fmt.Printf("  Feature Count: %d\n", schema.FeatureCount)
}

func displayWeights(ctx context.Context) {
	params := adaptive.DefaultParams()
	params.RollingWindow = cfg.AdaptiveWindow()
	params.MinSamples = cfg.Adaptive.MinSamples
	params.Temperature = cfg.Adaptive.Temperature
	params.FloorWeight = cfg.Adaptive.WeightFloor

	calculator, err := adaptive.NewCalculator(repos.PredictionRecord, params, logger)
	if err != nil {
		fmt.Printf("\nWeights unavailable: %v\n", err)
		return
	}

	metric := adaptive.Metric(cfg.Adaptive.PerformanceMetric)
	if !metric.IsValid() {
		metric = adaptive.MetricAccuracy
	}

	weights, err := calculator.Weights(ctx, metric)
	if err != nil {
		fmt.Printf("\nWeights unavailable: %v\n", err)
		return
	}

	fmt.Printf("\nModel Weights (%s over %s):\n", weights.Metric, weights.Window)
	if weights.Fallback {
		fmt.Println("  [fallback table: insufficient resolved predictions]")
	}

	names := make([]string, 0, len(weights.Weights))
	for name := range weights.Weights {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		line := fmt.Sprintf("  %-14s %.4f", name, weights.Weights[name])
		if mm, ok := weights.ModelMetrics[name]; ok {
			line += fmt.Sprintf("  (samples %d, accuracy %.2f%%, brier %.4f)", mm.SampleCount, mm.Accuracy*100, mm.Brier)
		}
		fmt.Println(line)
	}
}

func displayConfiguration() {
	fmt.Println("\nConfiguration:")
	fmt.Printf("  Classifier Address: %s\n", cfg.Classifier.HTTPAddress)
	fmt.Printf("  Performance Metric: %s\n", cfg.Adaptive.PerformanceMetric)
	fmt.Printf("  Rolling Window: %d days\n", cfg.Adaptive.WindowDays)
	fmt.Printf("  Min Samples Per Model: %d\n", cfg.Adaptive.MinSamples)
	fmt.Printf("  Softmax Temperature: %.2f\n", cfg.Adaptive.Temperature)
	fmt.Printf("  Calibration: %s (enabled: %v, min samples %d)\n",
		cfg.Calibration.Method, cfg.Calibration.Enabled, cfg.Calibration.MinSamples)
	fmt.Printf("  Scheduler Enabled: %v\n", cfg.Scheduler.Enabled)
}
