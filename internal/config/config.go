// Package config provides configuration management for the Paris Sportif application.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App         AppConfig         `mapstructure:"app" validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database" validate:"required"`
	Classifier  ClassifierConfig  `mapstructure:"classifier" validate:"required"`
	Ensemble    EnsembleConfig    `mapstructure:"ensemble" validate:"required"`
	Adaptive    AdaptiveConfig    `mapstructure:"adaptive" validate:"required"`
	Calibration CalibrationConfig `mapstructure:"calibration" validate:"required"`
	Backtest    BacktestConfig    `mapstructure:"backtest" validate:"required"`
	DataSources DataSourcesConfig `mapstructure:"data_sources" validate:"required"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler" validate:"required"`
	Metrics     MetricsConfig     `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// ClassifierConfig represents the trained classifier service configuration
type ClassifierConfig struct {
	HTTPAddress           string `mapstructure:"http_address" validate:"required"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
	RetryAttempts         int    `mapstructure:"retry_attempts" validate:"required,gte=0"`
	CacheTTLSeconds       int    `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	CacheMaxSize          int    `mapstructure:"cache_max_size" validate:"required,gt=0"`
	Enabled               bool   `mapstructure:"enabled"`
}

// EnsembleConfig represents ensemble combiner configuration
type EnsembleConfig struct {
	MaxLogOddsAdjustment float64 `mapstructure:"max_log_odds_adjustment" validate:"required,gt=0,lte=1"`
	DrawDamping          float64 `mapstructure:"draw_damping" validate:"gte=0,lte=1"`
	ConfidenceFloor      float64 `mapstructure:"confidence_floor" validate:"required,gte=0.33,lt=1"`
	ConfidenceCeiling    float64 `mapstructure:"confidence_ceiling" validate:"required,gt=0,lte=1"`
	DixonColesRho        float64 `mapstructure:"dixon_coles_rho" validate:"gte=-0.3,lte=0"`
	HomeAdvantage        float64 `mapstructure:"home_advantage" validate:"required,gte=1,lte=2"`
}

// AdaptiveConfig represents adaptive weighting configuration
type AdaptiveConfig struct {
	WindowDays         int     `mapstructure:"window_days" validate:"required,gt=0"`
	MinSamples         int     `mapstructure:"min_samples" validate:"required,gt=0"`
	Temperature        float64 `mapstructure:"temperature" validate:"required,gt=0"`
	WeightFloor        float64 `mapstructure:"weight_floor" validate:"gte=0,lt=0.2"`
	CacheTTLMinutes    int     `mapstructure:"cache_ttl_minutes" validate:"required,gt=0"`
	RetentionDays      int     `mapstructure:"retention_days" validate:"required,gt=0"`
	PerformanceMetric  string  `mapstructure:"performance_metric" validate:"required,oneof=accuracy brier log_loss"`
}

// CalibrationConfig represents probability calibration configuration
type CalibrationConfig struct {
	Method     string `mapstructure:"method" validate:"required,oneof=platt isotonic"`
	MinSamples int    `mapstructure:"min_samples" validate:"required,gt=0"`
	Enabled    bool   `mapstructure:"enabled"`
}

// BacktestConfig represents walk-forward backtesting configuration
type BacktestConfig struct {
	StartDate        string  `mapstructure:"start_date" validate:"required"`
	EndDate          string  `mapstructure:"end_date" validate:"required"`
	TrainWindowDays  int     `mapstructure:"train_window_days" validate:"required,gt=0"`
	TestWindowDays   int     `mapstructure:"test_window_days" validate:"required,gt=0"`
	ValueThreshold   float64 `mapstructure:"value_threshold" validate:"required,gt=0.34,lt=1"`
	InitialBankroll  float64 `mapstructure:"initial_bankroll" validate:"required,gt=0"`
	StakePerBet      float64 `mapstructure:"stake_per_bet" validate:"required,gt=0"`
	OutputPath       string  `mapstructure:"output_path" validate:"required"`
	CalibrateInFolds bool    `mapstructure:"calibrate_in_folds"`
}

// DataSourcesConfig represents external data source configuration
type DataSourcesConfig struct {
	Odds OddsSourceConfig `mapstructure:"odds" validate:"required"`
	News NewsSourceConfig `mapstructure:"news" validate:"required"`
}

// OddsSourceConfig represents the bookmaker odds feed configuration
type OddsSourceConfig struct {
	BaseURL              string  `mapstructure:"base_url" validate:"required,url"`
	StreamURL            string  `mapstructure:"stream_url"`
	APIKey               string  `mapstructure:"api_key"`
	Enabled              bool    `mapstructure:"enabled"`
	TimeoutSeconds       int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RateLimitPerSecond   float64 `mapstructure:"rate_limit_per_second" validate:"required,gt=0"`
	RetryAttempts        int     `mapstructure:"retry_attempts" validate:"gte=0"`
	CircuitBreakerTrips  int     `mapstructure:"circuit_breaker_trips" validate:"gte=0"`
}

// NewsSourceConfig represents the news and team context feed configuration
type NewsSourceConfig struct {
	BaseURL            string  `mapstructure:"base_url" validate:"required,url"`
	APIKey             string  `mapstructure:"api_key"`
	Enabled            bool    `mapstructure:"enabled"`
	TimeoutSeconds     int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second" validate:"required,gt=0"`
}

// SchedulerConfig represents background job scheduling configuration
type SchedulerConfig struct {
	Enabled                 bool   `mapstructure:"enabled"`
	WeightRecomputeSchedule string `mapstructure:"weight_recompute_schedule" validate:"required"`
	CalibrationSchedule     string `mapstructure:"calibration_schedule" validate:"required"`
	RetentionSchedule       string `mapstructure:"retention_schedule" validate:"required"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// BacktestDateRange parses the configured backtest window
func (c *Config) BacktestDateRange() (start, end time.Time, err error) {
	start, err = time.Parse("2006-01-02", c.Backtest.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid backtest start_date: %w", err)
	}
	end, err = time.Parse("2006-01-02", c.Backtest.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid backtest end_date: %w", err)
	}
	return start, end, nil
}

// AdaptiveWindow returns the rolling performance window as a duration
func (c *Config) AdaptiveWindow() time.Duration {
	return time.Duration(c.Adaptive.WindowDays) * 24 * time.Hour
}
