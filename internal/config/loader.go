// Package config provides configuration management for the Paris Sportif application.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the configuration (${VAR} syntax)
	expanded := os.ExpandEnv(string(data))

	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewBuffer([]byte(expanded))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	v.SetEnvPrefix("PARIS_SPORTIF")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional fields
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func LoadWithDefaults(configPath string) (*Config, error) {
	v := viper.New()

	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v.SetConfigType("yaml")
	v.SetEnvPrefix("PARIS_SPORTIF")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	// Read and expand the configuration file if it exists
	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBuffer([]byte(expanded))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	// If file doesn't exist, continue with defaults and environment variables

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults registers defaults so a partial config file still yields a
// usable prediction pipeline
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "paris-sportif")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("ensemble.max_log_odds_adjustment", 0.375)
	v.SetDefault("ensemble.draw_damping", 0.5)
	v.SetDefault("ensemble.confidence_floor", 0.52)
	v.SetDefault("ensemble.confidence_ceiling", 0.98)
	v.SetDefault("ensemble.dixon_coles_rho", -0.1)
	v.SetDefault("ensemble.home_advantage", 1.15)

	v.SetDefault("adaptive.window_days", 90)
	v.SetDefault("adaptive.min_samples", 10)
	v.SetDefault("adaptive.temperature", 0.5)
	v.SetDefault("adaptive.weight_floor", 0.05)
	v.SetDefault("adaptive.cache_ttl_minutes", 60)
	v.SetDefault("adaptive.retention_days", 365)
	v.SetDefault("adaptive.performance_metric", "accuracy")

	v.SetDefault("calibration.method", "platt")
	v.SetDefault("calibration.min_samples", 50)
	v.SetDefault("calibration.enabled", true)

	v.SetDefault("backtest.train_window_days", 365)
	v.SetDefault("backtest.test_window_days", 30)
	v.SetDefault("backtest.value_threshold", 0.55)
	v.SetDefault("backtest.initial_bankroll", 1000)
	v.SetDefault("backtest.stake_per_bet", 10)
	v.SetDefault("backtest.output_path", "backtest_results")
	v.SetDefault("backtest.calibrate_in_folds", true)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.weight_recompute_schedule", "0 * * * *")
	v.SetDefault("scheduler.calibration_schedule", "30 4 * * *")
	v.SetDefault("scheduler.retention_schedule", "0 3 * * *")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")
}

// ReloadFromEnv reloads configuration when PARIS_SPORTIF_CONFIG_PATH points
// to an alternate file
func ReloadFromEnv(cfg *Config) error {
	if envPath := os.Getenv("PARIS_SPORTIF_CONFIG_PATH"); envPath != "" {
		newCfg, err := Load(envPath)
		if err != nil {
			return err
		}
		*cfg = *newCfg
	}
	return nil
}
