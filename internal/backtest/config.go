// Package backtest replays historical matches through the full prediction
// pipeline in walk-forward folds, retraining on each training window and
// scoring only out-of-sample predictions.
package backtest

import (
	"fmt"
	"time"

	"github.com/jdvot/paris-sportif/internal/config"
)

// BacktestConfig extends core config with backtest-specific settings
type BacktestConfig struct {
	StartDate        time.Time
	EndDate          time.Time
	TrainWindowDays  int
	TestWindowDays   int
	ValueThreshold   float64
	InitialBankroll  float64
	StakePerBet      float64
	OutputPath       string
	CalibrateInFolds bool
}

// FromConfig converts app config to backtest config
func FromConfig(cfg *config.BacktestConfig) (BacktestConfig, error) {
	if cfg == nil {
		return BacktestConfig{}, fmt.Errorf("backtest config is required")
	}
	start, err := time.Parse("2006-01-02", cfg.StartDate)
	if err != nil {
		return BacktestConfig{}, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", cfg.EndDate)
	if err != nil {
		return BacktestConfig{}, fmt.Errorf("invalid end date: %w", err)
	}

	bt := BacktestConfig{
		StartDate:        start,
		EndDate:          end,
		TrainWindowDays:  cfg.TrainWindowDays,
		TestWindowDays:   cfg.TestWindowDays,
		ValueThreshold:   cfg.ValueThreshold,
		InitialBankroll:  cfg.InitialBankroll,
		StakePerBet:      cfg.StakePerBet,
		OutputPath:       cfg.OutputPath,
		CalibrateInFolds: cfg.CalibrateInFolds,
	}

	return bt, bt.Validate()
}

// Validate validates backtest config parameters
func (b BacktestConfig) Validate() error {
	if b.StartDate.After(b.EndDate) {
		return fmt.Errorf("start date must be before end date")
	}
	if b.TrainWindowDays <= 0 {
		return fmt.Errorf("train window must be positive")
	}
	if b.TestWindowDays <= 0 {
		return fmt.Errorf("test window must be positive")
	}
	if b.ValueThreshold <= 1.0/3.0 || b.ValueThreshold >= 1 {
		return fmt.Errorf("value threshold must be above the uniform baseline and below 1")
	}
	if b.InitialBankroll <= 0 {
		return fmt.Errorf("initial bankroll must be positive")
	}
	if b.StakePerBet <= 0 || b.StakePerBet > b.InitialBankroll {
		return fmt.Errorf("stake per bet must be positive and at most the initial bankroll")
	}
	return nil
}
