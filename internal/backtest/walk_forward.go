package backtest

import (
	"fmt"
	"time"
)

// Fold is one walk-forward window: the pipeline trains on [TrainStart,
// TrainEnd) and is scored on [TestStart, TestEnd). TrainEnd == TestStart, so
// no test match is ever visible during training.
type Fold struct {
	Index      int       `json:"index"`
	TrainStart time.Time `json:"train_start"`
	TrainEnd   time.Time `json:"train_end"`
	TestStart  time.Time `json:"test_start"`
	TestEnd    time.Time `json:"test_end"`
}

// GenerateFolds slices [start, end) into rolling walk-forward folds. The
// train window precedes each test window and folds advance by one test
// window, so every match is tested at most once.
func GenerateFolds(cfg BacktestConfig) ([]Fold, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var folds []Fold
	index := 0
	for trainStart := cfg.StartDate; ; trainStart = trainStart.AddDate(0, 0, cfg.TestWindowDays) {
		trainEnd := trainStart.AddDate(0, 0, cfg.TrainWindowDays)
		testStart := trainEnd
		testEnd := testStart.AddDate(0, 0, cfg.TestWindowDays)

		if !testStart.Before(cfg.EndDate) {
			break
		}
		if testEnd.After(cfg.EndDate) {
			testEnd = cfg.EndDate
		}

		index++
		folds = append(folds, Fold{
			Index:      index,
			TrainStart: trainStart,
			TrainEnd:   trainEnd,
			TestStart:  testStart,
			TestEnd:    testEnd,
		})
	}

	if len(folds) == 0 {
		return nil, fmt.Errorf("date range %s to %s leaves no room for a test window after %d training days",
			cfg.StartDate.Format("2006-01-02"), cfg.EndDate.Format("2006-01-02"), cfg.TrainWindowDays)
	}

	return folds, nil
}

// Chronological verifies the fold's internal ordering invariant
func (f Fold) Chronological() bool {
	return f.TrainStart.Before(f.TrainEnd) &&
		!f.TrainEnd.After(f.TestStart) &&
		f.TestStart.Before(f.TestEnd)
}

// CalculateConsistency returns the fraction of folds whose out-of-sample
// accuracy beats the uniform three-way baseline
func CalculateConsistency(folds []FoldResult) float64 {
	if len(folds) == 0 {
		return 0
	}
	beating := 0
	for _, f := range folds {
		if f.Metrics.Accuracy > 1.0/3.0 {
			beating++
		}
	}
	return float64(beating) / float64(len(folds))
}
