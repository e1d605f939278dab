package backtest

import (
	"testing"
	"time"
)

func testConfig(start, end string) BacktestConfig {
	s, _ := time.Parse("2006-01-02", start)
	e, _ := time.Parse("2006-01-02", end)
	return BacktestConfig{
		StartDate:       s,
		EndDate:         e,
		TrainWindowDays: 365,
		TestWindowDays:  30,
		ValueThreshold:  0.55,
		InitialBankroll: 1000,
		StakePerBet:     10,
		OutputPath:      "out",
	}
}

func TestGenerateFoldsChronology(t *testing.T) {
	folds, err := GenerateFolds(testConfig("2023-01-01", "2024-12-31"))
	if err != nil {
		t.Fatalf("expected folds, got error: %v", err)
	}
	if len(folds) == 0 {
		t.Fatal("expected at least one fold")
	}

	for _, f := range folds {
		if !f.Chronological() {
			t.Errorf("fold %d violates chronology: train %v-%v test %v-%v",
				f.Index, f.TrainStart, f.TrainEnd, f.TestStart, f.TestEnd)
		}
		if f.TrainEnd.Sub(f.TrainStart) != 365*24*time.Hour {
			t.Errorf("fold %d train window is %v, want 365 days", f.Index, f.TrainEnd.Sub(f.TrainStart))
		}
	}
}

func TestGenerateFoldsNoTestOverlap(t *testing.T) {
	folds, err := GenerateFolds(testConfig("2023-01-01", "2024-12-31"))
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i < len(folds); i++ {
		prev, curr := folds[i-1], folds[i]
		if curr.TestStart.Before(prev.TestEnd) {
			t.Errorf("fold %d test window overlaps fold %d", curr.Index, prev.Index)
		}
	}
}

func TestGenerateFoldsTrainingAlwaysPrecedesTesting(t *testing.T) {
	folds, err := GenerateFolds(testConfig("2023-01-01", "2025-06-30"))
	if err != nil {
		t.Fatal(err)
	}

	for _, f := range folds {
		if f.TrainEnd.After(f.TestStart) {
			t.Errorf("fold %d training data extends past test start", f.Index)
		}
	}
}

func TestGenerateFoldsRangeTooSmall(t *testing.T) {
	// one year of data leaves no room for a test window after 365 training days
	_, err := GenerateFolds(testConfig("2023-01-01", "2023-12-31"))
	if err == nil {
		t.Fatal("expected error for range without room for a test window")
	}
}

func TestGenerateFoldsFinalFoldClamped(t *testing.T) {
	// 365 + 45 days: second test window should be clamped to the end date
	folds, err := GenerateFolds(testConfig("2023-01-01", "2024-02-15"))
	if err != nil {
		t.Fatal(err)
	}

	last := folds[len(folds)-1]
	end, _ := time.Parse("2006-01-02", "2024-02-15")
	if last.TestEnd.After(end) {
		t.Errorf("final fold test end %v extends past range end %v", last.TestEnd, end)
	}
}

func TestCalculateConsistency(t *testing.T) {
	folds := []FoldResult{
		{Metrics: Metrics{Accuracy: 0.50}},
		{Metrics: Metrics{Accuracy: 0.20}},
		{Metrics: Metrics{Accuracy: 0.45}},
		{Metrics: Metrics{Accuracy: 0.30}},
	}

	got := CalculateConsistency(folds)
	if got != 0.5 {
		t.Errorf("expected consistency 0.5, got %f", got)
	}

	if CalculateConsistency(nil) != 0 {
		t.Error("expected zero consistency for no folds")
	}
}
