package backtest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GenerateConsoleReport formats a run result for terminal output
func GenerateConsoleReport(result *Result) string {
	var builder strings.Builder
	builder.WriteString("Walk-Forward Backtest Report\n")
	builder.WriteString("============================\n")
	builder.WriteString(fmt.Sprintf("Folds: %d (%d skipped)\n", len(result.Folds), countSkipped(result.Folds)))
	builder.WriteString(fmt.Sprintf("Predictions: %d\n", result.Summary.Predictions))
	builder.WriteString(fmt.Sprintf("Accuracy: %.2f%% (uniform baseline 33.33%%)\n", result.Summary.Accuracy*100))
	builder.WriteString(fmt.Sprintf("Brier Score: %.4f\n", result.Summary.Brier))
	builder.WriteString(fmt.Sprintf("Log Loss: %.4f\n", result.Summary.LogLoss))
	builder.WriteString(fmt.Sprintf("RPS: %.4f\n", result.Summary.RPS))
	builder.WriteString(fmt.Sprintf("ECE: %.4f  MCE: %.4f\n", result.Summary.ECE, result.Summary.MCE))
	builder.WriteString(fmt.Sprintf("Fold Consistency: %.2f%%\n", result.Consistency*100))
	builder.WriteString(fmt.Sprintf("Value Bets: %d (won %d)\n", result.Summary.ValueBets, result.Summary.ValueWins))
	builder.WriteString(fmt.Sprintf("Value PnL: %.2f  ROI: %.2f%%\n", result.Summary.ValuePnL, result.Summary.ROI*100))
	builder.WriteString(fmt.Sprintf("Max Drawdown: %.2f%%\n", result.Summary.MaxDrawdown*100))
	return builder.String()
}

// WriteJSONReport writes the full result to a JSON file
func WriteJSONReport(result *Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backtest result: %w", err)
	}
	return os.WriteFile(outputPath, data, 0o644)
}

// WriteCSVReport exports per-fold metrics for spreadsheets
func WriteCSVReport(result *Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}

	var builder strings.Builder
	builder.WriteString("fold,test_start,test_end,predictions,accuracy,brier,log_loss,rps,ece,value_bets,value_pnl,roi\n")
	for _, f := range result.Folds {
		if f.Skipped {
			continue
		}
		m := f.Metrics
		builder.WriteString(fmt.Sprintf("%d,%s,%s,%d,%.4f,%.4f,%.4f,%.4f,%.4f,%d,%.2f,%.4f\n",
			f.Fold.Index,
			f.Fold.TestStart.Format("2006-01-02"),
			f.Fold.TestEnd.Format("2006-01-02"),
			m.Predictions, m.Accuracy, m.Brier, m.LogLoss, m.RPS, m.ECE,
			m.ValueBets, m.ValuePnL, m.ROI,
		))
	}
	return os.WriteFile(outputPath, []byte(builder.String()), 0o644)
}

func countSkipped(folds []FoldResult) int {
	skipped := 0
	for _, f := range folds {
		if f.Skipped {
			skipped++
		}
	}
	return skipped
}
