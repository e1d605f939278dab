package backtest

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jdvot/paris-sportif/internal/calibration"
	"github.com/jdvot/paris-sportif/internal/models"
)

// ScoredPrediction is one out-of-sample prediction with its known outcome
type ScoredPrediction struct {
	MatchID       string               `json:"match_id"`
	KickoffTime   time.Time            `json:"kickoff_time"`
	Probabilities models.Probabilities `json:"probabilities"`
	Predicted     models.Outcome       `json:"predicted"`
	Actual        models.Outcome       `json:"actual"`
	Confidence    float64              `json:"confidence"`
}

// ValueBet is a simulated flat-stake bet placed when the ensemble's top
// probability cleared the value threshold and odds were available
type ValueBet struct {
	MatchID   string         `json:"match_id"`
	Outcome   models.Outcome `json:"outcome"`
	Odds      float64        `json:"odds"`
	Stake     float64        `json:"stake"`
	Won       bool           `json:"won"`
	PnL       float64        `json:"pnl"`
	SettledAt time.Time      `json:"settled_at"`
}

// FoldState accumulates predictions and simulated bets within one fold
type FoldState struct {
	Predictions     []ScoredPrediction
	ValueBets       []ValueBet
	CurrentBankroll float64
	PeakBankroll    float64
	EquityCurve     EquityCurve
}

// NewFoldState initializes fold state with the starting bankroll
func NewFoldState(initialBankroll float64, at time.Time) *FoldState {
	state := &FoldState{
		CurrentBankroll: initialBankroll,
		PeakBankroll:    initialBankroll,
	}
	state.RecordEquityPoint(at, initialBankroll)
	return state
}

// RecordPrediction adds a scored prediction
func (s *FoldState) RecordPrediction(p ScoredPrediction) {
	s.Predictions = append(s.Predictions, p)
}

// RecordBet settles a value bet against the bankroll
func (s *FoldState) RecordBet(bet ValueBet) {
	s.CurrentBankroll += bet.PnL
	if s.CurrentBankroll > s.PeakBankroll {
		s.PeakBankroll = s.CurrentBankroll
	}
	s.ValueBets = append(s.ValueBets, bet)
	s.RecordEquityPoint(bet.SettledAt, s.CurrentBankroll)
}

// RecordEquityPoint adds an equity point to the curve
func (s *FoldState) RecordEquityPoint(t time.Time, value float64) {
	drawdown := 0.0
	if value < s.PeakBankroll && s.PeakBankroll > 0 {
		drawdown = (s.PeakBankroll - value) / s.PeakBankroll
	}
	s.EquityCurve = append(s.EquityCurve, EquityPoint{Time: t, Value: value, Drawdown: drawdown})
}

// CalibrationSamples converts the scored predictions for calibration scoring
func (s *FoldState) CalibrationSamples() []calibration.Sample {
	samples := make([]calibration.Sample, len(s.Predictions))
	for i, p := range s.Predictions {
		samples[i] = calibration.Sample{Probabilities: p.Probabilities, Actual: p.Actual}
	}
	return samples
}

// EquityPoint represents a point in the bankroll curve
type EquityPoint struct {
	Time     time.Time `json:"time"`
	Value    float64   `json:"value"`
	Drawdown float64   `json:"drawdown"`
}

// EquityCurve represents a time-series of equity points
type EquityCurve []EquityPoint

// MaxDrawdown returns the deepest peak-to-trough drawdown on the curve
func (e EquityCurve) MaxDrawdown() float64 {
	maxDD := 0.0
	peak := 0.0
	for _, p := range e {
		if p.Value > peak {
			peak = p.Value
		}
		if peak == 0 {
			continue
		}
		drawdown := (peak - p.Value) / peak
		if drawdown > maxDD {
			maxDD = drawdown
		}
	}
	return maxDD
}

// ToCSV exports the equity curve to a CSV string
func (e EquityCurve) ToCSV() string {
	var buf bytes.Buffer
	buf.WriteString("time,value,drawdown\n")
	for _, point := range e {
		buf.WriteString(point.Time.Format(time.RFC3339))
		buf.WriteString(",")
		buf.WriteString(strconv.FormatFloat(point.Value, 'f', 6, 64))
		buf.WriteString(",")
		buf.WriteString(strconv.FormatFloat(point.Drawdown, 'f', 6, 64))
		buf.WriteString("\n")
	}
	return buf.String()
}

// ToJSON exports the equity curve to a JSON string
func (e EquityCurve) ToJSON() string {
	data, _ := json.Marshal(e)
	return string(data)
}
