package backtest

import (
	"encoding/json"
	"math"
	"time"

	"github.com/jdvot/paris-sportif/internal/calibration"
	"github.com/jdvot/paris-sportif/internal/models"
)

const logLossEpsilon = 1e-9

// OutcomeBreakdown holds per-class prediction counts
type OutcomeBreakdown struct {
	Predicted int     `json:"predicted"`
	Actual    int     `json:"actual"`
	Correct   int     `json:"correct"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
}

// Metrics represents backtest performance metrics for one fold or the
// aggregate run
type Metrics struct {
	Predictions int     `json:"predictions"`
	Correct     int     `json:"correct"`
	Accuracy    float64 `json:"accuracy"`

	Home OutcomeBreakdown `json:"home"`
	Draw OutcomeBreakdown `json:"draw"`
	Away OutcomeBreakdown `json:"away"`

	Brier   float64 `json:"brier"`
	LogLoss float64 `json:"log_loss"`
	RPS     float64 `json:"rps"`
	ECE     float64 `json:"ece"`
	MCE     float64 `json:"mce"`

	ValueBets   int     `json:"value_bets"`
	ValueWins   int     `json:"value_wins"`
	ValuePnL    float64 `json:"value_pnl"`
	ROI         float64 `json:"roi"`
	MaxDrawdown float64 `json:"max_drawdown"`

	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// CalculateMetrics scores a fold's predictions and simulated bets
func CalculateMetrics(state *FoldState, start, end time.Time) Metrics {
	metrics := Metrics{
		StartDate: start,
		EndDate:   end,
	}
	if state == nil || len(state.Predictions) == 0 {
		return metrics
	}

	metrics.Predictions = len(state.Predictions)

	brier, logLoss, rps := 0.0, 0.0, 0.0
	breakdowns := map[models.Outcome]*OutcomeBreakdown{
		models.OutcomeHome: &metrics.Home,
		models.OutcomeDraw: &metrics.Draw,
		models.OutcomeAway: &metrics.Away,
	}

	for _, p := range state.Predictions {
		breakdowns[p.Predicted].Predicted++
		breakdowns[p.Actual].Actual++
		if p.Predicted == p.Actual {
			metrics.Correct++
			breakdowns[p.Actual].Correct++
		}

		oneHot := models.OneHot(p.Actual)
		ps := p.Probabilities.AsSlice()
		os := oneHot.AsSlice()
		for i := range ps {
			diff := ps[i] - os[i]
			brier += diff * diff
		}

		actualProb := p.Probabilities.ForOutcome(p.Actual)
		logLoss -= math.Log(math.Max(actualProb, logLossEpsilon))

		rps += p.Probabilities.CumulativeDistance(oneHot)
	}

	n := float64(metrics.Predictions)
	metrics.Accuracy = float64(metrics.Correct) / n
	metrics.Brier = brier / (3.0 * n)
	metrics.LogLoss = logLoss / n
	metrics.RPS = rps / n

	for _, b := range breakdowns {
		if b.Predicted > 0 {
			b.Precision = float64(b.Correct) / float64(b.Predicted)
		}
		if b.Actual > 0 {
			b.Recall = float64(b.Correct) / float64(b.Actual)
		}
	}

	samples := state.CalibrationSamples()
	probs := make([]models.Probabilities, len(samples))
	for i, s := range samples {
		probs[i] = s.Probabilities
	}
	metrics.ECE, metrics.MCE = calibration.CalibrationError(probs, samples, calibration.DefaultBins)

	metrics.ValueBets = len(state.ValueBets)
	staked := 0.0
	for _, bet := range state.ValueBets {
		if bet.Won {
			metrics.ValueWins++
		}
		metrics.ValuePnL += bet.PnL
		staked += bet.Stake
	}
	if staked > 0 {
		metrics.ROI = metrics.ValuePnL / staked
	}
	metrics.MaxDrawdown = state.EquityCurve.MaxDrawdown()

	return metrics
}

// CombineMetrics aggregates per-fold metrics into run totals, weighting rate
// metrics by prediction count
func CombineMetrics(folds []FoldResult, start, end time.Time) Metrics {
	total := Metrics{StartDate: start, EndDate: end}
	if len(folds) == 0 {
		return total
	}

	staked := 0.0
	weightedBrier, weightedLogLoss, weightedRPS, weightedECE, weightedMCE := 0.0, 0.0, 0.0, 0.0, 0.0
	for _, f := range folds {
		m := f.Metrics
		total.Predictions += m.Predictions
		total.Correct += m.Correct
		n := float64(m.Predictions)
		weightedBrier += m.Brier * n
		weightedLogLoss += m.LogLoss * n
		weightedRPS += m.RPS * n
		weightedECE += m.ECE * n
		weightedMCE += m.MCE * n

		accumulateBreakdown(&total.Home, m.Home)
		accumulateBreakdown(&total.Draw, m.Draw)
		accumulateBreakdown(&total.Away, m.Away)

		total.ValueBets += m.ValueBets
		total.ValueWins += m.ValueWins
		total.ValuePnL += m.ValuePnL
		staked += float64(m.ValueBets)
		if m.MaxDrawdown > total.MaxDrawdown {
			total.MaxDrawdown = m.MaxDrawdown
		}
	}

	if total.Predictions > 0 {
		n := float64(total.Predictions)
		total.Accuracy = float64(total.Correct) / n
		total.Brier = weightedBrier / n
		total.LogLoss = weightedLogLoss / n
		total.RPS = weightedRPS / n
		total.ECE = weightedECE / n
		total.MCE = weightedMCE / n
	}

	finishBreakdown(&total.Home)
	finishBreakdown(&total.Draw)
	finishBreakdown(&total.Away)

	// Flat staking, so ROI weights each fold by its bet count
	totalStaked := 0.0
	for _, f := range folds {
		for _, bet := range f.Bets {
			totalStaked += bet.Stake
		}
	}
	if totalStaked > 0 {
		total.ROI = total.ValuePnL / totalStaked
	}

	return total
}

func accumulateBreakdown(dst *OutcomeBreakdown, src OutcomeBreakdown) {
	dst.Predicted += src.Predicted
	dst.Actual += src.Actual
	dst.Correct += src.Correct
}

func finishBreakdown(b *OutcomeBreakdown) {
	if b.Predicted > 0 {
		b.Precision = float64(b.Correct) / float64(b.Predicted)
	}
	if b.Actual > 0 {
		b.Recall = float64(b.Correct) / float64(b.Actual)
	}
}

// ToJSON exports metrics to JSON
func (m Metrics) ToJSON() string {
	data, _ := json.Marshal(m)
	return string(data)
}
