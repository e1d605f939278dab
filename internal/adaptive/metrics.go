package adaptive

import (
	"math"

	"github.com/jdvot/paris-sportif/internal/models"
)

// logLossEpsilon keeps probabilities away from 0/1 so log loss stays finite
const logLossEpsilon = 1e-9

// ModelMetrics is a per-model performance snapshot over the rolling window
type ModelMetrics struct {
	Model       string  `json:"model"`
	SampleCount int     `json:"sample_count"`
	Accuracy    float64 `json:"accuracy"`
	Brier       float64 `json:"brier"`
	LogLoss     float64 `json:"log_loss"`
}

// BrierScore is the mean squared error between the predicted triple and the
// one-hot actual outcome; 0 is perfect
func BrierScore(probs models.Probabilities, actual models.Outcome) float64 {
	oneHot := models.OneHot(actual)
	p := probs.AsSlice()
	o := oneHot.AsSlice()
	total := 0.0
	for i := range p {
		diff := p[i] - o[i]
		total += diff * diff
	}
	return total / 3.0
}

// LogLoss is the negative log probability assigned to the actual outcome,
// clamped away from infinities
func LogLoss(probs models.Probabilities, actual models.Outcome) float64 {
	p := probs.ForOutcome(actual)
	if p < logLossEpsilon {
		p = logLossEpsilon
	}
	if p > 1-logLossEpsilon {
		p = 1 - logLossEpsilon
	}
	return -math.Log(p)
}

// computeModelMetrics aggregates resolved records per model
func computeModelMetrics(records []*models.PredictionRecord) map[string]ModelMetrics {
	type accum struct {
		n       int
		correct int
		brier   float64
		logLoss float64
	}
	byModel := make(map[string]*accum)
	for _, r := range records {
		if !r.IsResolved() {
			continue
		}
		acc, ok := byModel[r.ModelName]
		if !ok {
			acc = &accum{}
			byModel[r.ModelName] = acc
		}
		acc.n++
		if r.Correct() {
			acc.correct++
		}
		acc.brier += BrierScore(r.Probabilities, *r.Actual)
		acc.logLoss += LogLoss(r.Probabilities, *r.Actual)
	}

	out := make(map[string]ModelMetrics, len(byModel))
	for name, acc := range byModel {
		out[name] = ModelMetrics{
			Model:       name,
			SampleCount: acc.n,
			Accuracy:    float64(acc.correct) / float64(acc.n),
			Brier:       acc.brier / float64(acc.n),
			LogLoss:     acc.logLoss / float64(acc.n),
		}
	}
	return out
}

// score converts a metric into "higher is better" for the softmax. Brier
// and log loss are inverted.
func (m ModelMetrics) score(metric Metric) float64 {
	switch metric {
	case MetricBrier:
		return 1.0 - m.Brier
	case MetricLogLoss:
		return 1.0 / (1.0 + m.LogLoss)
	default:
		return m.Accuracy
	}
}
