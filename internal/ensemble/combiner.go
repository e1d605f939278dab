package ensemble

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jdvot/paris-sportif/internal/models"
)

// Params holds the tunable constants of the combiner. The clamp and
// confidence constants are policy, not invariants; they are surfaced in
// configuration.
type Params struct {
	// MaxLogOddsAdjustment bounds the per-side contextual adjustment in
	// logit space
	MaxLogOddsAdjustment float64
	// DrawDamping reduces the draw log-odds proportionally to the
	// home/away adjustment asymmetry
	DrawDamping float64
	// ConfidenceFloor and ConfidenceCeiling clamp the final confidence to
	// a realistic band
	ConfidenceFloor   float64
	ConfidenceCeiling float64
	// MarginSaturation is the probability margin treated as maximal when
	// scoring confidence
	MarginSaturation float64
}

// DefaultParams returns the combiner defaults
func DefaultParams() Params {
	return Params{
		MaxLogOddsAdjustment: 0.375,
		DrawDamping:          0.5,
		ConfidenceFloor:      0.52,
		ConfidenceCeiling:    0.98,
		MarginSaturation:     0.5,
	}
}

// Combiner blends model contributions into a single ensemble prediction
type Combiner struct {
	params Params
	logger *logrus.Entry
}

// NewCombiner creates a combiner. A nil logger disables combiner logging.
func NewCombiner(params Params, logger *logrus.Logger) *Combiner {
	if params.MaxLogOddsAdjustment <= 0 {
		params = DefaultParams()
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.PanicLevel)
	}
	return &Combiner{
		params: params,
		logger: logger.WithField("component", "ensemble"),
	}
}

// Combine merges the available contributions into one prediction. A nil
// adjustment or odds input is a typed "signal absent" state, never an
// error. With zero contributions it fails with ErrNoContributions; with
// exactly one, that model's output passes through aside from
// normalization.
func (c *Combiner) Combine(
	contributions []Contribution,
	adjustment *ContextualAdjustment,
	odds *models.BookmakerOdds,
) (*Prediction, error) {
	if len(contributions) == 0 {
		return nil, ErrNoContributions
	}

	blended := c.blend(contributions)

	adjusted := false
	if adjustment != nil && !adjustment.IsZero() {
		blended = c.applyAdjustment(blended, adjustment.Clamped())
		adjusted = true
	}

	agreement := c.modelAgreement(contributions)
	confidence := c.confidenceScore(blended, agreement)
	recommended, _ := blended.Max()

	pred := &Prediction{
		Probabilities:      blended,
		RecommendedOutcome: recommended,
		Confidence:         confidence,
		Contributions:      contributions,
		ModelAgreement:     agreement,
		Uncertainty:        clamp01(blended.Entropy() / math.Log(3)),
		AdjustmentApplied:  adjusted,
		GeneratedAt:        time.Now().UTC(),
	}

	if odds != nil && odds.IsValid() {
		value := blended.ForOutcome(recommended)*odds.ForOutcome(recommended) - 1
		value = clampRange(value, -1, 1)
		pred.ValueScore = &value
	}

	c.logger.WithFields(logrus.Fields{
		"models":      len(contributions),
		"recommended": recommended,
		"confidence":  confidence,
		"agreement":   agreement,
		"adjusted":    adjusted,
	}).Debug("Ensemble prediction combined")

	return pred, nil
}

// blend combines contribution triples via confidence-weighted softmax. The
// softmax is numerically stabilized by subtracting the max confidence
// before exponentiation. Adaptive weights scale the softmax weights
// multiplicatively.
func (c *Combiner) blend(contributions []Contribution) models.Probabilities {
	if len(contributions) == 1 {
		return contributions[0].Probabilities.Normalized()
	}

	weights := softmaxWeights(contributions)

	var combined models.Probabilities
	for i, contrib := range contributions {
		p := contrib.Probabilities
		combined.Home += weights[i] * p.Home
		combined.Draw += weights[i] * p.Draw
		combined.Away += weights[i] * p.Away
	}
	return combined.Normalized()
}

// softmaxWeights converts confidences (scaled by adaptive weights) into
// normalized blend weights
func softmaxWeights(contributions []Contribution) []float64 {
	maxConf := math.Inf(-1)
	for _, contrib := range contributions {
		if contrib.Confidence > maxConf {
			maxConf = contrib.Confidence
		}
	}

	weights := make([]float64, len(contributions))
	total := 0.0
	for i, contrib := range contributions {
		w := math.Exp(contrib.Confidence - maxConf)
		if contrib.Weight > 0 {
			w *= contrib.Weight
		}
		weights[i] = w
		total += w
	}
	if total <= 0 {
		// Degenerate weights fall back to a uniform split
		uniform := 1.0 / float64(len(contributions))
		for i := range weights {
			weights[i] = uniform
		}
		return weights
	}
	for i := range weights {
		weights[i] /= total
	}
	return weights
}

// applyAdjustment shifts the triple in log-odds space by the bounded
// per-side contextual deltas, damping the draw by the adjustment asymmetry,
// and converts back through the logistic function
func (c *Combiner) applyAdjustment(p models.Probabilities, adj ContextualAdjustment) models.Probabilities {
	homeDelta, awayDelta := adj.sideDeltas()
	maxAdj := c.params.MaxLogOddsAdjustment
	homeDelta = clampRange(homeDelta, -maxAdj, maxAdj)
	awayDelta = clampRange(awayDelta, -maxAdj, maxAdj)

	// A strongly one-sided adjustment makes a draw less likely
	drawDelta := -c.params.DrawDamping * math.Abs(homeDelta-awayDelta)

	adjusted := models.Probabilities{
		Home: sigmoid(logit(p.Home) + homeDelta),
		Draw: sigmoid(logit(p.Draw) + drawDelta),
		Away: sigmoid(logit(p.Away) + awayDelta),
	}
	return adjusted.Normalized()
}

// modelAgreement blends two signals: the entropy of the weighted
// distribution of each model's argmax outcome, and the inverse of the
// weighted variance of the probability vectors across the ensemble. Both
// are normalized to [0,1] and combined 60/40.
func (c *Combiner) modelAgreement(contributions []Contribution) float64 {
	if len(contributions) <= 1 {
		return 1.0
	}
	weights := softmaxWeights(contributions)

	// Weighted distribution over each model's preferred outcome
	var votes models.Probabilities
	for i, contrib := range contributions {
		top, _ := contrib.Probabilities.Max()
		switch top {
		case models.OutcomeHome:
			votes.Home += weights[i]
		case models.OutcomeDraw:
			votes.Draw += weights[i]
		case models.OutcomeAway:
			votes.Away += weights[i]
		}
	}
	voteAgreement := 1.0 - clamp01(votes.Entropy()/math.Log(3))

	// Weighted variance of the probability vectors around their mean
	var mean models.Probabilities
	for i, contrib := range contributions {
		p := contrib.Probabilities
		mean.Home += weights[i] * p.Home
		mean.Draw += weights[i] * p.Draw
		mean.Away += weights[i] * p.Away
	}
	variance := 0.0
	for i, contrib := range contributions {
		p := contrib.Probabilities
		dh := p.Home - mean.Home
		dd := p.Draw - mean.Draw
		da := p.Away - mean.Away
		variance += weights[i] * (dh*dh + dd*dd + da*da) / 3.0
	}
	// 0.25 is the worst plausible per-class variance for a triple
	varAgreement := 1.0 - clamp01(variance/0.25)

	return clamp01(0.6*voteAgreement + 0.4*varAgreement)
}

// confidenceScore combines probability margin, distributional entropy, and
// model agreement with fixed 50/25/25 weights, clamped to the configured
// band
func (c *Combiner) confidenceScore(p models.Probabilities, agreement float64) float64 {
	margin := clamp01(p.Margin() / c.params.MarginSaturation)
	certainty := 1.0 - clamp01(p.Entropy()/math.Log(3))

	score := 0.5*margin + 0.25*certainty + 0.25*agreement
	return clampRange(score, c.params.ConfidenceFloor, c.params.ConfidenceCeiling)
}

func logit(p float64) float64 {
	const eps = 1e-6
	p = clampRange(p, eps, 1-eps)
	return math.Log(p / (1 - p))
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func clamp01(v float64) float64 {
	return clampRange(v, 0, 1)
}
