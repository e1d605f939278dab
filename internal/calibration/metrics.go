package calibration

import (
	"math"

	"github.com/jdvot/paris-sportif/internal/models"
)

// DefaultBins is the default bin count for calibration error metrics
const DefaultBins = 10

// Report summarizes calibration quality on a batch
type Report struct {
	Samples int     `json:"samples"`
	Brier   float64 `json:"brier"`
	ECE     float64 `json:"ece"`
	MCE     float64 `json:"mce"`
}

// Evaluate scores a batch of samples, optionally passing them through a
// fitted calibrator first (nil evaluates the raw probabilities)
func Evaluate(samples []Sample, calibrator *Calibrator) Report {
	if len(samples) == 0 {
		return Report{}
	}

	probs := make([]models.Probabilities, len(samples))
	for i, s := range samples {
		p := s.Probabilities
		if calibrator != nil {
			p, _ = calibrator.Calibrate(p)
		}
		probs[i] = p
	}

	brier := 0.0
	for i, s := range samples {
		brier += brierScore(probs[i], s.Actual)
	}
	brier /= float64(len(samples))

	ece, mce := CalibrationError(probs, samples, DefaultBins)
	return Report{
		Samples: len(samples),
		Brier:   brier,
		ECE:     ece,
		MCE:     mce,
	}
}

// CalibrationError computes Expected and Maximum Calibration Error over the
// top-probability predictions: predictions are binned by confidence, and
// each bin contributes the absolute gap between its mean confidence and its
// observed accuracy, weighted by bin occupancy for the ECE
func CalibrationError(probs []models.Probabilities, samples []Sample, bins int) (float64, float64) {
	if bins <= 0 {
		bins = DefaultBins
	}
	if len(probs) == 0 || len(probs) != len(samples) {
		return 0, 0
	}

	type bin struct {
		confidence float64
		hits       float64
		n          int
	}
	binned := make([]bin, bins)
	for i, p := range probs {
		top, conf := p.Max()
		idx := int(conf * float64(bins))
		if idx >= bins {
			idx = bins - 1
		}
		binned[idx].confidence += conf
		binned[idx].n++
		if samples[i].Actual == top {
			binned[idx].hits++
		}
	}

	ece, mce := 0.0, 0.0
	total := float64(len(probs))
	for _, b := range binned {
		if b.n == 0 {
			continue
		}
		gap := math.Abs(b.confidence/float64(b.n) - b.hits/float64(b.n))
		ece += gap * float64(b.n) / total
		if gap > mce {
			mce = gap
		}
	}
	return ece, mce
}

func brierScore(p models.Probabilities, actual models.Outcome) float64 {
	oneHot := models.OneHot(actual)
	ps := p.AsSlice()
	os := oneHot.AsSlice()
	total := 0.0
	for i := range ps {
		diff := ps[i] - os[i]
		total += diff * diff
	}
	return total / 3.0
}
