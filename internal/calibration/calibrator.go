// Package calibration fits per-outcome maps from raw ensemble probabilities
// to calibrated ones, using either Platt scaling or isotonic regression,
// and reports calibration quality.
package calibration

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/jdvot/paris-sportif/internal/models"
)

// Method selects the calibration strategy at construction
type Method string

const (
	MethodPlatt    Method = "platt"
	MethodIsotonic Method = "isotonic"
)

const (
	// RecommendedMinSamples is the sample count below which a fit is
	// accepted but flagged as potentially unreliable
	RecommendedMinSamples = 50
	// clipLo and clipHi bound calibrated class probabilities before
	// renormalization
	clipLo = 0.01
	clipHi = 0.99
)

// Sample is one (predicted triple, actual outcome) training pair
type Sample struct {
	Probabilities models.Probabilities `json:"probabilities"`
	Actual        models.Outcome       `json:"actual"`
}

// classMap is a fitted monotonic map for a single outcome class
type classMap interface {
	fit(raw []float64, hit []float64) error
	apply(p float64) float64
}

// Calibrator applies per-class calibration maps to raw probability triples.
// A calibrator is immutable once fitted; Fit replaces all three maps
// wholesale.
type Calibrator struct {
	method Method
	maps   [3]classMap
	fitted bool
	logger *logrus.Entry
}

// New creates an unfitted calibrator for the given method
func New(method Method, logger *logrus.Logger) (*Calibrator, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.PanicLevel)
	}
	c := &Calibrator{
		method: method,
		logger: logger.WithField("component", "calibration"),
	}
	switch method {
	case MethodPlatt, MethodIsotonic:
	default:
		return nil, fmt.Errorf("unknown calibration method: %q", method)
	}
	return c, nil
}

// Fitted reports whether Fit has completed successfully
func (c *Calibrator) Fitted() bool { return c.fitted }

// Method returns the strategy this calibrator was constructed with
func (c *Calibrator) Method() Method { return c.method }

// Fit fits the three per-class maps from a batch of samples. Batches below
// the recommended size are accepted but logged as potentially unreliable.
func (c *Calibrator) Fit(samples []Sample) error {
	if len(samples) == 0 {
		return fmt.Errorf("calibration requires at least one sample")
	}
	if len(samples) < RecommendedMinSamples {
		c.logger.WithFields(logrus.Fields{
			"samples":     len(samples),
			"recommended": RecommendedMinSamples,
		}).Warn("Fitting calibration on a small batch; result may be unreliable")
	}

	var maps [3]classMap
	for class := 0; class < 3; class++ {
		raw := make([]float64, len(samples))
		hit := make([]float64, len(samples))
		for i, s := range samples {
			raw[i] = s.Probabilities.AsSlice()[class]
			if s.Actual.Index() == class {
				hit[i] = 1
			}
		}

		var m classMap
		if c.method == MethodPlatt {
			m = &plattMap{}
		} else {
			m = &isotonicMap{}
		}
		if err := m.fit(raw, hit); err != nil {
			return fmt.Errorf("failed to fit class %d: %w", class, err)
		}
		maps[class] = m
	}

	c.maps = maps
	c.fitted = true
	c.logger.WithFields(logrus.Fields{
		"method":  c.method,
		"samples": len(samples),
	}).Info("Calibration maps fitted")
	return nil
}

// Calibrate passes each class probability through its fitted map, clips to
// the valid band, and renormalizes. Before fitting it returns the input
// unchanged with calibrated=false.
func (c *Calibrator) Calibrate(p models.Probabilities) (models.Probabilities, bool) {
	if !c.fitted {
		return p, false
	}
	out := models.Probabilities{
		Home: c.maps[0].apply(p.Home),
		Draw: c.maps[1].apply(p.Draw),
		Away: c.maps[2].apply(p.Away),
	}
	out = out.Clipped(clipLo, clipHi).Normalized()
	return out, true
}
