package models

import (
	"fmt"
	"math"
)

// Outcome represents one of the three possible results of a match
type Outcome string

const (
	OutcomeHome Outcome = "home"
	OutcomeDraw Outcome = "draw"
	OutcomeAway Outcome = "away"
)

// Outcomes lists the three outcomes in canonical order (home, draw, away)
var Outcomes = [3]Outcome{OutcomeHome, OutcomeDraw, OutcomeAway}

// Index returns the canonical index of the outcome (home=0, draw=1, away=2)
func (o Outcome) Index() int {
	switch o {
	case OutcomeHome:
		return 0
	case OutcomeDraw:
		return 1
	case OutcomeAway:
		return 2
	}
	return -1
}

// IsValid checks whether the outcome is one of the three known values
func (o Outcome) IsValid() bool {
	return o.Index() >= 0
}

// OutcomeFromIndex converts a canonical index back to an Outcome
func OutcomeFromIndex(i int) (Outcome, error) {
	if i < 0 || i > 2 {
		return "", fmt.Errorf("outcome index out of range: %d", i)
	}
	return Outcomes[i], nil
}

// OutcomeFromGoals derives the outcome from a final score
func OutcomeFromGoals(homeGoals, awayGoals int) Outcome {
	switch {
	case homeGoals > awayGoals:
		return OutcomeHome
	case homeGoals < awayGoals:
		return OutcomeAway
	default:
		return OutcomeDraw
	}
}

// Probabilities is an outcome probability triple in canonical order
type Probabilities struct {
	Home float64 `json:"home"`
	Draw float64 `json:"draw"`
	Away float64 `json:"away"`
}

// UniformProbabilities is the defined fallback when normalization degenerates
func UniformProbabilities() Probabilities {
	return Probabilities{Home: 0.33, Draw: 0.34, Away: 0.33}
}

// Sum returns the total probability mass
func (p Probabilities) Sum() float64 {
	return p.Home + p.Draw + p.Away
}

// Normalized rescales the triple to sum to 1, falling back to a uniform
// triple when the mass is zero or not finite
func (p Probabilities) Normalized() Probabilities {
	sum := p.Sum()
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return UniformProbabilities()
	}
	return Probabilities{Home: p.Home / sum, Draw: p.Draw / sum, Away: p.Away / sum}
}

// Clipped bounds each class probability to [lo, hi]
func (p Probabilities) Clipped(lo, hi float64) Probabilities {
	clip := func(v float64) float64 {
		if math.IsNaN(v) || v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	return Probabilities{Home: clip(p.Home), Draw: clip(p.Draw), Away: clip(p.Away)}
}

// AsSlice returns the triple in canonical order
func (p Probabilities) AsSlice() [3]float64 {
	return [3]float64{p.Home, p.Draw, p.Away}
}

// ForOutcome returns the probability assigned to a given outcome
func (p Probabilities) ForOutcome(o Outcome) float64 {
	switch o {
	case OutcomeHome:
		return p.Home
	case OutcomeDraw:
		return p.Draw
	case OutcomeAway:
		return p.Away
	}
	return 0
}

// Max returns the most likely outcome and its probability
func (p Probabilities) Max() (Outcome, float64) {
	best := OutcomeHome
	bestP := p.Home
	if p.Draw > bestP {
		best, bestP = OutcomeDraw, p.Draw
	}
	if p.Away > bestP {
		best, bestP = OutcomeAway, p.Away
	}
	return best, bestP
}

// Margin returns the gap between the top probability and the runner-up
func (p Probabilities) Margin() float64 {
	s := p.AsSlice()
	top, second := 0.0, 0.0
	for _, v := range s {
		if v > top {
			second = top
			top = v
		} else if v > second {
			second = v
		}
	}
	return top - second
}

// Entropy returns the Shannon entropy of the triple in nats
func (p Probabilities) Entropy() float64 {
	entropy := 0.0
	for _, v := range p.AsSlice() {
		if v > 0 {
			entropy -= v * math.Log(v)
		}
	}
	return entropy
}

// OneHot returns a degenerate triple with all mass on the given outcome
func OneHot(o Outcome) Probabilities {
	p := Probabilities{}
	switch o {
	case OutcomeHome:
		p.Home = 1
	case OutcomeDraw:
		p.Draw = 1
	case OutcomeAway:
		p.Away = 1
	}
	return p
}

// CumulativeDistance returns the squared distance between the cumulative
// probability vectors of p and q, the building block of the ranked
// probability score for ordinal outcomes
func (p Probabilities) CumulativeDistance(q Probabilities) float64 {
	ps := p.AsSlice()
	qs := q.AsSlice()
	cumP, cumQ, total := 0.0, 0.0, 0.0
	for i := 0; i < 2; i++ {
		cumP += ps[i]
		cumQ += qs[i]
		diff := cumP - cumQ
		total += diff * diff
	}
	return total / 2.0
}
