package calibration

import (
	"fmt"
	"math"
)

// plattMap is a per-class logistic regression on the raw probability
// (Platt scaling): calibrated = sigmoid(a*p + b), fitted by gradient
// descent on the log loss
type plattMap struct {
	a float64
	b float64
}

const (
	plattIterations   = 2000
	plattLearningRate = 0.1
)

func (m *plattMap) fit(raw []float64, hit []float64) error {
	if len(raw) == 0 || len(raw) != len(hit) {
		return fmt.Errorf("invalid training batch: %d raw, %d hit", len(raw), len(hit))
	}

	// Identity-ish start so a well-calibrated input converges quickly
	a, b := 4.0, -2.0
	n := float64(len(raw))

	for iter := 0; iter < plattIterations; iter++ {
		gradA, gradB := 0.0, 0.0
		for i, p := range raw {
			pred := sigmoid(a*p + b)
			diff := pred - hit[i]
			gradA += diff * p
			gradB += diff
		}
		a -= plattLearningRate * gradA / n
		b -= plattLearningRate * gradB / n
	}

	if math.IsNaN(a) || math.IsNaN(b) {
		return fmt.Errorf("platt fit diverged")
	}
	m.a, m.b = a, b
	return nil
}

func (m *plattMap) apply(p float64) float64 {
	return sigmoid(m.a*p + m.b)
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
