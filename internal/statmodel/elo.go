package statmodel

import (
	"math"

	"github.com/jdvot/paris-sportif/internal/models"
)

const (
	// eloScale is the standard logistic ELO curve divisor
	eloScale = 400.0
	// defaultHomeBonus is the rating bonus applied to the home side
	defaultHomeBonus = 100.0
)

// EloModel predicts outcome probabilities from the rating difference via
// the standard logistic ELO curve with a home-advantage rating bonus
type EloModel struct {
	homeBonus float64
	drawBase  float64
	drawScale float64
}

// NewEloModel creates a basic ELO model
func NewEloModel(homeBonus float64) *EloModel {
	if homeBonus < 0 {
		homeBonus = defaultHomeBonus
	}
	return &EloModel{
		homeBonus: homeBonus,
		drawBase:  0.28,
		drawScale: 600.0,
	}
}

// Name returns the model identifier used in contributions and records
func (m *EloModel) Name() string { return "elo" }

// Predict computes 1X2 probabilities from the two ratings. The returned
// confidence is fixed: the basic variant has no recent-form signal to judge
// its own reliability by.
func (m *EloModel) Predict(homeRating, awayRating float64) (models.Probabilities, float64) {
	probs := m.probabilities(homeRating, awayRating, eloScale)
	return probs, 0.6
}

// probabilities splits the two-way ELO expectation into a three-way triple.
// The draw share is largest for evenly rated sides and decays as the rating
// gap grows.
func (m *EloModel) probabilities(homeRating, awayRating, scale float64) models.Probabilities {
	diff := homeRating + m.homeBonus - awayRating
	expectedHome := 1.0 / (1.0 + math.Pow(10, -diff/scale))

	drawProb := m.drawBase * math.Exp(-math.Abs(diff)/m.drawScale)
	p := models.Probabilities{
		Home: expectedHome * (1 - drawProb),
		Draw: drawProb,
		Away: (1 - expectedHome) * (1 - drawProb),
	}
	return p.Normalized()
}

// ExpectedScore returns the classic two-way ELO expectation for the home
// side, used by the rating tracker when updating after a result
func (m *EloModel) ExpectedScore(homeRating, awayRating float64) float64 {
	diff := homeRating + m.homeBonus - awayRating
	return 1.0 / (1.0 + math.Pow(10, -diff/eloScale))
}
