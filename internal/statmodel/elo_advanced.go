package statmodel

import (
	"github.com/jdvot/paris-sportif/internal/models"
)

const (
	// formWindow is the number of recent results the advanced variant
	// considers per side
	formWindow = 5
	// formMomentumPoints is the rating-point swing per unit of form
	// differential
	formMomentumPoints = 50.0
)

// AdvancedEloModel extends the logistic ELO curve with a short window of
// recent-form results: streaking teams shift the effective rating gap, and
// volatile form widens the curve. The returned confidence reflects how much
// recent-form data was actually available.
type AdvancedEloModel struct {
	base *EloModel
}

// NewAdvancedEloModel creates the recent-form-aware ELO variant
func NewAdvancedEloModel(homeBonus float64) *AdvancedEloModel {
	return &AdvancedEloModel{base: NewEloModel(homeBonus)}
}

// Name returns the model identifier used in contributions and records
func (m *AdvancedEloModel) Name() string { return "elo_advanced" }

// Predict computes 1X2 probabilities from ratings and recent form. Results
// are ordered most recent first; only the last formWindow entries per side
// are used.
func (m *AdvancedEloModel) Predict(
	homeRating, awayRating float64,
	homeForm, awayForm []models.RecentResult,
) (models.Probabilities, float64) {
	homeScore, homeN := formScore(homeForm)
	awayScore, awayN := formScore(awayForm)

	// A form differential nudges the effective rating gap
	momentum := (homeScore - awayScore) * formMomentumPoints
	adjustedHome := homeRating + momentum

	// Less form data per side means a flatter, less opinionated curve
	minN := homeN
	if awayN < minN {
		minN = awayN
	}
	scale := eloScale * (1.0 + 0.5*(1.0-float64(minN)/float64(formWindow)))

	probs := m.base.probabilities(adjustedHome, awayRating, scale)
	confidence := 0.5 + 0.08*float64(minN)
	if confidence > 0.9 {
		confidence = 0.9
	}
	return probs, confidence
}

// formScore summarizes up to formWindow recent results as a score in
// [-1,1] (all losses to all wins) and reports how many results were used
func formScore(results []models.RecentResult) (float64, int) {
	n := len(results)
	if n > formWindow {
		n = formWindow
	}
	if n == 0 {
		return 0, 0
	}
	total := 0.0
	for _, r := range results[:n] {
		switch {
		case r.Won():
			total += 1
		case r.Drew():
			// neutral
		default:
			total -= 1
		}
	}
	return total / float64(n), n
}
