package statmodel

import (
	"github.com/jdvot/paris-sportif/internal/models"
)

// DixonColesModel is a Poisson goal model with the Dixon-Coles low-score
// correction, which reweights the 0-0, 1-0, 0-1, and 1-1 cells to counter
// the independence assumption's known bias against low-scoring draws
type DixonColesModel struct {
	homeAdvantage float64
	rho           float64
}

// NewDixonColesModel creates a Dixon-Coles model. rho is the low-score
// correlation parameter; small negative values are typical.
func NewDixonColesModel(homeAdvantage, rho float64) *DixonColesModel {
	if homeAdvantage <= 0 {
		homeAdvantage = 1.15
	}
	if rho < -0.3 || rho > 0.3 {
		rho = -0.1
	}
	return &DixonColesModel{homeAdvantage: homeAdvantage, rho: rho}
}

// Name returns the model identifier used in contributions and records
func (m *DixonColesModel) Name() string { return "dixon_coles" }

// Predict computes 1X2 probabilities from team scoring averages with the
// low-score correction applied
func (m *DixonColesModel) Predict(home, away models.TeamStats) (models.Probabilities, error) {
	if home.MatchesPlayed == 0 || away.MatchesPlayed == 0 {
		return models.Probabilities{}, models.ErrInsufficientData
	}
	lambdaHome, lambdaAway := expectedGoals(home, away, m.homeAdvantage)
	return m.predictFromLambdas(lambdaHome, lambdaAway), nil
}

// PredictFromExpectedGoals is the alternate entry point driven directly by
// expected-goal statistics instead of raw goal history
func (m *DixonColesModel) PredictFromExpectedGoals(xg models.ExpectedGoals) (models.Probabilities, error) {
	if xg.Home <= 0 || xg.Away <= 0 {
		return models.Probabilities{}, models.ErrInsufficientData
	}
	return m.predictFromLambdas(clampLambda(xg.Home), clampLambda(xg.Away)), nil
}

func (m *DixonColesModel) predictFromLambdas(lambdaHome, lambdaAway float64) models.Probabilities {
	matrix := scoreMatrix(lambdaHome, lambdaAway, func(h, a int) float64 {
		return dixonColesTau(h, a, lambdaHome, lambdaAway, m.rho)
	})
	return matrix.outcomeProbabilities()
}

// dixonColesTau is the standard low-score correction factor. Cells outside
// {0,1}x{0,1} are unchanged.
func dixonColesTau(h, a int, lambdaHome, lambdaAway, rho float64) float64 {
	switch {
	case h == 0 && a == 0:
		return 1 - lambdaHome*lambdaAway*rho
	case h == 1 && a == 0:
		return 1 + lambdaAway*rho
	case h == 0 && a == 1:
		return 1 + lambdaHome*rho
	case h == 1 && a == 1:
		return 1 - rho
	default:
		return 1
	}
}
