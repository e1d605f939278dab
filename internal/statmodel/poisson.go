// Package statmodel implements the pure statistical base models of the
// prediction ensemble: Poisson and Dixon-Coles goal models and two ELO
// variants. All models are side-effect-free functions from team statistics
// to an outcome probability triple.
package statmodel

import (
	"math"

	"github.com/jdvot/paris-sportif/internal/models"
)

const (
	// maxGoals bounds the truncated joint scoring matrix per side
	maxGoals = 10
	// leagueAvgGoals anchors the attack/defense strength normalization
	leagueAvgGoals = 1.35
)

// PoissonModel predicts outcome probabilities from independent Poisson goal
// distributions for each side
type PoissonModel struct {
	homeAdvantage float64
}

// NewPoissonModel creates a Poisson model with the given home-advantage
// goal multiplier (1.0 disables it)
func NewPoissonModel(homeAdvantage float64) *PoissonModel {
	if homeAdvantage <= 0 {
		homeAdvantage = 1.15
	}
	return &PoissonModel{homeAdvantage: homeAdvantage}
}

// Name returns the model identifier used in contributions and records
func (m *PoissonModel) Name() string { return "poisson" }

// Predict computes 1X2 probabilities from team scoring averages. Expected
// goals for a side are its attack strength times the opponent's defensive
// weakness, both relative to the league average.
func (m *PoissonModel) Predict(home, away models.TeamStats) (models.Probabilities, error) {
	if home.MatchesPlayed == 0 || away.MatchesPlayed == 0 {
		return models.Probabilities{}, models.ErrInsufficientData
	}
	lambdaHome, lambdaAway := expectedGoals(home, away, m.homeAdvantage)
	matrix := scoreMatrix(lambdaHome, lambdaAway, nil)
	return matrix.outcomeProbabilities(), nil
}

// expectedGoals derives each side's goal expectation from attack strength
// and opposing defensive weakness
func expectedGoals(home, away models.TeamStats, homeAdvantage float64) (float64, float64) {
	homeAttack := home.AvgGoalsScored / leagueAvgGoals
	awayAttack := away.AvgGoalsScored / leagueAvgGoals
	homeDefWeakness := home.AvgGoalsConceded / leagueAvgGoals
	awayDefWeakness := away.AvgGoalsConceded / leagueAvgGoals

	lambdaHome := homeAttack * awayDefWeakness * leagueAvgGoals * homeAdvantage
	lambdaAway := awayAttack * homeDefWeakness * leagueAvgGoals
	return clampLambda(lambdaHome), clampLambda(lambdaAway)
}

func clampLambda(l float64) float64 {
	if math.IsNaN(l) || l < 0.1 {
		return 0.1
	}
	if l > 6.0 {
		return 6.0
	}
	return l
}

// poissonPMF returns P(X = k) for X ~ Poisson(lambda)
func poissonPMF(lambda float64, k int) float64 {
	logP := float64(k)*math.Log(lambda) - lambda - logFactorial(k)
	return math.Exp(logP)
}

func logFactorial(k int) float64 {
	lf := 0.0
	for i := 2; i <= k; i++ {
		lf += math.Log(float64(i))
	}
	return lf
}

// jointScoreMatrix is the truncated joint scoring-probability matrix over
// 0..maxGoals goals per side
type jointScoreMatrix [maxGoals + 1][maxGoals + 1]float64

// scoreMatrix fills the joint matrix from two Poisson marginals, applying
// an optional per-cell reweighting and renormalizing so the truncated mass
// sums to 1
func scoreMatrix(lambdaHome, lambdaAway float64, reweight func(h, a int) float64) *jointScoreMatrix {
	var m jointScoreMatrix
	total := 0.0
	for h := 0; h <= maxGoals; h++ {
		ph := poissonPMF(lambdaHome, h)
		for a := 0; a <= maxGoals; a++ {
			p := ph * poissonPMF(lambdaAway, a)
			if reweight != nil {
				p *= reweight(h, a)
			}
			if p < 0 {
				p = 0
			}
			m[h][a] = p
			total += p
		}
	}
	if total > 0 {
		for h := 0; h <= maxGoals; h++ {
			for a := 0; a <= maxGoals; a++ {
				m[h][a] /= total
			}
		}
	}
	return &m
}

// outcomeProbabilities sums the matrix over the home-win, draw, and
// away-win regions
func (m *jointScoreMatrix) outcomeProbabilities() models.Probabilities {
	var p models.Probabilities
	for h := 0; h <= maxGoals; h++ {
		for a := 0; a <= maxGoals; a++ {
			switch {
			case h > a:
				p.Home += m[h][a]
			case h == a:
				p.Draw += m[h][a]
			default:
				p.Away += m[h][a]
			}
		}
	}
	return p.Normalized()
}
