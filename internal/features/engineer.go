// Package features normalizes raw team statistics into the bounded feature
// vector consumed by the base models and the trained classifier.
package features

import (
	"math"

	"github.com/jdvot/paris-sportif/internal/models"
)

const (
	// FeatureCount is the length of the extended feature vector
	FeatureCount = 19
	// LegacyFeatureCount is the length of the base-field-only vector used
	// by classifiers trained on the original schema
	LegacyFeatureCount = 7
)

// Params holds the tunable constants of the feature engineer
type Params struct {
	// MinGoalsPerMatch and MaxGoalsPerMatch are the domain bounds that
	// attack/defense averages are linearly rescaled from
	MinGoalsPerMatch float64
	MaxGoalsPerMatch float64
	// FormDecayRate weights recent results: match i back gets decay^i
	FormDecayRate float64
	// FormGoalDiffBonus is the per-goal form bonus, capped at
	// FormGoalDiffCap per match
	FormGoalDiffBonus float64
	FormGoalDiffCap   float64
	// H2HRecencyNudge is added (subtracted) when the most recent meeting
	// was a win (loss)
	H2HRecencyNudge float64
	// CongestionWindowMatches is the match count at which the congestion
	// score bottoms out
	CongestionWindowMatches int
}

// DefaultParams returns the engineer defaults
func DefaultParams() Params {
	return Params{
		MinGoalsPerMatch:        0.3,
		MaxGoalsPerMatch:        3.5,
		FormDecayRate:           0.85,
		FormGoalDiffBonus:       0.05,
		FormGoalDiffCap:         0.2,
		H2HRecencyNudge:         0.1,
		CongestionWindowMatches: 5,
	}
}

// FeatureVector is the normalized input shape shared by all models. Base and
// fatigue fields are clamped to [0,1] before interaction derivation; the
// interaction fields are pure functions of the base fields and are never set
// independently.
type FeatureVector struct {
	// Base fields
	HomeAttack   float64 `json:"home_attack"`
	HomeDefense  float64 `json:"home_defense"`
	AwayAttack   float64 `json:"away_attack"`
	AwayDefense  float64 `json:"away_defense"`
	HomeForm     float64 `json:"home_form"`
	AwayForm     float64 `json:"away_form"`
	H2HAdvantage float64 `json:"h2h_advantage"`

	// Fatigue fields
	HomeRestScore  float64 `json:"home_rest_score"`
	AwayRestScore  float64 `json:"away_rest_score"`
	HomeCongestion float64 `json:"home_congestion"`
	AwayCongestion float64 `json:"away_congestion"`

	// Interaction fields, derived from the above
	HomeAttackVsAwayDefense float64 `json:"home_attack_vs_away_defense"`
	AwayAttackVsHomeDefense float64 `json:"away_attack_vs_home_defense"`
	HomeStrengthRatio       float64 `json:"home_strength_ratio"`
	AwayStrengthRatio       float64 `json:"away_strength_ratio"`
	FormDifferential        float64 `json:"form_differential"`
	CombinedHomeStrength    float64 `json:"combined_home_strength"`
	CombinedAwayStrength    float64 `json:"combined_away_strength"`
	FatigueAdvantage        float64 `json:"fatigue_advantage"`
}

// AsSlice returns the full 19-feature vector in schema order
func (f FeatureVector) AsSlice() []float64 {
	return []float64{
		f.HomeAttack, f.HomeDefense, f.AwayAttack, f.AwayDefense,
		f.HomeForm, f.AwayForm, f.H2HAdvantage,
		f.HomeRestScore, f.AwayRestScore, f.HomeCongestion, f.AwayCongestion,
		f.HomeAttackVsAwayDefense, f.AwayAttackVsHomeDefense,
		f.HomeStrengthRatio, f.AwayStrengthRatio,
		f.FormDifferential, f.CombinedHomeStrength, f.CombinedAwayStrength,
		f.FatigueAdvantage,
	}
}

// LegacySlice returns only the 7 base fields, the schema older classifier
// versions were trained on
func (f FeatureVector) LegacySlice() []float64 {
	return []float64{
		f.HomeAttack, f.HomeDefense, f.AwayAttack, f.AwayDefense,
		f.HomeForm, f.AwayForm, f.H2HAdvantage,
	}
}

// Engineer builds feature vectors from raw statistics
type Engineer struct {
	params Params
}

// NewEngineer creates an engineer with the given parameters
func NewEngineer(params Params) *Engineer {
	if params.MaxGoalsPerMatch <= params.MinGoalsPerMatch {
		params = DefaultParams()
	}
	if params.FormDecayRate <= 0 || params.FormDecayRate >= 1 {
		params.FormDecayRate = DefaultParams().FormDecayRate
	}
	return &Engineer{params: params}
}

// Engineer computes the full feature vector for a fixture. Recent results
// and head-to-head meetings are ordered most recent first. Out-of-range
// inputs are clamped, never rejected.
func (e *Engineer) Engineer(
	home, away models.TeamStats,
	homeRecent, awayRecent []models.RecentResult,
	headToHead []models.Outcome,
	fatigue models.FatigueInputs,
) FeatureVector {
	fv := FeatureVector{
		HomeAttack:   e.rescaleGoals(home.AvgGoalsScored),
		HomeDefense:  1 - e.rescaleGoals(home.AvgGoalsConceded),
		AwayAttack:   e.rescaleGoals(away.AvgGoalsScored),
		AwayDefense:  1 - e.rescaleGoals(away.AvgGoalsConceded),
		HomeForm:     e.RecentForm(homeRecent),
		AwayForm:     e.RecentForm(awayRecent),
		H2HAdvantage: (e.HeadToHeadAdvantage(headToHead) + 1) / 2,

		HomeRestScore:  RestDaysScore(fatigue.HomeRestDays),
		AwayRestScore:  RestDaysScore(fatigue.AwayRestDays),
		HomeCongestion: e.CongestionScore(fatigue.HomeMatchesLast14Days),
		AwayCongestion: e.CongestionScore(fatigue.AwayMatchesLast14Days),
	}
	fv.deriveInteractions()
	return fv
}

// EngineerFromFacts is a convenience wrapper over Engineer for callers that
// already hold a MatchFacts bundle
func (e *Engineer) EngineerFromFacts(facts models.MatchFacts) FeatureVector {
	return e.Engineer(
		facts.HomeStats, facts.AwayStats,
		facts.HomeRecent, facts.AwayRecent,
		facts.HeadToHead, facts.Fatigue,
	)
}

// deriveInteractions recomputes the interaction fields from the clamped
// base fields
func (f *FeatureVector) deriveInteractions() {
	const eps = 1e-9
	f.HomeAttackVsAwayDefense = clamp01(f.HomeAttack * (1 - f.AwayDefense))
	f.AwayAttackVsHomeDefense = clamp01(f.AwayAttack * (1 - f.HomeDefense))
	f.HomeStrengthRatio = clamp01(f.HomeAttack / (f.HomeAttack + f.AwayDefense + eps))
	f.AwayStrengthRatio = clamp01(f.AwayAttack / (f.AwayAttack + f.HomeDefense + eps))
	f.FormDifferential = clamp01((f.HomeForm - f.AwayForm + 1) / 2)
	f.CombinedHomeStrength = clamp01((f.HomeAttack + f.HomeDefense) / 2)
	f.CombinedAwayStrength = clamp01((f.AwayAttack + f.AwayDefense) / 2)
	homeFresh := f.HomeRestScore + f.HomeCongestion
	awayFresh := f.AwayRestScore + f.AwayCongestion
	f.FatigueAdvantage = clamp01((homeFresh-awayFresh)/4 + 0.5)
}

// rescaleGoals linearly rescales a goals-per-match average from the domain
// bounds to [0,1], clamping out-of-range inputs
func (e *Engineer) rescaleGoals(v float64) float64 {
	scaled := (v - e.params.MinGoalsPerMatch) / (e.params.MaxGoalsPerMatch - e.params.MinGoalsPerMatch)
	return clamp01(scaled)
}

// RecentForm computes a decayed weighted form score in [0,1]. Each match
// contributes an outcome score (win 1.0, draw 0.5, loss 0.0) plus a
// goal-differential bonus capped at the configured limit, weighted by
// decay^i with the most recent match at i=0. The weighted average is
// rescaled to the documented [0,100] band and normalized.
func (e *Engineer) RecentForm(results []models.RecentResult) float64 {
	if len(results) == 0 {
		return 0.5
	}

	weightSum := 0.0
	scoreSum := 0.0
	weight := 1.0
	for _, r := range results {
		score := 0.0
		if r.Won() {
			score = 1.0
		} else if r.Drew() {
			score = 0.5
		}
		bonus := float64(r.GoalsFor-r.GoalsAgainst) * e.params.FormGoalDiffBonus
		bonus = clamp(bonus, -e.params.FormGoalDiffCap, e.params.FormGoalDiffCap)
		scoreSum += (score + bonus) * weight
		weightSum += weight
		weight *= e.params.FormDecayRate
	}

	avg := scoreSum / weightSum
	// avg lies in [-cap, 1+cap]; rescale to [0,100] then normalize
	span := 1 + 2*e.params.FormGoalDiffCap
	points := clamp((avg+e.params.FormGoalDiffCap)/span, 0, 1) * 100
	return points / 100
}

// HeadToHeadAdvantage computes (wins - losses) / total over historical
// meetings from the home team's perspective, nudged by the most recent
// meeting and clamped to [-1,1]. Meetings are ordered most recent first.
func (e *Engineer) HeadToHeadAdvantage(meetings []models.Outcome) float64 {
	if len(meetings) == 0 {
		return 0
	}
	wins, losses := 0, 0
	for _, m := range meetings {
		switch m {
		case models.OutcomeHome:
			wins++
		case models.OutcomeAway:
			losses++
		}
	}
	adv := float64(wins-losses) / float64(len(meetings))
	switch meetings[0] {
	case models.OutcomeHome:
		adv += e.params.H2HRecencyNudge
	case models.OutcomeAway:
		adv -= e.params.H2HRecencyNudge
	}
	return clamp(adv, -1, 1)
}

// RestDaysScore maps days since the last match to [0,1] via a staircase:
// short turnarounds are penalized, a week of rest is optimal, and very long
// layoffs carry a slight rustiness discount.
func RestDaysScore(days int) float64 {
	switch {
	case days <= 2:
		return 0.2
	case days == 3:
		return 0.5
	case days == 4:
		return 0.7
	case days == 5:
		return 0.85
	case days == 6:
		return 0.95
	case days <= 14:
		return 1.0
	default:
		return 0.9
	}
}

// CongestionScore maps matches played in the trailing 14-day window to
// [0,1]: an empty schedule scores 1.0, a fully congested one 0.2
func (e *Engineer) CongestionScore(matchesLast14 int) float64 {
	if matchesLast14 < 0 {
		matchesLast14 = 0
	}
	if matchesLast14 >= e.params.CongestionWindowMatches {
		return 0.2
	}
	steps := []float64{1.0, 0.9, 0.75, 0.55, 0.35}
	if matchesLast14 < len(steps) {
		return steps[matchesLast14]
	}
	return 0.2
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
