package models

import (
	"time"

	"github.com/google/uuid"
)

// Match represents a fixture between two teams
type Match struct {
	ID          uuid.UUID `db:"id" json:"id" validate:"required,uuid4"`
	HomeTeamID  uuid.UUID `db:"home_team_id" json:"home_team_id" validate:"required,uuid4"`
	AwayTeamID  uuid.UUID `db:"away_team_id" json:"away_team_id" validate:"required,uuid4"`
	HomeTeam    string    `db:"home_team" json:"home_team" validate:"required"`
	AwayTeam    string    `db:"away_team" json:"away_team" validate:"required"`
	League      string    `db:"league" json:"league"`
	Season      string    `db:"season" json:"season"`
	KickoffTime time.Time `db:"kickoff_time" json:"kickoff_time" validate:"required"`
	Status      string    `db:"status" json:"status" validate:"oneof=scheduled started finished postponed"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// IsUpcoming checks if the match hasn't kicked off yet
func (m *Match) IsUpcoming() bool {
	return m.Status == "scheduled"
}

// IsFinished checks if the match has completed
func (m *Match) IsFinished() bool {
	return m.Status == "finished"
}

// TimeToKickoff returns the duration until kickoff
func (m *Match) TimeToKickoff() time.Duration {
	return time.Until(m.KickoffTime)
}

// MatchResult represents the final score of a completed match
type MatchResult struct {
	MatchID     uuid.UUID `db:"match_id" json:"match_id" validate:"required,uuid4"`
	HomeGoals   int       `db:"home_goals" json:"home_goals" validate:"gte=0"`
	AwayGoals   int       `db:"away_goals" json:"away_goals" validate:"gte=0"`
	CompletedAt time.Time `db:"completed_at" json:"completed_at" validate:"required"`
}

// Outcome derives the three-way outcome from the final score
func (r *MatchResult) Outcome() Outcome {
	return OutcomeFromGoals(r.HomeGoals, r.AwayGoals)
}

// RecentResult is one entry in a team's recent match history, ordered most
// recent first when passed to the feature engineer
type RecentResult struct {
	MatchDate    time.Time `json:"match_date"`
	GoalsFor     int       `json:"goals_for"`
	GoalsAgainst int       `json:"goals_against"`
}

// Won reports whether the team won this match
func (r RecentResult) Won() bool { return r.GoalsFor > r.GoalsAgainst }

// Drew reports whether this match was drawn
func (r RecentResult) Drew() bool { return r.GoalsFor == r.GoalsAgainst }

// FatigueInputs carries the raw schedule facts the feature engineer turns
// into rest and congestion scores
type FatigueInputs struct {
	HomeRestDays          int `json:"home_rest_days"`
	AwayRestDays          int `json:"away_rest_days"`
	HomeMatchesLast14Days int `json:"home_matches_last_14_days"`
	AwayMatchesLast14Days int `json:"away_matches_last_14_days"`
}

// ExpectedGoals carries optional expected-goal statistics for a fixture
type ExpectedGoals struct {
	Home float64 `json:"home"`
	Away float64 `json:"away"`
}

// MatchFacts bundles a match with everything the prediction pipeline needs
// to evaluate it: team statistics, histories, and the resolved result when
// the match has already been played
type MatchFacts struct {
	Match      Match          `json:"match"`
	HomeStats  TeamStats      `json:"home_stats"`
	AwayStats  TeamStats      `json:"away_stats"`
	HomeRecent []RecentResult `json:"home_recent"`
	AwayRecent []RecentResult `json:"away_recent"`
	// HeadToHead lists prior meetings from the home team's perspective,
	// most recent first
	HeadToHead []Outcome      `json:"head_to_head"`
	Fatigue    FatigueInputs  `json:"fatigue"`
	XG         *ExpectedGoals `json:"xg,omitempty"`
	Odds       *BookmakerOdds `json:"odds,omitempty"`
	Result     *MatchResult   `json:"result,omitempty"`
}
