package models

import (
	"time"

	"github.com/google/uuid"
)

// TeamStats represents aggregated team statistics used as raw input to the
// feature engineer and the statistical base models
type TeamStats struct {
	TeamID           uuid.UUID `db:"team_id" json:"team_id" validate:"required,uuid4"`
	Team             string    `db:"team" json:"team" validate:"required"`
	League           string    `db:"league" json:"league"`
	Season           string    `db:"season" json:"season"`
	MatchesPlayed    int       `db:"matches_played" json:"matches_played" validate:"gte=0"`
	AvgGoalsScored   float64   `db:"avg_goals_scored" json:"avg_goals_scored" validate:"gte=0"`
	AvgGoalsConceded float64   `db:"avg_goals_conceded" json:"avg_goals_conceded" validate:"gte=0"`
	EloRating        float64   `db:"elo_rating" json:"elo_rating"`
	LastMatchDate    time.Time `db:"last_match_date" json:"last_match_date"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// HasMinimumHistory checks whether the team has played enough matches for
// its averages to be meaningful
func (t *TeamStats) HasMinimumHistory(min int) bool {
	return t.MatchesPlayed >= min
}

// RestDays returns full days between the team's last match and the given
// kickoff time
func (t *TeamStats) RestDays(kickoff time.Time) int {
	if t.LastMatchDate.IsZero() || kickoff.Before(t.LastMatchDate) {
		return 0
	}
	return int(kickoff.Sub(t.LastMatchDate).Hours() / 24)
}
