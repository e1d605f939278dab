package repository

import (
	"fmt"

	"github.com/jdvot/paris-sportif/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Match            MatchRepository
	TeamStats        TeamStatsRepository
	Odds             OddsRepository
	PredictionRecord PredictionRecordRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Match:            NewPostgresMatchRepository(db),
		TeamStats:        NewPostgresTeamStatsRepository(db),
		Odds:             NewPostgresOddsRepository(db),
		PredictionRecord: NewPostgresPredictionRecordRepository(db),
	}, nil
}
