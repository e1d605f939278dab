package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jdvot/paris-sportif/internal/models"
)

// MatchRepository defines match and result persistence
type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	CreateBatch(ctx context.Context, matches []*models.Match) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error)
	GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.Match, error)
	GetUpcoming(ctx context.Context, limit int) ([]*models.Match, error)
	RecordResult(ctx context.Context, result *models.MatchResult) error
	GetResult(ctx context.Context, matchID uuid.UUID) (*models.MatchResult, error)
	// GetRecentResults returns a team's completed matches before the cutoff,
	// most recent first, from that team's perspective
	GetRecentResults(ctx context.Context, teamID uuid.UUID, before time.Time, limit int) ([]models.RecentResult, error)
	// GetHeadToHead returns prior meetings between the two teams before the
	// cutoff from the home team's perspective, most recent first
	GetHeadToHead(ctx context.Context, homeTeamID, awayTeamID uuid.UUID, before time.Time, limit int) ([]models.Outcome, error)
	CountInWindow(ctx context.Context, teamID uuid.UUID, from, to time.Time) (int, error)
}

// TeamStatsRepository defines aggregated team statistics persistence
type TeamStatsRepository interface {
	Upsert(ctx context.Context, stats *models.TeamStats) error
	GetByTeamID(ctx context.Context, teamID uuid.UUID) (*models.TeamStats, error)
	// GetAsOf returns the team's statistics with scoring aggregates
	// recomputed over completed matches before the cutoff, so historical
	// replays never see results from later matches
	GetAsOf(ctx context.Context, teamID uuid.UUID, asOf time.Time) (*models.TeamStats, error)
	GetByLeague(ctx context.Context, league, season string) ([]*models.TeamStats, error)
}

// OddsRepository defines bookmaker odds snapshot persistence
type OddsRepository interface {
	InsertBatch(ctx context.Context, odds []*models.BookmakerOdds) error
	GetLatestByMatchID(ctx context.Context, matchID uuid.UUID) (*models.BookmakerOdds, error)
	GetTimeSeriesForMatch(ctx context.Context, matchID uuid.UUID, start, end time.Time) ([]*models.BookmakerOdds, error)
}

// PredictionRecordRepository persists the per-model prediction audit trail.
// It satisfies the adaptive weight calculator's store contract.
type PredictionRecordRepository interface {
	Append(ctx context.Context, record *models.PredictionRecord) error
	AppendBatch(ctx context.Context, records []*models.PredictionRecord) error
	RecentResolved(ctx context.Context, window time.Duration) ([]*models.PredictionRecord, error)
	ResolveMatch(ctx context.Context, matchID uuid.UUID, actual models.Outcome) (int, error)
	TrimBefore(ctx context.Context, cutoff time.Time) (int, error)
	GetByMatchID(ctx context.Context, matchID uuid.UUID) ([]*models.PredictionRecord, error)
}
