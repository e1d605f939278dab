package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jdvot/paris-sportif/internal/database"
	"github.com/jdvot/paris-sportif/internal/models"
)

const teamStatsColumns = `team_id, team, league, season, matches_played,
	       avg_goals_scored, avg_goals_conceded, elo_rating, last_match_date, updated_at`

// PostgresTeamStatsRepository implements TeamStatsRepository for PostgreSQL
type PostgresTeamStatsRepository struct {
	db *database.DB
}

// NewPostgresTeamStatsRepository creates a new team stats repository
func NewPostgresTeamStatsRepository(db *database.DB) TeamStatsRepository {
	return &PostgresTeamStatsRepository{db: db}
}

// Upsert inserts or replaces a team's aggregated statistics
func (r *PostgresTeamStatsRepository) Upsert(ctx context.Context, stats *models.TeamStats) error {
	query := `
		INSERT INTO team_stats (team_id, team, league, season, matches_played, avg_goals_scored, avg_goals_conceded, elo_rating, last_match_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (team_id) DO UPDATE SET
			team = EXCLUDED.team,
			league = EXCLUDED.league,
			season = EXCLUDED.season,
			matches_played = EXCLUDED.matches_played,
			avg_goals_scored = EXCLUDED.avg_goals_scored,
			avg_goals_conceded = EXCLUDED.avg_goals_conceded,
			elo_rating = EXCLUDED.elo_rating,
			last_match_date = EXCLUDED.last_match_date,
			updated_at = NOW()
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		stats.TeamID, stats.Team, stats.League, stats.Season, stats.MatchesPlayed,
		stats.AvgGoalsScored, stats.AvgGoalsConceded, stats.EloRating, stats.LastMatchDate,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert team stats: %w", err)
	}

	return nil
}

// GetByTeamID retrieves a team's aggregated statistics
func (r *PostgresTeamStatsRepository) GetByTeamID(ctx context.Context, teamID uuid.UUID) (*models.TeamStats, error) {
	query := `SELECT ` + teamStatsColumns + ` FROM team_stats WHERE team_id = $1`

	stats := &models.TeamStats{}
	err := r.db.GetPool().QueryRow(ctx, query, teamID).Scan(
		&stats.TeamID, &stats.Team, &stats.League, &stats.Season, &stats.MatchesPlayed,
		&stats.AvgGoalsScored, &stats.AvgGoalsConceded, &stats.EloRating, &stats.LastMatchDate, &stats.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team stats: %w", err)
	}

	return stats, nil
}

// GetAsOf retrieves a team's statistics with the scoring aggregates
// recomputed from completed matches with kickoff before the cutoff.
// Identity and rating fields come from the current row; the live ELO
// rating is replaced during backtest training replays, not here.
func (r *PostgresTeamStatsRepository) GetAsOf(ctx context.Context, teamID uuid.UUID, asOf time.Time) (*models.TeamStats, error) {
	stats, err := r.GetByTeamID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT COUNT(*),
		       COALESCE(AVG(CASE WHEN m.home_team_id = $1 THEN mr.home_goals ELSE mr.away_goals END), 0),
		       COALESCE(AVG(CASE WHEN m.home_team_id = $1 THEN mr.away_goals ELSE mr.home_goals END), 0),
		       COALESCE(MAX(m.kickoff_time), 'epoch'::timestamptz)
		FROM matches m
		JOIN match_results mr ON mr.match_id = m.id
		WHERE (m.home_team_id = $1 OR m.away_team_id = $1)
		  AND m.kickoff_time < $2
	`

	err = r.db.GetPool().QueryRow(ctx, query, teamID, asOf).Scan(
		&stats.MatchesPlayed, &stats.AvgGoalsScored, &stats.AvgGoalsConceded, &stats.LastMatchDate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate team stats as of cutoff: %w", err)
	}

	return stats, nil
}

// GetByLeague retrieves all team statistics for a league season
func (r *PostgresTeamStatsRepository) GetByLeague(ctx context.Context, league, season string) ([]*models.TeamStats, error) {
	query := `
		SELECT ` + teamStatsColumns + `
		FROM team_stats
		WHERE league = $1 AND season = $2
		ORDER BY elo_rating DESC
	`

	rows, err := r.db.GetPool().Query(ctx, query, league, season)
	if err != nil {
		return nil, fmt.Errorf("failed to query team stats by league: %w", err)
	}
	defer rows.Close()

	var all []*models.TeamStats
	for rows.Next() {
		stats := &models.TeamStats{}
		err := rows.Scan(
			&stats.TeamID, &stats.Team, &stats.League, &stats.Season, &stats.MatchesPlayed,
			&stats.AvgGoalsScored, &stats.AvgGoalsConceded, &stats.EloRating, &stats.LastMatchDate, &stats.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team stats: %w", err)
		}
		all = append(all, stats)
	}

	return all, rows.Err()
}
