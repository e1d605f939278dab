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

const errScanMatch = "failed to scan match: %w"

const matchColumns = `id, home_team_id, away_team_id, home_team, away_team, league, season,
	       kickoff_time, status, created_at, updated_at`

// PostgresMatchRepository implements MatchRepository for PostgreSQL
type PostgresMatchRepository struct {
	db *database.DB
}

// NewPostgresMatchRepository creates a new match repository
func NewPostgresMatchRepository(db *database.DB) MatchRepository {
	return &PostgresMatchRepository{db: db}
}

// Create inserts a new match
func (r *PostgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (id, home_team_id, away_team_id, home_team, away_team, league, season, kickoff_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		match.ID, match.HomeTeamID, match.AwayTeamID, match.HomeTeam, match.AwayTeam,
		match.League, match.Season, match.KickoffTime, match.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}

	return nil
}

// CreateBatch inserts matches in bulk using COPY
func (r *PostgresMatchRepository) CreateBatch(ctx context.Context, matches []*models.Match) error {
	if len(matches) == 0 {
		return nil
	}

	columns := []string{"id", "home_team_id", "away_team_id", "home_team", "away_team", "league", "season", "kickoff_time", "status"}
	copyFromSource := make([][]interface{}, len(matches))
	for i, m := range matches {
		copyFromSource[i] = []interface{}{
			m.ID, m.HomeTeamID, m.AwayTeamID, m.HomeTeam, m.AwayTeam, m.League, m.Season, m.KickoffTime, m.Status,
		}
	}

	count, err := r.db.GetPool().CopyFrom(ctx, pgx.Identifier{"matches"}, columns, pgx.CopyFromRows(copyFromSource))
	if err != nil {
		return fmt.Errorf("failed to batch insert matches: %w", err)
	}

	if count != int64(len(matches)) {
		return fmt.Errorf("inserted %d rows, expected %d", count, len(matches))
	}

	return nil
}

// GetByID retrieves a match by ID
func (r *PostgresMatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match := &models.Match{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&match.ID, &match.HomeTeamID, &match.AwayTeamID, &match.HomeTeam, &match.AwayTeam,
		&match.League, &match.Season, &match.KickoffTime, &match.Status, &match.CreatedAt, &match.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	return match, nil
}

// GetByDateRange retrieves matches within a kickoff window, oldest first
func (r *PostgresMatchRepository) GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE kickoff_time >= $1 AND kickoff_time < $2
		ORDER BY kickoff_time ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches by date range: %w", err)
	}
	defer rows.Close()

	return scanMatches(rows)
}

// GetUpcoming retrieves scheduled matches ordered by kickoff time
func (r *PostgresMatchRepository) GetUpcoming(ctx context.Context, limit int) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE status = 'scheduled' AND kickoff_time > NOW()
		ORDER BY kickoff_time ASC
		LIMIT $1
	`

	rows, err := r.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming matches: %w", err)
	}
	defer rows.Close()

	return scanMatches(rows)
}

// RecordResult stores a final score and marks the match finished
func (r *PostgresMatchRepository) RecordResult(ctx context.Context, result *models.MatchResult) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		query := `
			INSERT INTO match_results (match_id, home_goals, away_goals, completed_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (match_id) DO UPDATE SET
				home_goals = EXCLUDED.home_goals,
				away_goals = EXCLUDED.away_goals,
				completed_at = EXCLUDED.completed_at
		`
		if _, err := tx.Exec(ctx, query, result.MatchID, result.HomeGoals, result.AwayGoals, result.CompletedAt); err != nil {
			return fmt.Errorf("failed to record match result: %w", err)
		}

		tag, err := tx.Exec(ctx, "UPDATE matches SET status = 'finished', updated_at = NOW() WHERE id = $1", result.MatchID)
		if err != nil {
			return fmt.Errorf("failed to mark match finished: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return models.ErrNotFound
		}
		return nil
	})
}

// GetResult retrieves the final score of a match
func (r *PostgresMatchRepository) GetResult(ctx context.Context, matchID uuid.UUID) (*models.MatchResult, error) {
	query := `
		SELECT match_id, home_goals, away_goals, completed_at
		FROM match_results WHERE match_id = $1
	`

	result := &models.MatchResult{}
	err := r.db.GetPool().QueryRow(ctx, query, matchID).Scan(
		&result.MatchID, &result.HomeGoals, &result.AwayGoals, &result.CompletedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match result: %w", err)
	}

	return result, nil
}

// GetRecentResults returns a team's completed matches before the cutoff, most
// recent first, with goals expressed from that team's perspective
func (r *PostgresMatchRepository) GetRecentResults(ctx context.Context, teamID uuid.UUID, before time.Time, limit int) ([]models.RecentResult, error) {
	query := `
		SELECT m.kickoff_time,
		       CASE WHEN m.home_team_id = $1 THEN mr.home_goals ELSE mr.away_goals END,
		       CASE WHEN m.home_team_id = $1 THEN mr.away_goals ELSE mr.home_goals END
		FROM matches m
		JOIN match_results mr ON mr.match_id = m.id
		WHERE (m.home_team_id = $1 OR m.away_team_id = $1)
		  AND m.kickoff_time < $2
		ORDER BY m.kickoff_time DESC
		LIMIT $3
	`

	rows, err := r.db.GetPool().Query(ctx, query, teamID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent results: %w", err)
	}
	defer rows.Close()

	var results []models.RecentResult
	for rows.Next() {
		var res models.RecentResult
		if err := rows.Scan(&res.MatchDate, &res.GoalsFor, &res.GoalsAgainst); err != nil {
			return nil, fmt.Errorf("failed to scan recent result: %w", err)
		}
		results = append(results, res)
	}

	return results, rows.Err()
}

// GetHeadToHead returns prior meetings from the home team's perspective,
// most recent first
func (r *PostgresMatchRepository) GetHeadToHead(ctx context.Context, homeTeamID, awayTeamID uuid.UUID, before time.Time, limit int) ([]models.Outcome, error) {
	query := `
		SELECT CASE WHEN m.home_team_id = $1 THEN mr.home_goals ELSE mr.away_goals END,
		       CASE WHEN m.home_team_id = $1 THEN mr.away_goals ELSE mr.home_goals END
		FROM matches m
		JOIN match_results mr ON mr.match_id = m.id
		WHERE ((m.home_team_id = $1 AND m.away_team_id = $2) OR (m.home_team_id = $2 AND m.away_team_id = $1))
		  AND m.kickoff_time < $3
		ORDER BY m.kickoff_time DESC
		LIMIT $4
	`

	rows, err := r.db.GetPool().Query(ctx, query, homeTeamID, awayTeamID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query head-to-head: %w", err)
	}
	defer rows.Close()

	var outcomes []models.Outcome
	for rows.Next() {
		var goalsFor, goalsAgainst int
		if err := rows.Scan(&goalsFor, &goalsAgainst); err != nil {
			return nil, fmt.Errorf("failed to scan head-to-head row: %w", err)
		}
		outcomes = append(outcomes, models.OutcomeFromGoals(goalsFor, goalsAgainst))
	}

	return outcomes, rows.Err()
}

// CountInWindow counts a team's matches with kickoff inside [from, to)
func (r *PostgresMatchRepository) CountInWindow(ctx context.Context, teamID uuid.UUID, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM matches
		WHERE (home_team_id = $1 OR away_team_id = $1)
		  AND kickoff_time >= $2 AND kickoff_time < $3
	`

	var count int
	if err := r.db.GetPool().QueryRow(ctx, query, teamID, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count matches in window: %w", err)
	}
	return count, nil
}

func scanMatches(rows pgx.Rows) ([]*models.Match, error) {
	var matches []*models.Match
	for rows.Next() {
		match := &models.Match{}
		err := rows.Scan(
			&match.ID, &match.HomeTeamID, &match.AwayTeamID, &match.HomeTeam, &match.AwayTeam,
			&match.League, &match.Season, &match.KickoffTime, &match.Status, &match.CreatedAt, &match.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf(errScanMatch, err)
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}
