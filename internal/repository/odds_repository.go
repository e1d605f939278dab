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

// PostgresOddsRepository implements OddsRepository for PostgreSQL
type PostgresOddsRepository struct {
	db *database.DB
}

// NewPostgresOddsRepository creates a new odds repository
func NewPostgresOddsRepository(db *database.DB) OddsRepository {
	return &PostgresOddsRepository{db: db}
}

// InsertBatch inserts odds snapshots in bulk using COPY
func (o *PostgresOddsRepository) InsertBatch(ctx context.Context, odds []*models.BookmakerOdds) error {
	if len(odds) == 0 {
		return nil
	}

	columns := []string{"time", "match_id", "bookmaker", "home", "draw", "away"}
	copyFromSource := make([][]interface{}, len(odds))
	for i, snap := range odds {
		copyFromSource[i] = []interface{}{
			snap.Time, snap.MatchID, snap.Bookmaker, snap.Home, snap.Draw, snap.Away,
		}
	}

	count, err := o.db.GetPool().CopyFrom(ctx, pgx.Identifier{"odds_snapshots"}, columns, pgx.CopyFromRows(copyFromSource))
	if err != nil {
		return fmt.Errorf("failed to batch insert odds snapshots: %w", err)
	}

	if count != int64(len(odds)) {
		return fmt.Errorf("inserted %d rows, expected %d", count, len(odds))
	}

	return nil
}

// GetLatestByMatchID retrieves the most recent odds snapshot for a match
func (o *PostgresOddsRepository) GetLatestByMatchID(ctx context.Context, matchID uuid.UUID) (*models.BookmakerOdds, error) {
	query := `
		SELECT time, match_id, bookmaker, home, draw, away
		FROM odds_snapshots
		WHERE match_id = $1
		ORDER BY time DESC
		LIMIT 1
	`

	snap := &models.BookmakerOdds{}
	err := o.db.GetPool().QueryRow(ctx, query, matchID).Scan(
		&snap.Time, &snap.MatchID, &snap.Bookmaker, &snap.Home, &snap.Draw, &snap.Away,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest odds: %w", err)
	}

	return snap, nil
}

// GetTimeSeriesForMatch retrieves odds snapshots for a match within a window
func (o *PostgresOddsRepository) GetTimeSeriesForMatch(ctx context.Context, matchID uuid.UUID, start, end time.Time) ([]*models.BookmakerOdds, error) {
	query := `
		SELECT time, match_id, bookmaker, home, draw, away
		FROM odds_snapshots
		WHERE match_id = $1 AND time >= $2 AND time <= $3
		ORDER BY time ASC
	`

	rows, err := o.db.GetPool().Query(ctx, query, matchID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query odds time series: %w", err)
	}
	defer rows.Close()

	var series []*models.BookmakerOdds
	for rows.Next() {
		snap := &models.BookmakerOdds{}
		if err := rows.Scan(&snap.Time, &snap.MatchID, &snap.Bookmaker, &snap.Home, &snap.Draw, &snap.Away); err != nil {
			return nil, fmt.Errorf("failed to scan odds snapshot: %w", err)
		}
		series = append(series, snap)
	}

	return series, rows.Err()
}
