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

const predictionRecordColumns = `id, model_name, match_id, predicted, actual,
	       home_prob, draw_prob, away_prob, predicted_at, resolved_at`

// PostgresPredictionRecordRepository implements PredictionRecordRepository
// for PostgreSQL. It also satisfies the adaptive calculator's store contract.
type PostgresPredictionRecordRepository struct {
	db *database.DB
}

// NewPostgresPredictionRecordRepository creates a new prediction record repository
func NewPostgresPredictionRecordRepository(db *database.DB) PredictionRecordRepository {
	return &PostgresPredictionRecordRepository{db: db}
}

// Append inserts a single unresolved prediction record
func (r *PostgresPredictionRecordRepository) Append(ctx context.Context, record *models.PredictionRecord) error {
	query := `
		INSERT INTO prediction_records (id, model_name, match_id, predicted, actual, home_prob, draw_prob, away_prob, predicted_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		record.ID, record.ModelName, record.MatchID, record.Predicted, record.Actual,
		record.Probabilities.Home, record.Probabilities.Draw, record.Probabilities.Away,
		record.PredictedAt, record.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append prediction record: %w", err)
	}

	return nil
}

// AppendBatch inserts prediction records in bulk using COPY
func (r *PostgresPredictionRecordRepository) AppendBatch(ctx context.Context, records []*models.PredictionRecord) error {
	if len(records) == 0 {
		return nil
	}

	columns := []string{"id", "model_name", "match_id", "predicted", "actual", "home_prob", "draw_prob", "away_prob", "predicted_at", "resolved_at"}
	copyFromSource := make([][]interface{}, len(records))
	for i, rec := range records {
		copyFromSource[i] = []interface{}{
			rec.ID, rec.ModelName, rec.MatchID, rec.Predicted, rec.Actual,
			rec.Probabilities.Home, rec.Probabilities.Draw, rec.Probabilities.Away,
			rec.PredictedAt, rec.ResolvedAt,
		}
	}

	count, err := r.db.GetPool().CopyFrom(ctx, pgx.Identifier{"prediction_records"}, columns, pgx.CopyFromRows(copyFromSource))
	if err != nil {
		return fmt.Errorf("failed to batch insert prediction records: %w", err)
	}

	if count != int64(len(records)) {
		return fmt.Errorf("inserted %d rows, expected %d", count, len(records))
	}

	return nil
}

// RecentResolved returns resolved records predicted inside the rolling window
// ending now, oldest first
func (r *PostgresPredictionRecordRepository) RecentResolved(ctx context.Context, window time.Duration) ([]*models.PredictionRecord, error) {
	cutoff := time.Now().UTC().Add(-window)

	query := `
		SELECT ` + predictionRecordColumns + `
		FROM prediction_records
		WHERE actual IS NOT NULL AND predicted_at >= $1
		ORDER BY predicted_at ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolved prediction records: %w", err)
	}
	defer rows.Close()

	return scanPredictionRecords(rows)
}

// ResolveMatch resolves every unresolved record for a match and returns how
// many rows were updated
func (r *PostgresPredictionRecordRepository) ResolveMatch(ctx context.Context, matchID uuid.UUID, actual models.Outcome) (int, error) {
	if !actual.IsValid() {
		return 0, models.ErrInvalidOutcome
	}

	query := `
		UPDATE prediction_records
		SET actual = $2, resolved_at = NOW()
		WHERE match_id = $1 AND actual IS NULL
	`

	tag, err := r.db.GetPool().Exec(ctx, query, matchID, actual)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve prediction records: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// TrimBefore drops records predicted before the cutoff
func (r *PostgresPredictionRecordRepository) TrimBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := r.db.GetPool().Exec(ctx, "DELETE FROM prediction_records WHERE predicted_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to trim prediction records: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// GetByMatchID retrieves all prediction records for a match
func (r *PostgresPredictionRecordRepository) GetByMatchID(ctx context.Context, matchID uuid.UUID) ([]*models.PredictionRecord, error) {
	query := `
		SELECT ` + predictionRecordColumns + `
		FROM prediction_records
		WHERE match_id = $1
		ORDER BY predicted_at ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction records by match: %w", err)
	}
	defer rows.Close()

	return scanPredictionRecords(rows)
}

func scanPredictionRecords(rows pgx.Rows) ([]*models.PredictionRecord, error) {
	var records []*models.PredictionRecord
	for rows.Next() {
		rec := &models.PredictionRecord{}
		err := rows.Scan(
			&rec.ID, &rec.ModelName, &rec.MatchID, &rec.Predicted, &rec.Actual,
			&rec.Probabilities.Home, &rec.Probabilities.Draw, &rec.Probabilities.Away,
			&rec.PredictedAt, &rec.ResolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
