package repository

import (
	"testing"
)

const skipIntegrationMsg = "Integration test - requires database setup"

// TestMatchRepositoryCreate tests match creation
func TestMatchRepositoryCreate(t *testing.T) {
	// db := database.SetupTestDB(t)
	// defer database.TeardownTestDB(t, db)

	// repos, err := NewRepositories(db)
	// if err != nil {
	// 	t.Fatalf("failed to create repositories: %v", err)
	// }

	// match := &models.Match{
	// 	ID:          uuid.New(),
	// 	HomeTeamID:  uuid.New(),
	// 	AwayTeamID:  uuid.New(),
	// 	HomeTeam:    "Lyon",
	// 	AwayTeam:    "Marseille",
	// 	League:      "Ligue 1",
	// 	Season:      "2024-25",
	// 	KickoffTime: time.Now().Add(24 * time.Hour),
	// 	Status:      "scheduled",
	// }

	// ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	// defer cancel()

	// err = repos.Match.Create(ctx, match)
	// if err != nil {
	// 	t.Fatalf("failed to create match: %v", err)
	// }

	// retrieved, err := repos.Match.GetByID(ctx, match.ID)
	// if err != nil {
	// 	t.Fatalf("failed to retrieve match: %v", err)
	// }

	// if retrieved.ID != match.ID {
	// 	t.Errorf("expected match ID %v, got %v", match.ID, retrieved.ID)
	// }
	t.Skip(skipIntegrationMsg)
}

// TestPredictionRecordBatch tests batch prediction record operations
func TestPredictionRecordBatch(t *testing.T) {
	// db := database.SetupTestDB(t)
	// defer database.TeardownTestDB(t, db)

	// repos, err := NewRepositories(db)
	// if err != nil {
	// 	t.Fatalf("failed to create repositories: %v", err)
	// }

	// ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	// defer cancel()

	// matchID := uuid.New()
	// records := make([]*models.PredictionRecord, 0, 5)
	// for _, name := range []string{"poisson", "dixon_coles", "elo", "elo_advanced", "classifier"} {
	// 	records = append(records, models.NewPredictionRecord(name, matchID, models.Probabilities{Home: 0.5, Draw: 0.3, Away: 0.2}))
	// }

	// if err := repos.PredictionRecord.AppendBatch(ctx, records); err != nil {
	// 	t.Fatalf("failed to batch insert prediction records: %v", err)
	// }

	// resolved, err := repos.PredictionRecord.ResolveMatch(ctx, matchID, models.OutcomeHome)
	// if err != nil {
	// 	t.Fatalf("failed to resolve match: %v", err)
	// }
	// if resolved != len(records) {
	// 	t.Errorf("expected %d resolved records, got %d", len(records), resolved)
	// }
	t.Skip(skipIntegrationMsg)
}

// TestOddsRepositoryTimeSeries tests time-series odds queries
func TestOddsRepositoryTimeSeries(t *testing.T) {
	// db := database.SetupTestDB(t)
	// defer database.TeardownTestDB(t, db)

	// repos, err := NewRepositories(db)
	// if err != nil {
	// 	t.Fatalf("failed to create repositories: %v", err)
	// }

	// ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	// defer cancel()

	// matchID := uuid.New()
	// now := time.Now()

	// snapshots := make([]*models.BookmakerOdds, 50)
	// for i := 0; i < 50; i++ {
	// 	snapshots[i] = &models.BookmakerOdds{
	// 		Time:      now.Add(time.Duration(i) * time.Minute),
	// 		MatchID:   matchID,
	// 		Bookmaker: "pinnacle",
	// 		Home:      decimal.NewFromFloat(2.10),
	// 		Draw:      decimal.NewFromFloat(3.40),
	// 		Away:      decimal.NewFromFloat(3.60),
	// 	}
	// }

	// if err := repos.Odds.InsertBatch(ctx, snapshots); err != nil {
	// 	t.Fatalf("failed to batch insert odds: %v", err)
	// }

	// retrieved, err := repos.Odds.GetTimeSeriesForMatch(ctx, matchID, now, now.Add(1*time.Hour))
	// if err != nil {
	// 	t.Fatalf("failed to retrieve odds time series: %v", err)
	// }

	// if len(retrieved) != 50 {
	// 	t.Errorf("expected 50 snapshots, got %d", len(retrieved))
	// }
	t.Skip(skipIntegrationMsg)
}
