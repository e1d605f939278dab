package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdvot/paris-sportif/internal/adaptive"
	"github.com/jdvot/paris-sportif/internal/datasource"
	"github.com/jdvot/paris-sportif/internal/ensemble"
	"github.com/jdvot/paris-sportif/internal/models"
)

// fakeMatchRepo is an in-memory MatchRepository
type fakeMatchRepo struct {
	matches map[uuid.UUID]*models.Match
	results map[uuid.UUID]*models.MatchResult
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{
		matches: make(map[uuid.UUID]*models.Match),
		results: make(map[uuid.UUID]*models.MatchResult),
	}
}

func (r *fakeMatchRepo) Create(_ context.Context, m *models.Match) error {
	r.matches[m.ID] = m
	return nil
}

func (r *fakeMatchRepo) CreateBatch(ctx context.Context, ms []*models.Match) error {
	for _, m := range ms {
		r.matches[m.ID] = m
	}
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Match, error) {
	m, ok := r.matches[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return m, nil
}

func (r *fakeMatchRepo) GetByDateRange(_ context.Context, start, end time.Time) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range r.matches {
		if !m.KickoffTime.Before(start) && m.KickoffTime.Before(end) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) GetUpcoming(_ context.Context, limit int) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range r.matches {
		if m.IsUpcoming() && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) RecordResult(_ context.Context, result *models.MatchResult) error {
	if _, ok := r.matches[result.MatchID]; !ok {
		return models.ErrNotFound
	}
	r.results[result.MatchID] = result
	r.matches[result.MatchID].Status = "finished"
	return nil
}

func (r *fakeMatchRepo) GetResult(_ context.Context, matchID uuid.UUID) (*models.MatchResult, error) {
	res, ok := r.results[matchID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return res, nil
}

func (r *fakeMatchRepo) GetRecentResults(_ context.Context, _ uuid.UUID, _ time.Time, _ int) ([]models.RecentResult, error) {
	return nil, nil
}

func (r *fakeMatchRepo) GetHeadToHead(_ context.Context, _, _ uuid.UUID, _ time.Time, _ int) ([]models.Outcome, error) {
	return nil, nil
}

func (r *fakeMatchRepo) CountInWindow(_ context.Context, _ uuid.UUID, _, _ time.Time) (int, error) {
	return 2, nil
}

// fakeStatsRepo is an in-memory TeamStatsRepository
type fakeStatsRepo struct {
	stats map[uuid.UUID]*models.TeamStats
}

func (r *fakeStatsRepo) Upsert(_ context.Context, s *models.TeamStats) error {
	r.stats[s.TeamID] = s
	return nil
}

func (r *fakeStatsRepo) GetByTeamID(_ context.Context, id uuid.UUID) (*models.TeamStats, error) {
	s, ok := r.stats[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return s, nil
}

func (r *fakeStatsRepo) GetAsOf(ctx context.Context, id uuid.UUID, _ time.Time) (*models.TeamStats, error) {
	return r.GetByTeamID(ctx, id)
}

func (r *fakeStatsRepo) GetByLeague(_ context.Context, _, _ string) ([]*models.TeamStats, error) {
	return nil, nil
}

// fakeOddsRepo is an in-memory OddsRepository
type fakeOddsRepo struct {
	inserted []*models.BookmakerOdds
}

func (r *fakeOddsRepo) InsertBatch(_ context.Context, odds []*models.BookmakerOdds) error {
	r.inserted = append(r.inserted, odds...)
	return nil
}

func (r *fakeOddsRepo) GetLatestByMatchID(_ context.Context, _ uuid.UUID) (*models.BookmakerOdds, error) {
	return nil, models.ErrNotFound
}

func (r *fakeOddsRepo) GetTimeSeriesForMatch(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]*models.BookmakerOdds, error) {
	return nil, nil
}

// fakeOddsSource serves one fixed quote
type fakeOddsSource struct {
	odds *models.BookmakerOdds
}

func (s *fakeOddsSource) FetchOdds(_ context.Context, _ uuid.UUID) (*models.BookmakerOdds, error) {
	return s.odds, nil
}

func (s *fakeOddsSource) FetchOddsBatch(_ context.Context, _, _ time.Time) ([]models.BookmakerOdds, error) {
	return nil, nil
}

func (s *fakeOddsSource) Name() string    { return "fake_odds" }
func (s *fakeOddsSource) IsEnabled() bool { return true }

// fakeContextSource serves one fixed adjustment
type fakeContextSource struct {
	adjustment *ensemble.ContextualAdjustment
}

func (s *fakeContextSource) FetchContext(_ context.Context, _ *models.Match) (*ensemble.ContextualAdjustment, error) {
	return s.adjustment, nil
}

func (s *fakeContextSource) Name() string    { return "fake_news" }
func (s *fakeContextSource) IsEnabled() bool { return true }

func newTestService(t *testing.T, sources *datasource.Sources) (*PredictionService, *fakeMatchRepo, *fakeOddsRepo, *adaptive.MemoryStore, uuid.UUID) {
	t.Helper()

	facts := testFacts(true)
	matchRepo := newFakeMatchRepo()
	require.NoError(t, matchRepo.Create(context.Background(), &facts.Match))

	statsRepo := &fakeStatsRepo{stats: map[uuid.UUID]*models.TeamStats{
		facts.HomeStats.TeamID: &facts.HomeStats,
		facts.AwayStats.TeamID: &facts.AwayStats,
	}}
	oddsRepo := &fakeOddsRepo{}

	log := testLogger()
	assembler := NewFactsAssembler(matchRepo, statsRepo, oddsRepo, log)

	store := adaptive.NewMemoryStore()
	calculator, err := adaptive.NewCalculator(store, adaptive.DefaultParams(), log)
	require.NoError(t, err)

	predictor, err := NewPredictor(testPipelineConfig(), nil, calculator, nil, log)
	require.NoError(t, err)

	svc, err := NewPredictionService(assembler, predictor, calculator, matchRepo, oddsRepo, nil, sources, log)
	require.NoError(t, err)

	return svc, matchRepo, oddsRepo, store, facts.Match.ID
}

func TestPredictMatchWithEnrichment(t *testing.T) {
	matchOdds := &models.BookmakerOdds{
		Time:      time.Now(),
		Bookmaker: "pinnacle",
		Home:      decimal.NewFromFloat(2.4),
		Draw:      decimal.NewFromFloat(3.3),
		Away:      decimal.NewFromFloat(3.1),
	}
	sources := &datasource.Sources{
		Odds: &fakeOddsSource{odds: matchOdds},
		News: &fakeContextSource{adjustment: &ensemble.ContextualAdjustment{SentimentHome: 0.1}},
	}

	svc, _, oddsRepo, store, matchID := newTestService(t, sources)
	matchOdds.MatchID = matchID

	prediction, err := svc.PredictMatch(context.Background(), matchID)
	require.NoError(t, err)

	assert.Equal(t, matchID.String(), prediction.MatchID)
	assert.True(t, prediction.AdjustmentApplied)
	require.NotNil(t, prediction.ValueScore, "fresh odds should produce a value score")

	// Fetched odds snapshot is persisted
	require.Len(t, oddsRepo.inserted, 1)
	assert.Equal(t, "pinnacle", oddsRepo.inserted[0].Bookmaker)

	// One unresolved record per contributing model plus the ensemble record
	assert.Equal(t, len(prediction.Contributions)+1, store.Len())
}

func TestPredictMatchWithoutSources(t *testing.T) {
	svc, _, oddsRepo, _, matchID := newTestService(t, nil)

	prediction, err := svc.PredictMatch(context.Background(), matchID)
	require.NoError(t, err)

	assert.False(t, prediction.AdjustmentApplied)
	assert.Nil(t, prediction.ValueScore)
	assert.Empty(t, oddsRepo.inserted)
}

func TestRecordOutcomeResolvesRecords(t *testing.T) {
	svc, matchRepo, _, store, matchID := newTestService(t, nil)
	ctx := context.Background()

	prediction, err := svc.PredictMatch(ctx, matchID)
	require.NoError(t, err)

	resolved, err := svc.RecordOutcome(ctx, &models.MatchResult{
		MatchID:     matchID,
		HomeGoals:   2,
		AwayGoals:   1,
		CompletedAt: time.Now(),
	})
	require.NoError(t, err)

	assert.Equal(t, len(prediction.Contributions)+1, resolved)
	assert.Equal(t, "finished", matchRepo.matches[matchID].Status)

	records, err := store.RecentResolved(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Len(t, records, resolved)
	for _, record := range records {
		assert.Equal(t, models.OutcomeHome, *record.Actual)
	}
}

func TestPredictUpcomingSkipsThinHistory(t *testing.T) {
	svc, matchRepo, _, _, _ := newTestService(t, nil)
	ctx := context.Background()

	// A second fixture whose away side has almost no history
	thin := testFacts(false)
	thin.AwayStats.MatchesPlayed = 1
	require.NoError(t, matchRepo.Create(ctx, &thin.Match))

	statsRepo := svc.assembler.teamStats.(*fakeStatsRepo)
	statsRepo.stats[thin.HomeStats.TeamID] = &thin.HomeStats
	statsRepo.stats[thin.AwayStats.TeamID] = &thin.AwayStats

	predictions, err := svc.PredictUpcoming(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, predictions, 1)
}
