// Package service orchestrates the prediction pipeline: fact assembly,
// model execution, enrichment fan-out, and outcome resolution.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jdvot/paris-sportif/internal/models"
	"github.com/jdvot/paris-sportif/internal/repository"
)

const (
	// recentFormLimit bounds how many completed matches feed the form score
	recentFormLimit = 10
	// headToHeadLimit bounds how many prior meetings feed the H2H feature
	headToHeadLimit = 10
	// congestionWindowDays is the fixture congestion lookback
	congestionWindowDays = 14
)

// FactsAssembler builds MatchFacts bundles from the repositories. The
// backtester uses it as its match source; the prediction service uses it
// for single fixtures.
type FactsAssembler struct {
	matches   repository.MatchRepository
	teamStats repository.TeamStatsRepository
	odds      repository.OddsRepository
	logger    *logrus.Entry
}

// NewFactsAssembler creates an assembler over the given repositories
func NewFactsAssembler(
	matches repository.MatchRepository,
	teamStats repository.TeamStatsRepository,
	odds repository.OddsRepository,
	logger *logrus.Logger,
) *FactsAssembler {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.PanicLevel)
	}
	return &FactsAssembler{
		matches:   matches,
		teamStats: teamStats,
		odds:      odds,
		logger:    logger.WithField("component", "facts_assembler"),
	}
}

// Assemble gathers everything the pipeline needs to evaluate one match.
// All history lookups are cut off at kickoff so assembled facts are safe
// for retrospective evaluation.
func (a *FactsAssembler) Assemble(ctx context.Context, match *models.Match) (*models.MatchFacts, error) {
	kickoff := match.KickoffTime

	homeStats, err := a.teamStats.GetAsOf(ctx, match.HomeTeamID, kickoff)
	if err != nil {
		return nil, fmt.Errorf("loading home team stats: %w", err)
	}
	awayStats, err := a.teamStats.GetAsOf(ctx, match.AwayTeamID, kickoff)
	if err != nil {
		return nil, fmt.Errorf("loading away team stats: %w", err)
	}

	homeRecent, err := a.matches.GetRecentResults(ctx, match.HomeTeamID, kickoff, recentFormLimit)
	if err != nil {
		return nil, fmt.Errorf("loading home recent results: %w", err)
	}
	awayRecent, err := a.matches.GetRecentResults(ctx, match.AwayTeamID, kickoff, recentFormLimit)
	if err != nil {
		return nil, fmt.Errorf("loading away recent results: %w", err)
	}

	headToHead, err := a.matches.GetHeadToHead(ctx, match.HomeTeamID, match.AwayTeamID, kickoff, headToHeadLimit)
	if err != nil {
		return nil, fmt.Errorf("loading head-to-head: %w", err)
	}

	fatigue, err := a.fatigueInputs(ctx, match, homeRecent, awayRecent)
	if err != nil {
		return nil, fmt.Errorf("computing fatigue inputs: %w", err)
	}

	facts := &models.MatchFacts{
		Match:      *match,
		HomeStats:  *homeStats,
		AwayStats:  *awayStats,
		HomeRecent: homeRecent,
		AwayRecent: awayRecent,
		HeadToHead: headToHead,
		Fatigue:    fatigue,
	}

	// Odds and the final result are optional signals
	if latestOdds, err := a.odds.GetLatestByMatchID(ctx, match.ID); err == nil {
		facts.Odds = latestOdds
	} else if !errors.Is(err, models.ErrNotFound) {
		a.logger.WithError(err).WithField("match_id", match.ID).Warn("Failed to load odds snapshot")
	}

	if result, err := a.matches.GetResult(ctx, match.ID); err == nil {
		facts.Result = result
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("loading match result: %w", err)
	}

	return facts, nil
}

// AssembleByID loads the match and assembles its facts
func (a *FactsAssembler) AssembleByID(ctx context.Context, matchID uuid.UUID) (*models.MatchFacts, error) {
	match, err := a.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("loading match: %w", err)
	}
	return a.Assemble(ctx, match)
}

// FactsByDateRange assembles facts for every match with kickoff in
// [start, end), ordered chronologically. Matches whose facts cannot be
// assembled are skipped with a warning rather than failing the batch.
func (a *FactsAssembler) FactsByDateRange(ctx context.Context, start, end time.Time) ([]models.MatchFacts, error) {
	matches, err := a.matches.GetByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("loading matches in range: %w", err)
	}

	facts := make([]models.MatchFacts, 0, len(matches))
	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f, err := a.Assemble(ctx, match)
		if err != nil {
			a.logger.WithError(err).WithField("match_id", match.ID).Warn("Skipping match with incomplete facts")
			continue
		}
		facts = append(facts, *f)
	}

	return facts, nil
}

// fatigueInputs derives rest days and congestion counts from match history
func (a *FactsAssembler) fatigueInputs(
	ctx context.Context,
	match *models.Match,
	homeRecent, awayRecent []models.RecentResult,
) (models.FatigueInputs, error) {
	kickoff := match.KickoffTime
	windowStart := kickoff.AddDate(0, 0, -congestionWindowDays)

	homeCount, err := a.matches.CountInWindow(ctx, match.HomeTeamID, windowStart, kickoff)
	if err != nil {
		return models.FatigueInputs{}, err
	}
	awayCount, err := a.matches.CountInWindow(ctx, match.AwayTeamID, windowStart, kickoff)
	if err != nil {
		return models.FatigueInputs{}, err
	}

	return models.FatigueInputs{
		HomeRestDays:          restDays(kickoff, homeRecent),
		AwayRestDays:          restDays(kickoff, awayRecent),
		HomeMatchesLast14Days: homeCount,
		AwayMatchesLast14Days: awayCount,
	}, nil
}

// restDays returns full days between the most recent match and kickoff.
// Teams with no history are treated as fully rested.
func restDays(kickoff time.Time, recent []models.RecentResult) int {
	if len(recent) == 0 {
		return 14
	}
	days := int(kickoff.Sub(recent[0].MatchDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
