package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jdvot/paris-sportif/internal/adaptive"
	"github.com/jdvot/paris-sportif/internal/datasource"
	"github.com/jdvot/paris-sportif/internal/ensemble"
	"github.com/jdvot/paris-sportif/internal/logger"
	"github.com/jdvot/paris-sportif/internal/metrics"
	"github.com/jdvot/paris-sportif/internal/models"
	"github.com/jdvot/paris-sportif/internal/repository"
)

// PredictionService runs the end-to-end prediction workflow: fact
// assembly, concurrent enrichment (fresh odds, team news), the model
// stack, and record keeping.
type PredictionService struct {
	assembler  *FactsAssembler
	predictor  *Predictor
	calculator *adaptive.Calculator
	matches    repository.MatchRepository
	oddsRepo   repository.OddsRepository
	records    repository.PredictionRecordRepository

	oddsSource    datasource.OddsSource
	contextSource datasource.ContextSource

	predLog *logger.PredictionLogger
	log     *logrus.Entry
}

// NewPredictionService wires the orchestrator. The odds and context
// sources are optional; a nil or disabled source simply skips that
// enrichment.
func NewPredictionService(
	assembler *FactsAssembler,
	predictor *Predictor,
	calculator *adaptive.Calculator,
	matches repository.MatchRepository,
	oddsRepo repository.OddsRepository,
	records repository.PredictionRecordRepository,
	sources *datasource.Sources,
	baseLogger *logrus.Logger,
) (*PredictionService, error) {
	if assembler == nil || predictor == nil || calculator == nil {
		return nil, fmt.Errorf("assembler, predictor and calculator are required")
	}
	if baseLogger == nil {
		baseLogger = logrus.New()
		baseLogger.SetLevel(logrus.PanicLevel)
	}

	svc := &PredictionService{
		assembler:  assembler,
		predictor:  predictor,
		calculator: calculator,
		matches:    matches,
		oddsRepo:   oddsRepo,
		records:    records,
		predLog:    logger.NewPredictionLogger(baseLogger),
		log:        baseLogger.WithField("component", "prediction_service"),
	}
	if sources != nil {
		svc.oddsSource = sources.Odds
		svc.contextSource = sources.News
	}
	return svc, nil
}

// PredictMatch produces an ensemble prediction for one fixture. Fresh
// odds and team news are fetched concurrently; either failing degrades
// to a prediction without that signal.
func (s *PredictionService) PredictMatch(ctx context.Context, matchID uuid.UUID) (*ensemble.Prediction, error) {
	start := time.Now()

	facts, err := s.assembler.AssembleByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("assembling match facts: %w", err)
	}

	adjustment := s.enrich(ctx, facts)

	prediction, err := s.predictor.PredictWithContext(ctx, *facts, adjustment)
	if err != nil {
		return nil, err
	}

	if err := s.predictor.RecordPrediction(ctx, prediction, *facts); err != nil {
		s.log.WithError(err).WithField("match_id", matchID).Warn("Failed to persist prediction records")
	}

	metrics.RecordPrediction(
		string(prediction.RecommendedOutcome),
		prediction.Confidence,
		time.Since(start).Seconds(),
		prediction.Calibrated,
	)

	return prediction, nil
}

// PredictUpcoming predicts every scheduled fixture, skipping matches
// with insufficient history
func (s *PredictionService) PredictUpcoming(ctx context.Context, limit int) ([]*ensemble.Prediction, error) {
	upcoming, err := s.matches.GetUpcoming(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("loading upcoming matches: %w", err)
	}

	predictions := make([]*ensemble.Prediction, 0, len(upcoming))
	for _, match := range upcoming {
		if err := ctx.Err(); err != nil {
			return predictions, err
		}

		prediction, err := s.PredictMatch(ctx, match.ID)
		if err != nil {
			if errors.Is(err, models.ErrInsufficientData) {
				s.log.WithField("match_id", match.ID).Debug("Skipping match with insufficient history")
				continue
			}
			return predictions, fmt.Errorf("predicting match %s: %w", match.ID, err)
		}
		predictions = append(predictions, prediction)
	}

	return predictions, nil
}

// RecordOutcome stores a final score, resolves the match's pending
// prediction records, and reports how many were resolved
func (s *PredictionService) RecordOutcome(ctx context.Context, result *models.MatchResult) (int, error) {
	if err := s.matches.RecordResult(ctx, result); err != nil {
		return 0, fmt.Errorf("recording match result: %w", err)
	}

	actual := result.Outcome()
	resolved, err := s.calculator.RecordOutcome(ctx, result.MatchID, actual)
	if err != nil {
		return resolved, fmt.Errorf("resolving prediction records: %w", err)
	}

	if s.records != nil {
		if records, err := s.records.GetByMatchID(ctx, result.MatchID); err == nil {
			for _, record := range records {
				if !record.IsResolved() {
					continue
				}
				correct := record.Correct()
				s.predLog.LogOutcomeResolved(
					result.MatchID.String(),
					string(record.Predicted), string(actual),
					correct, *record.ResolvedAt,
				)
				metrics.RecordOutcomeResolved(correct)
			}
		}
	}

	return resolved, nil
}

// enrich fans out the optional signal fetches and joins them. Each
// failure is logged and counted, never fatal.
func (s *PredictionService) enrich(ctx context.Context, facts *models.MatchFacts) *ensemble.ContextualAdjustment {
	var (
		wg         sync.WaitGroup
		freshOdds  *models.BookmakerOdds
		adjustment *ensemble.ContextualAdjustment
	)

	if s.oddsSource != nil && s.oddsSource.IsEnabled() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			odds, err := s.oddsSource.FetchOdds(ctx, facts.Match.ID)
			if err != nil {
				s.log.WithError(err).WithField("match_id", facts.Match.ID).Warn("Odds enrichment failed")
				metrics.RecordEnrichmentFailure("odds")
				return
			}
			freshOdds = odds
		}()
	}

	if s.contextSource != nil && s.contextSource.IsEnabled() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			adj, err := s.contextSource.FetchContext(ctx, &facts.Match)
			if err != nil {
				if !errors.Is(err, datasource.ErrNotFound) {
					s.log.WithError(err).WithField("match_id", facts.Match.ID).Warn("Context enrichment failed")
					metrics.RecordEnrichmentFailure("news")
				}
				return
			}
			adjustment = adj
		}()
	}

	wg.Wait()

	if freshOdds != nil {
		facts.Odds = freshOdds
		if s.oddsRepo != nil {
			if err := s.oddsRepo.InsertBatch(ctx, []*models.BookmakerOdds{freshOdds}); err != nil {
				s.log.WithError(err).Warn("Failed to persist odds snapshot")
			} else {
				metrics.OddsSnapshotsIngestedTotal.Inc()
			}
		}
	}

	return adjustment
}
