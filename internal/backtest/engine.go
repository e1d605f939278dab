package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jdvot/paris-sportif/internal/ensemble"
	"github.com/jdvot/paris-sportif/internal/logger"
	"github.com/jdvot/paris-sportif/internal/models"
)

// MatchSource provides historical match facts for replay, oldest first
type MatchSource interface {
	FactsByDateRange(ctx context.Context, start, end time.Time) ([]models.MatchFacts, error)
}

// Pipeline is a prediction pipeline trained from scratch inside one fold.
// Train replays the training window chronologically; Predict must only use
// state accumulated during Train.
type Pipeline interface {
	Train(ctx context.Context, history []models.MatchFacts) error
	Predict(ctx context.Context, facts models.MatchFacts) (*ensemble.Prediction, error)
}

// PipelineFactory builds a fresh pipeline for each fold so no state leaks
// across fold boundaries
type PipelineFactory func() (Pipeline, error)

// FoldResult pairs a fold with its out-of-sample metrics
type FoldResult struct {
	Fold       Fold       `json:"fold"`
	Metrics    Metrics    `json:"metrics"`
	Bets       []ValueBet `json:"bets,omitempty"`
	Skipped    bool       `json:"skipped"`
	SkipReason string     `json:"skip_reason,omitempty"`
}

// Result is the aggregate outcome of a walk-forward run
type Result struct {
	Folds       []FoldResult `json:"folds"`
	Summary     Metrics      `json:"summary"`
	Consistency float64      `json:"consistency"`
}

// Engine orchestrates walk-forward backtesting runs
type Engine struct {
	config      BacktestConfig
	source      MatchSource
	newPipeline PipelineFactory
	log         *logger.BacktestLogger
}

// NewEngine creates a new backtesting engine
func NewEngine(cfg BacktestConfig, source MatchSource, factory PipelineFactory, baseLogger *logrus.Logger) (*Engine, error) {
	if source == nil {
		return nil, fmt.Errorf("match source is required")
	}
	if factory == nil {
		return nil, fmt.Errorf("pipeline factory is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if baseLogger == nil {
		baseLogger = logrus.New()
	}

	return &Engine{
		config:      cfg,
		source:      source,
		newPipeline: factory,
		log:         logger.NewBacktestLogger(baseLogger),
	}, nil
}

// Config returns the backtest configuration
func (e *Engine) Config() BacktestConfig {
	return e.config
}

// Run executes every walk-forward fold. It checks for cancellation between
// folds, so a cancelled run returns the folds completed so far along with
// the context error.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	folds, err := GenerateFolds(e.config)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, fold := range folds {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		foldResult, err := e.runFold(ctx, fold)
		if err != nil {
			return result, fmt.Errorf("fold %d failed: %w", fold.Index, err)
		}
		result.Folds = append(result.Folds, foldResult)
	}

	completed := make([]FoldResult, 0, len(result.Folds))
	for _, f := range result.Folds {
		if !f.Skipped {
			completed = append(completed, f)
		}
	}
	result.Summary = CombineMetrics(completed, e.config.StartDate, e.config.EndDate)
	result.Consistency = CalculateConsistency(completed)

	e.log.LogBacktestSummary(
		len(completed),
		result.Summary.Predictions,
		result.Summary.ValueBets,
		result.Summary.Accuracy,
		result.Summary.Brier,
		result.Summary.ROI,
	)

	return result, nil
}

func (e *Engine) runFold(ctx context.Context, fold Fold) (FoldResult, error) {
	started := time.Now()

	trainFacts, err := e.source.FactsByDateRange(ctx, fold.TrainStart, fold.TrainEnd)
	if err != nil {
		return FoldResult{}, fmt.Errorf("loading training matches: %w", err)
	}
	if len(trainFacts) == 0 {
		e.log.LogFoldSkipped(fold.Index, "no matches in training window")
		return FoldResult{Fold: fold, Skipped: true, SkipReason: "no matches in training window"}, nil
	}

	testFacts, err := e.source.FactsByDateRange(ctx, fold.TestStart, fold.TestEnd)
	if err != nil {
		return FoldResult{}, fmt.Errorf("loading test matches: %w", err)
	}

	// Only completed matches can be scored
	scorable := testFacts[:0:0]
	for _, f := range testFacts {
		if f.Result != nil {
			scorable = append(scorable, f)
		}
	}

	if len(scorable) == 0 {
		e.log.LogFoldSkipped(fold.Index, "no completed matches in test window")
		return FoldResult{Fold: fold, Skipped: true, SkipReason: "no completed matches in test window"}, nil
	}

	e.log.LogFoldStart(fold.Index, fold.TrainStart, fold.TrainEnd, fold.TestStart, fold.TestEnd, len(trainFacts), len(scorable))

	pipeline, err := e.newPipeline()
	if err != nil {
		return FoldResult{}, fmt.Errorf("building pipeline: %w", err)
	}
	if err := pipeline.Train(ctx, trainFacts); err != nil {
		return FoldResult{}, fmt.Errorf("training pipeline: %w", err)
	}

	state := NewFoldState(e.config.InitialBankroll, fold.TestStart)
	for _, facts := range scorable {
		prediction, err := pipeline.Predict(ctx, facts)
		if err != nil {
			if errors.Is(err, models.ErrInsufficientData) {
				continue
			}
			return FoldResult{}, fmt.Errorf("predicting match %s: %w", facts.Match.ID, err)
		}

		actual := facts.Result.Outcome()
		state.RecordPrediction(ScoredPrediction{
			MatchID:       facts.Match.ID.String(),
			KickoffTime:   facts.Match.KickoffTime,
			Probabilities: prediction.Probabilities,
			Predicted:     prediction.RecommendedOutcome,
			Actual:        actual,
			Confidence:    prediction.Confidence,
		})

		for _, bet := range e.evaluateValueBets(facts, prediction, actual) {
			state.RecordBet(bet)
		}
	}

	metrics := CalculateMetrics(state, fold.TestStart, fold.TestEnd)
	e.log.LogFoldComplete(fold.Index, metrics.Predictions, metrics.Accuracy, metrics.Brier, metrics.LogLoss,
		float64(time.Since(started).Milliseconds()))

	return FoldResult{Fold: fold, Metrics: metrics, Bets: state.ValueBets}, nil
}

// evaluateValueBets simulates a flat-stake bet on every outcome whose
// predicted probability clears the threshold and implies an edge over the
// stored closing odds. Above a 0.5 threshold at most one outcome can
// qualify; lower thresholds may surface more than one.
func (e *Engine) evaluateValueBets(facts models.MatchFacts, prediction *ensemble.Prediction, actual models.Outcome) []ValueBet {
	if facts.Odds == nil || !facts.Odds.IsValid() {
		return nil
	}

	var bets []ValueBet
	for _, outcome := range models.Outcomes {
		prob := prediction.Probabilities.ForOutcome(outcome)
		odds := facts.Odds.ForOutcome(outcome)
		if prob < e.config.ValueThreshold || prob*odds <= 1 {
			continue
		}

		stake := e.config.StakePerBet
		won := actual == outcome
		pnl := -stake
		if won {
			pnl = stake * (odds - 1)
		}

		bets = append(bets, ValueBet{
			MatchID:   facts.Match.ID.String(),
			Outcome:   outcome,
			Odds:      odds,
			Stake:     stake,
			Won:       won,
			PnL:       pnl,
			SettledAt: facts.Result.CompletedAt,
		})
	}
	return bets
}
