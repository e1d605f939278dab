package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jdvot/paris-sportif/internal/adaptive"
	"github.com/jdvot/paris-sportif/internal/calibration"
	"github.com/jdvot/paris-sportif/internal/classifier"
	"github.com/jdvot/paris-sportif/internal/config"
	"github.com/jdvot/paris-sportif/internal/ensemble"
	"github.com/jdvot/paris-sportif/internal/features"
	"github.com/jdvot/paris-sportif/internal/logger"
	"github.com/jdvot/paris-sportif/internal/models"
	"github.com/jdvot/paris-sportif/internal/statmodel"
)

// minHistoryMatches is the minimum completed matches each team needs
// before statistical averages are trusted for a prediction
const minHistoryMatches = 5

// Predictor runs the full model stack for one fixture: feature
// engineering, the statistical base models, the optional classifier, the
// adaptive-weighted ensemble, and calibration. It holds per-instance ELO
// state so the backtester can rebuild one per fold without leakage.
type Predictor struct {
	engineer   *features.Engineer
	poisson    *statmodel.PoissonModel
	dixonColes *statmodel.DixonColesModel
	elo        *statmodel.EloModel
	advElo     *statmodel.AdvancedEloModel
	tracker    *statmodel.EloTracker

	classifier classifier.Predictor
	calculator *adaptive.Calculator
	calibrator *calibration.Calibrator
	combiner   *ensemble.Combiner

	metric           adaptive.Metric
	calibrateOnTrain bool
	predLog          *logger.PredictionLogger
	log              *logrus.Entry
}

// NewPredictor assembles the model stack from configuration. The
// classifier and calibrator are optional; a nil classifier means the
// ensemble runs on statistical models only.
func NewPredictor(
	cfg *config.Config,
	cls classifier.Predictor,
	calculator *adaptive.Calculator,
	calibrator *calibration.Calibrator,
	baseLogger *logrus.Logger,
) (*Predictor, error) {
	if calculator == nil {
		return nil, fmt.Errorf("adaptive calculator is required")
	}
	if baseLogger == nil {
		baseLogger = logrus.New()
		baseLogger.SetLevel(logrus.PanicLevel)
	}

	ens := cfg.Ensemble
	combinerParams := ensemble.Params{
		MaxLogOddsAdjustment: ens.MaxLogOddsAdjustment,
		DrawDamping:          ens.DrawDamping,
		ConfidenceFloor:      ens.ConfidenceFloor,
		ConfidenceCeiling:    ens.ConfidenceCeiling,
		MarginSaturation:     ensemble.DefaultParams().MarginSaturation,
	}

	metric := adaptive.Metric(cfg.Adaptive.PerformanceMetric)
	if !metric.IsValid() {
		metric = adaptive.MetricAccuracy
	}

	return &Predictor{
		engineer:         features.NewEngineer(features.DefaultParams()),
		poisson:          statmodel.NewPoissonModel(ens.HomeAdvantage),
		dixonColes:       statmodel.NewDixonColesModel(ens.HomeAdvantage, ens.DixonColesRho),
		elo:              statmodel.NewEloModel(-1),
		advElo:           statmodel.NewAdvancedEloModel(-1),
		tracker:          statmodel.NewEloTracker(0),
		classifier:       cls,
		calculator:       calculator,
		calibrator:       calibrator,
		combiner:         ensemble.NewCombiner(combinerParams, baseLogger),
		metric:           metric,
		calibrateOnTrain: cfg.Backtest.CalibrateInFolds,
		predLog:          logger.NewPredictionLogger(baseLogger),
		log:              baseLogger.WithField("component", "predictor"),
	}, nil
}

// NewFoldPredictor builds a self-contained predictor for one backtest
// fold: in-memory record store, fresh ELO tracker, fresh calibrator.
func NewFoldPredictor(cfg *config.Config, cls classifier.Predictor, baseLogger *logrus.Logger) (*Predictor, error) {
	params := adaptive.DefaultParams()
	params.RollingWindow = cfg.AdaptiveWindow()
	params.MinSamples = cfg.Adaptive.MinSamples
	params.Temperature = cfg.Adaptive.Temperature
	params.FloorWeight = cfg.Adaptive.WeightFloor

	calculator, err := adaptive.NewCalculator(adaptive.NewMemoryStore(), params, baseLogger)
	if err != nil {
		return nil, fmt.Errorf("creating fold calculator: %w", err)
	}

	var calibrator *calibration.Calibrator
	if cfg.Calibration.Enabled {
		calibrator, err = calibration.New(calibration.Method(cfg.Calibration.Method), baseLogger)
		if err != nil {
			return nil, fmt.Errorf("creating fold calibrator: %w", err)
		}
	}

	return NewPredictor(cfg, cls, calculator, calibrator, baseLogger)
}

// Train replays completed matches chronologically: base models predict
// each match with pre-match state, the resolved records feed the adaptive
// weight store, ELO ratings update afterward. When fold calibration is
// enabled the training predictions also fit the calibrator.
func (p *Predictor) Train(ctx context.Context, facts []models.MatchFacts) error {
	p.tracker = statmodel.NewEloTracker(0)
	p.calculator.InvalidateCache()

	var samples []calibration.Sample

	for i := range facts {
		if err := ctx.Err(); err != nil {
			return err
		}

		f := &facts[i]
		if f.Result == nil {
			continue
		}
		actual := f.Result.Outcome()

		// Records keep their wall-clock append time so the rolling
		// performance window sees the whole training replay
		contributions := p.contributions(ctx, f, false)
		for _, contrib := range contributions {
			record := models.NewPredictionRecord(contrib.Model, f.Match.ID, contrib.Probabilities)
			if err := record.Resolve(actual, f.Result.CompletedAt); err != nil {
				continue
			}
			if err := p.calculator.Append(ctx, record); err != nil {
				return fmt.Errorf("appending training record: %w", err)
			}
		}

		if p.calibrateOnTrain && p.calibrator != nil && len(contributions) > 0 {
			if pred, err := p.combiner.Combine(contributions, nil, nil); err == nil {
				samples = append(samples, calibration.Sample{
					Probabilities: pred.Probabilities,
					Actual:        actual,
				})
			}
		}

		p.tracker.Update(f.Match.HomeTeamID, f.Match.AwayTeamID, *f.Result)
	}

	if p.calibrateOnTrain && p.calibrator != nil && len(samples) >= calibration.RecommendedMinSamples {
		if err := p.calibrator.Fit(samples); err != nil {
			p.log.WithError(err).Warn("Calibrator fit failed; predictions will be uncalibrated")
		}
	}

	return nil
}

// Predict produces an ensemble prediction without contextual signals
func (p *Predictor) Predict(ctx context.Context, facts models.MatchFacts) (*ensemble.Prediction, error) {
	return p.PredictWithContext(ctx, facts, nil)
}

// PredictWithContext produces an ensemble prediction, applying the
// contextual adjustment when one is available
func (p *Predictor) PredictWithContext(
	ctx context.Context,
	facts models.MatchFacts,
	adjustment *ensemble.ContextualAdjustment,
) (*ensemble.Prediction, error) {
	if !facts.HomeStats.HasMinimumHistory(minHistoryMatches) ||
		!facts.AwayStats.HasMinimumHistory(minHistoryMatches) {
		return nil, fmt.Errorf("%w: team history below %d matches", models.ErrInsufficientData, minHistoryMatches)
	}

	start := time.Now()
	matchID := facts.Match.ID

	contributions := p.contributions(ctx, &facts, true)
	if len(contributions) == 0 {
		return nil, fmt.Errorf("%w: no model produced a contribution", models.ErrInsufficientData)
	}

	prediction, err := p.combiner.Combine(contributions, adjustment, facts.Odds)
	if err != nil {
		return nil, fmt.Errorf("combining contributions: %w", err)
	}
	prediction.MatchID = matchID.String()

	if p.calibrator != nil {
		calibrated, applied := p.calibrator.Calibrate(prediction.Probabilities)
		if applied {
			prediction.Probabilities = calibrated
			prediction.Calibrated = true
			prediction.RecommendedOutcome, _ = calibrated.Max()
			if facts.Odds != nil && facts.Odds.IsValid() {
				value := calibrated.ForOutcome(prediction.RecommendedOutcome)*
					facts.Odds.ForOutcome(prediction.RecommendedOutcome) - 1
				if value > 1 {
					value = 1
				} else if value < -1 {
					value = -1
				}
				prediction.ValueScore = &value
			}
		}
	}

	p.predLog.LogPredictionGenerated(
		prediction.MatchID,
		string(prediction.RecommendedOutcome),
		prediction.Probabilities.Home,
		prediction.Probabilities.Draw,
		prediction.Probabilities.Away,
		prediction.Confidence,
		len(contributions),
		float64(time.Since(start).Microseconds())/1000.0,
	)

	return prediction, nil
}

// EnsembleModelName tags record-log entries holding the blended output
// rather than a base model's
const EnsembleModelName = "ensemble"

// RecordPrediction appends one unresolved record per contributing model,
// plus one for the blended output, so future outcomes can re-weight the
// ensemble and refresh calibration
func (p *Predictor) RecordPrediction(ctx context.Context, prediction *ensemble.Prediction, facts models.MatchFacts) error {
	for _, contrib := range prediction.Contributions {
		record := models.NewPredictionRecord(contrib.Model, facts.Match.ID, contrib.Probabilities)
		if err := p.calculator.Append(ctx, record); err != nil {
			return fmt.Errorf("appending prediction record: %w", err)
		}
	}
	ensembleRecord := models.NewPredictionRecord(EnsembleModelName, facts.Match.ID, prediction.Probabilities)
	if err := p.calculator.Append(ctx, ensembleRecord); err != nil {
		return fmt.Errorf("appending ensemble record: %w", err)
	}
	return nil
}

// Weights exposes the current adaptive weight table
func (p *Predictor) Weights(ctx context.Context) (*adaptive.Weights, error) {
	return p.calculator.Weights(ctx, p.metric)
}

// contributions runs every available model against the assembled facts.
// A failing classifier degrades to a missing contribution; the
// statistical models cannot fail on clamped inputs.
func (p *Predictor) contributions(ctx context.Context, facts *models.MatchFacts, logModels bool) []ensemble.Contribution {
	weights, err := p.calculator.Weights(ctx, p.metric)
	if err != nil {
		p.log.WithError(err).Warn("Adaptive weights unavailable; using confidence-only blend")
		weights = nil
	}

	statConfidence := historyConfidence(facts.HomeStats, facts.AwayStats)
	contributions := make([]ensemble.Contribution, 0, 5)

	add := func(model string, probs models.Probabilities, confidence float64) {
		contrib := ensemble.Contribution{
			Model:         model,
			Probabilities: probs.Normalized(),
			Weight:        weights.For(model),
			Confidence:    confidence,
		}
		contributions = append(contributions, contrib)
		if logModels {
			p.predLog.LogModelContribution(
				facts.Match.ID.String(), model,
				contrib.Probabilities.Home, contrib.Probabilities.Draw, contrib.Probabilities.Away,
				contrib.Weight, contrib.Confidence,
			)
		}
	}

	if probs, err := p.poisson.Predict(facts.HomeStats, facts.AwayStats); err == nil {
		add(p.poisson.Name(), probs, statConfidence)
	}

	if facts.XG != nil {
		if probs, err := p.dixonColes.PredictFromExpectedGoals(*facts.XG); err == nil {
			add(p.dixonColes.Name(), probs, statConfidence)
		}
	} else if probs, err := p.dixonColes.Predict(facts.HomeStats, facts.AwayStats); err == nil {
		add(p.dixonColes.Name(), probs, statConfidence)
	}

	homeRating, awayRating := p.ratings(facts)
	eloProbs, eloConfidence := p.elo.Predict(homeRating, awayRating)
	add(p.elo.Name(), eloProbs, eloConfidence)

	advProbs, advConfidence := p.advElo.Predict(homeRating, awayRating, facts.HomeRecent, facts.AwayRecent)
	add(p.advElo.Name(), advProbs, advConfidence)

	if contrib, ok := p.classifierContribution(ctx, facts, weights); ok {
		contributions = append(contributions, contrib)
		if logModels {
			p.predLog.LogModelContribution(
				facts.Match.ID.String(), contrib.Model,
				contrib.Probabilities.Home, contrib.Probabilities.Draw, contrib.Probabilities.Away,
				contrib.Weight, contrib.Confidence,
			)
		}
	}

	return contributions
}

// classifierContribution calls the classifier with whichever feature
// projection matches its declared schema
func (p *Predictor) classifierContribution(
	ctx context.Context,
	facts *models.MatchFacts,
	weights *adaptive.Weights,
) (ensemble.Contribution, bool) {
	if p.classifier == nil {
		return ensemble.Contribution{}, false
	}

	vector := p.engineer.EngineerFromFacts(*facts)

	var input []float64
	switch p.classifier.FeatureCount() {
	case features.FeatureCount:
		input = vector.AsSlice()
	case features.LegacyFeatureCount:
		input = vector.LegacySlice()
	default:
		p.predLog.LogClassifierFallback(facts.Match.ID.String(),
			fmt.Sprintf("unsupported feature count %d", p.classifier.FeatureCount()))
		return ensemble.Contribution{}, false
	}

	result, err := p.classifier.Predict(ctx, facts.Match.ID, input)
	if err != nil {
		p.predLog.LogClassifierFallback(facts.Match.ID.String(), err.Error())
		return ensemble.Contribution{}, false
	}

	return ensemble.Contribution{
		Model:         "classifier",
		Probabilities: result.Probabilities.Normalized(),
		Weight:        weights.For("classifier"),
		Confidence:    result.Confidence,
	}, true
}

// ratings prefers tracker state built from a training replay; before any
// replay the persisted team ratings stand in
func (p *Predictor) ratings(facts *models.MatchFacts) (home, away float64) {
	if p.tracker.Len() == 0 {
		home = facts.HomeStats.EloRating
		away = facts.AwayStats.EloRating
		if home <= 0 {
			home = 1500
		}
		if away <= 0 {
			away = 1500
		}
		return home, away
	}
	return p.tracker.Rating(facts.Match.HomeTeamID), p.tracker.Rating(facts.Match.AwayTeamID)
}

// historyConfidence scores the statistical models' confidence by the
// thinner of the two teams' match histories, in [0.5, 0.9]
func historyConfidence(home, away models.TeamStats) float64 {
	played := home.MatchesPlayed
	if away.MatchesPlayed < played {
		played = away.MatchesPlayed
	}
	if played > 10 {
		played = 10
	}
	return 0.5 + 0.04*float64(played)
}
