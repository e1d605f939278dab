// Package ensemble merges the outputs of all available prediction models
// into a single calibratable probability triple, applying contextual
// log-odds adjustments and deriving agreement, confidence, and value
// scores.
package ensemble

import (
	"errors"
	"time"

	"github.com/jdvot/paris-sportif/internal/models"
)

var (
	// ErrNoContributions indicates no model produced a usable output
	ErrNoContributions = errors.New("insufficient data: no model contributions available")
)

// Contribution is one model's input to the ensemble: its probability
// triple, the weight assigned by the adaptive calculator, and the model's
// own confidence in this prediction. Contributions are created per
// prediction call and never persisted as entities.
type Contribution struct {
	Model         string               `json:"model"`
	Probabilities models.Probabilities `json:"probabilities"`
	Weight        float64              `json:"weight"`
	Confidence    float64              `json:"confidence"`
}

// Prediction is the final ensemble output exposed to collaborators
type Prediction struct {
	MatchID            string               `json:"match_id,omitempty"`
	Probabilities      models.Probabilities `json:"probabilities"`
	RecommendedOutcome models.Outcome       `json:"recommended_outcome"`
	Confidence         float64              `json:"confidence"`
	ValueScore         *float64             `json:"value_score,omitempty"`
	Contributions      []Contribution       `json:"model_contributions"`
	ModelAgreement     float64              `json:"model_agreement"`
	Uncertainty        float64              `json:"uncertainty"`
	Calibrated         bool                 `json:"calibrated"`
	AdjustmentApplied  bool                 `json:"adjustment_applied"`
	GeneratedAt        time.Time            `json:"generated_at"`
}
