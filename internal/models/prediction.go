package models

import (
	"time"

	"github.com/google/uuid"
)

// PredictionRecord is the per-model prediction audit trail consumed by the
// adaptive weight calculator. It is created at prediction time with the
// actual outcome unset and resolved exactly once when the result is known.
type PredictionRecord struct {
	ID            uuid.UUID     `db:"id" json:"id" validate:"required,uuid4"`
	ModelName     string        `db:"model_name" json:"model_name" validate:"required"`
	MatchID       uuid.UUID     `db:"match_id" json:"match_id" validate:"required,uuid4"`
	Predicted     Outcome       `db:"predicted" json:"predicted" validate:"required"`
	Actual        *Outcome      `db:"actual" json:"actual,omitempty"`
	Probabilities Probabilities `db:"probabilities" json:"probabilities"`
	PredictedAt   time.Time     `db:"predicted_at" json:"predicted_at" validate:"required"`
	ResolvedAt    *time.Time    `db:"resolved_at" json:"resolved_at,omitempty"`
}

// NewPredictionRecord creates an unresolved record for a model prediction
func NewPredictionRecord(modelName string, matchID uuid.UUID, probs Probabilities) *PredictionRecord {
	predicted, _ := probs.Max()
	return &PredictionRecord{
		ID:            uuid.New(),
		ModelName:     modelName,
		MatchID:       matchID,
		Predicted:     predicted,
		Probabilities: probs,
		PredictedAt:   time.Now().UTC(),
	}
}

// IsResolved reports whether the actual outcome has been recorded
func (r *PredictionRecord) IsResolved() bool {
	return r.Actual != nil
}

// Resolve records the actual outcome. A record is resolved exactly once and
// is immutable afterward.
func (r *PredictionRecord) Resolve(actual Outcome, at time.Time) error {
	if !actual.IsValid() {
		return ErrInvalidOutcome
	}
	if r.IsResolved() {
		return ErrAlreadyResolved
	}
	r.Actual = &actual
	r.ResolvedAt = &at
	return nil
}

// Correct reports whether the predicted outcome matched the actual one.
// Unresolved records are never correct.
func (r *PredictionRecord) Correct() bool {
	return r.Actual != nil && r.Predicted == *r.Actual
}
