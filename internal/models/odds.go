package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookmakerOdds is a point-in-time snapshot of decimal 1X2 odds for a match
type BookmakerOdds struct {
	Time      time.Time       `db:"time" json:"time" validate:"required"`
	MatchID   uuid.UUID       `db:"match_id" json:"match_id" validate:"required,uuid4"`
	Bookmaker string          `db:"bookmaker" json:"bookmaker" validate:"required"`
	Home      decimal.Decimal `db:"home" json:"home"`
	Draw      decimal.Decimal `db:"draw" json:"draw"`
	Away      decimal.Decimal `db:"away" json:"away"`
}

// ForOutcome returns the decimal odds for one outcome as a float
func (o *BookmakerOdds) ForOutcome(outcome Outcome) float64 {
	switch outcome {
	case OutcomeHome:
		return o.Home.InexactFloat64()
	case OutcomeDraw:
		return o.Draw.InexactFloat64()
	case OutcomeAway:
		return o.Away.InexactFloat64()
	}
	return 0
}

// IsValid checks that all three prices are above the minimum tradable odds
func (o *BookmakerOdds) IsValid() bool {
	one := decimal.NewFromInt(1)
	return o.Home.GreaterThan(one) && o.Draw.GreaterThan(one) && o.Away.GreaterThan(one)
}

// Overround returns the bookmaker margin: the sum of raw implied
// probabilities minus 1
func (o *BookmakerOdds) Overround() float64 {
	if !o.IsValid() {
		return 0
	}
	sum := 1/o.Home.InexactFloat64() + 1/o.Draw.InexactFloat64() + 1/o.Away.InexactFloat64()
	return sum - 1
}

// ImpliedProbabilities returns vig-removed probabilities for the three
// outcomes, normalized to sum to 1
func (o *BookmakerOdds) ImpliedProbabilities() Probabilities {
	if !o.IsValid() {
		return UniformProbabilities()
	}
	raw := Probabilities{
		Home: 1 / o.Home.InexactFloat64(),
		Draw: 1 / o.Draw.InexactFloat64(),
		Away: 1 / o.Away.InexactFloat64(),
	}
	return raw.Normalized()
}
