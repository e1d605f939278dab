package statmodel

import (
	"sync"

	"github.com/google/uuid"

	"github.com/jdvot/paris-sportif/internal/models"
)

const (
	initialRating = 1500.0
	defaultK      = 24.0
)

// EloTracker maintains running ELO ratings for a set of teams. The
// backtester rebuilds one per fold from the training slice only, so ratings
// never leak information from test matches.
type EloTracker struct {
	mu      sync.RWMutex
	ratings map[uuid.UUID]float64
	model   *EloModel
	k       float64
}

// NewEloTracker creates a tracker with the given K-factor (0 uses the
// default)
func NewEloTracker(k float64) *EloTracker {
	if k <= 0 {
		k = defaultK
	}
	return &EloTracker{
		ratings: make(map[uuid.UUID]float64),
		model:   NewEloModel(defaultHomeBonus),
		k:       k,
	}
}

// Rating returns the current rating for a team, seeding new teams at the
// initial rating
func (t *EloTracker) Rating(teamID uuid.UUID) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if r, ok := t.ratings[teamID]; ok {
		return r
	}
	return initialRating
}

// Update applies a finished match to both teams' ratings
func (t *EloTracker) Update(homeID, awayID uuid.UUID, result models.MatchResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	home := t.ratingLocked(homeID)
	away := t.ratingLocked(awayID)
	expected := t.model.ExpectedScore(home, away)

	actual := 0.5
	switch result.Outcome() {
	case models.OutcomeHome:
		actual = 1.0
	case models.OutcomeAway:
		actual = 0.0
	}

	delta := t.k * (actual - expected)
	t.ratings[homeID] = home + delta
	t.ratings[awayID] = away - delta
}

// Len returns the number of tracked teams
func (t *EloTracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.ratings)
}

func (t *EloTracker) ratingLocked(teamID uuid.UUID) float64 {
	if r, ok := t.ratings[teamID]; ok {
		return r
	}
	return initialRating
}
