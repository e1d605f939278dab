// Package adaptive recomputes ensemble model weights from rolling
// historical performance, caching the result with a short validity window.
package adaptive

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jdvot/paris-sportif/internal/models"
)

// RecordStore is the persistence contract the calculator depends on. The
// postgres repository implements it for live use; the in-memory store backs
// tests and backtest folds.
type RecordStore interface {
	Append(ctx context.Context, record *models.PredictionRecord) error
	// RecentResolved returns resolved records predicted within the window
	// ending now, ordered oldest first
	RecentResolved(ctx context.Context, window time.Duration) ([]*models.PredictionRecord, error)
	// ResolveMatch resolves every unresolved record for a match and
	// returns how many records were updated
	ResolveMatch(ctx context.Context, matchID uuid.UUID, actual models.Outcome) (int, error)
	// TrimBefore drops records predicted before the cutoff
	TrimBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// MemoryStore is an in-memory RecordStore
type MemoryStore struct {
	mu      sync.RWMutex
	records []*models.PredictionRecord
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append adds a record to the log
func (s *MemoryStore) Append(_ context.Context, record *models.PredictionRecord) error {
	if record == nil {
		return models.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// RecentResolved returns resolved records inside the rolling window
func (s *MemoryStore) RecentResolved(_ context.Context, window time.Duration) ([]*models.PredictionRecord, error) {
	cutoff := time.Now().UTC().Add(-window)
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.PredictionRecord, 0, len(s.records))
	for _, r := range s.records {
		if r.IsResolved() && !r.PredictedAt.Before(cutoff) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PredictedAt.Before(out[j].PredictedAt) })
	return out, nil
}

// ResolveMatch resolves all unresolved records for the match
func (s *MemoryStore) ResolveMatch(_ context.Context, matchID uuid.UUID, actual models.Outcome) (int, error) {
	if !actual.IsValid() {
		return 0, models.ErrInvalidOutcome
	}
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()

	resolved := 0
	for _, r := range s.records {
		if r.MatchID != matchID || r.IsResolved() {
			continue
		}
		if err := r.Resolve(actual, now); err != nil {
			return resolved, err
		}
		resolved++
	}
	return resolved, nil
}

// TrimBefore drops records predicted before the cutoff
func (s *MemoryStore) TrimBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	dropped := 0
	for _, r := range s.records {
		if r.PredictedAt.Before(cutoff) {
			dropped++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return dropped, nil
}

// Len returns the number of stored records
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
