// Package classifier provides caching for classifier predictions.
package classifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
)

// CacheKey represents a unique key for caching classifier predictions
type CacheKey struct {
	MatchID      uuid.UUID
	ModelVersion string
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%s", k.MatchID, k.ModelVersion)
}

// PredictionCache provides in-memory caching for classifier predictions
type PredictionCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	maxSize   int
	mu        sync.RWMutex
	hitCount  uint64
	missCount uint64
}

// NewPredictionCache creates a new prediction cache
func NewPredictionCache(ttl time.Duration, maxSize int) *PredictionCache {
	return &PredictionCache{
		cache:   cache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves a cached prediction
func (pc *PredictionCache) Get(ctx context.Context, key CacheKey) *PredictionResult {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if result, found := pc.cache.Get(key.String()); found {
		pc.hitCount++
		pc.updateMetrics()
		if pred, ok := result.(*PredictionResult); ok {
			return pred
		}
	}

	pc.missCount++
	pc.updateMetrics()
	return nil
}

// Set stores a prediction in cache
func (pc *PredictionCache) Set(ctx context.Context, key CacheKey, prediction *PredictionResult) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	// Check size limit
	if pc.cache.ItemCount() >= pc.maxSize {
		// Remove expired items first
		pc.cache.DeleteExpired()
	}

	pc.cache.Set(key.String(), prediction, pc.ttl)
}

// InvalidateVersion removes cache entries for a specific model version,
// used when a retrained model replaces the old one
func (pc *PredictionCache) InvalidateVersion(ctx context.Context, modelVersion string) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	// Cache key format: matchID:modelVersion
	suffix := ":" + modelVersion
	for key := range pc.cache.Items() {
		if len(key) >= len(suffix) && key[len(key)-len(suffix):] == suffix {
			pc.cache.Delete(key)
		}
	}
}

// Clear removes all cached predictions
func (pc *PredictionCache) Clear() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.cache.Flush()
	pc.hitCount = 0
	pc.missCount = 0
}

// Stats returns hit and miss counts
func (pc *PredictionCache) Stats() (hits, misses uint64) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.hitCount, pc.missCount
}

func (pc *PredictionCache) updateMetrics() {
	total := pc.hitCount + pc.missCount
	if total == 0 {
		return
	}
	CacheHitRatio.Set(float64(pc.hitCount) / float64(total))
}
