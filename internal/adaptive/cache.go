package adaptive

import (
	"time"

	cache "github.com/patrickmn/go-cache"
)

// weightsCache makes the caching contract explicit: a value with an expiry
// and an Invalidate operation, rather than invalidation implied by call
// order. Backed by go-cache, whose operations are internally locked, so a
// reader during invalidation sees either the prior valid value or a miss —
// never a partial table.
type weightsCache struct {
	c   *cache.Cache
	ttl time.Duration
}

func newWeightsCache(ttl time.Duration) *weightsCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &weightsCache{
		c:   cache.New(ttl, ttl*2),
		ttl: ttl,
	}
}

// Get returns the cached weights for a metric, or nil on miss/expiry
func (wc *weightsCache) Get(metric Metric) *Weights {
	if v, ok := wc.c.Get(string(metric)); ok {
		if w, ok := v.(*Weights); ok {
			return w
		}
	}
	return nil
}

// Set stores freshly computed weights for the validity window
func (wc *weightsCache) Set(metric Metric, w *Weights) {
	wc.c.Set(string(metric), w, wc.ttl)
}

// Invalidate drops all cached weight tables atomically
func (wc *weightsCache) Invalidate() {
	wc.c.Flush()
}
