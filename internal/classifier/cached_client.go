// Package classifier provides the cached classifier client implementation.
package classifier

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jdvot/paris-sportif/internal/config"
)

// CachedClient wraps Client with prediction caching
type CachedClient struct {
	client *Client
	cache  *PredictionCache
	logger *logrus.Logger
}

// NewCachedClient creates a classifier client with a prediction cache
func NewCachedClient(ctx context.Context, cfg *config.ClassifierConfig, logger *logrus.Logger) (*CachedClient, error) {
	client, err := NewClient(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	cache := NewPredictionCache(
		time.Duration(cfg.CacheTTLSeconds)*time.Second,
		cfg.CacheMaxSize,
	)

	return &CachedClient{
		client: client,
		cache:  cache,
		logger: logger,
	}, nil
}

// Predict returns a cached prediction when available, otherwise calls the
// service and caches the result
func (c *CachedClient) Predict(ctx context.Context, matchID uuid.UUID, features []float64) (*PredictionResult, error) {
	key := CacheKey{MatchID: matchID, ModelVersion: c.client.Schema().ModelVersion}
	if cached := c.cache.Get(ctx, key); cached != nil {
		PredictionsTotal.WithLabelValues(c.client.Schema().ModelType, "true").Inc()
		return cached, nil
	}

	result, err := c.client.Predict(ctx, matchID, features)
	if err != nil {
		return nil, err
	}
	c.cache.Set(ctx, key, result)
	return result, nil
}

// FeatureCount returns the declared input length
func (c *CachedClient) FeatureCount() int {
	return c.client.FeatureCount()
}

// Schema returns the negotiated model schema
func (c *CachedClient) Schema() Schema {
	return c.client.Schema()
}

// CacheStats returns prediction cache hit and miss counts
func (c *CachedClient) CacheStats() (hits, misses uint64) {
	return c.cache.Stats()
}

// Reload re-negotiates the schema and drops predictions cached for the
// previous model version
func (c *CachedClient) Reload(ctx context.Context) error {
	oldVersion := c.client.Schema().ModelVersion
	if err := c.client.Reload(ctx); err != nil {
		return err
	}
	if newVersion := c.client.Schema().ModelVersion; newVersion != oldVersion {
		c.cache.InvalidateVersion(ctx, oldVersion)
		c.logger.WithFields(logrus.Fields{
			"old_version": oldVersion,
			"new_version": newVersion,
		}).Info("Classifier model version changed; stale cache entries dropped")
	}
	return nil
}

// HealthCheck checks classifier service health
func (c *CachedClient) HealthCheck(ctx context.Context) error {
	return c.client.HealthCheck(ctx)
}

// Close releases client resources
func (c *CachedClient) Close() {
	c.client.Close()
}
