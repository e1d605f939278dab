// Package classifier provides the HTTP client for the classifier service.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jdvot/paris-sportif/internal/config"
	"github.com/jdvot/paris-sportif/internal/models"
)

// Predictor is the inference contract the prediction pipeline consumes. The
// classifier declares its expected feature-vector length so the feature
// engineer's output shape can be validated before inference.
type Predictor interface {
	Predict(ctx context.Context, matchID uuid.UUID, features []float64) (*PredictionResult, error)
	FeatureCount() int
}

// Schema is the classifier's declared input contract, negotiated once at
// load time rather than inferred per call
type Schema struct {
	FeatureCount int    `json:"feature_count"`
	ModelType    string `json:"model_type"`
	ModelVersion string `json:"model_version"`
}

// PredictionResult is a classifier inference output
type PredictionResult struct {
	MatchID       uuid.UUID            `json:"match_id"`
	Probabilities models.Probabilities `json:"probabilities"`
	Confidence    float64              `json:"confidence"`
	ModelVersion  string               `json:"model_version"`
	PredictedAt   time.Time            `json:"predicted_at"`
}

// Client is an HTTP client for the classifier service. Its lifecycle is
// owned by the caller: construct, Reload after retraining, Close on
// teardown.
type Client struct {
	client  *http.Client
	baseURL string
	logger  *logrus.Logger

	mu     sync.RWMutex
	schema Schema
}

type predictRequest struct {
	MatchID  string    `json:"match_id"`
	Features []float64 `json:"features"`
}

type predictResponse struct {
	Probabilities [3]float64 `json:"probabilities"`
	Confidence    float64    `json:"confidence"`
	ModelVersion  string     `json:"model_version"`
}

// NewClient creates a classifier client and negotiates the model schema
func NewClient(ctx context.Context, cfg *config.ClassifierConfig, logger *logrus.Logger) (*Client, error) {
	c := &Client{
		client: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		},
		baseURL: cfg.HTTPAddress,
		logger:  logger,
	}

	if err := c.Reload(ctx); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"address":       cfg.HTTPAddress,
		"model_type":    c.Schema().ModelType,
		"feature_count": c.Schema().FeatureCount,
	}).Info("Connected to classifier service")
	return c, nil
}

// Schema returns the negotiated schema
func (c *Client) Schema() Schema {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.schema
}

// FeatureCount returns the declared input length
func (c *Client) FeatureCount() int {
	return c.Schema().FeatureCount
}

// Reload re-negotiates the schema, picking up a retrained model
func (c *Client) Reload(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/model/schema", nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		ErrorsTotal.WithLabelValues("reload", "network").Inc()
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		ErrorsTotal.WithLabelValues("reload", "http_error").Inc()
		return fmt.Errorf("%w: schema request returned status %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var schema Schema
	if err := json.NewDecoder(resp.Body).Decode(&schema); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if schema.FeatureCount <= 0 {
		return fmt.Errorf("%w: declared feature count %d", ErrInvalidResponse, schema.FeatureCount)
	}

	c.mu.Lock()
	c.schema = schema
	c.mu.Unlock()
	SchemaReloadsTotal.Inc()
	return nil
}

// Predict runs inference for one feature vector. The vector length is
// validated against the negotiated schema before the request is made.
func (c *Client) Predict(ctx context.Context, matchID uuid.UUID, features []float64) (*PredictionResult, error) {
	schema := c.Schema()
	if len(features) != schema.FeatureCount {
		return nil, fmt.Errorf("%w: got %d features, schema declares %d",
			ErrSchemaMismatch, len(features), schema.FeatureCount)
	}

	start := time.Now()
	defer func() {
		PredictionLatency.WithLabelValues(schema.ModelType).Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(predictRequest{MatchID: matchID.String(), Features: features})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/predict", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		ErrorsTotal.WithLabelValues("predict", "network").Inc()
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		ErrorsTotal.WithLabelValues("predict", "http_error").Inc()
		return nil, fmt.Errorf("%w: status %d: %s", ErrInvalidPrediction, resp.StatusCode, string(raw))
	}

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	probs := models.Probabilities{Home: pr.Probabilities[0], Draw: pr.Probabilities[1], Away: pr.Probabilities[2]}
	result := &PredictionResult{
		MatchID:       matchID,
		Probabilities: probs.Normalized(),
		Confidence:    clampConfidence(pr.Confidence),
		ModelVersion:  pr.ModelVersion,
		PredictedAt:   time.Now().UTC(),
	}
	PredictionsTotal.WithLabelValues(schema.ModelType, "false").Inc()
	return result, nil
}

// HealthCheck checks classifier service health
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	}
	return nil
}

// Close releases idle connections
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
