package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/jdvot/paris-sportif/internal/config"
	"github.com/jdvot/paris-sportif/internal/ensemble"
	"github.com/jdvot/paris-sportif/internal/models"
)

// NewsContextClient implements ContextSource against a team news aggregator API
type NewsContextClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	enabled    bool
	logger     *log.Logger
}

// newsContextResponse is the wire format of the aggregator's match context report
type newsContextResponse struct {
	MatchID          string  `json:"matchId"`
	InjuryImpactHome float64 `json:"injuryImpactHome"`
	InjuryImpactAway float64 `json:"injuryImpactAway"`
	SentimentHome    float64 `json:"sentimentHome"`
	SentimentAway    float64 `json:"sentimentAway"`
	TacticalEdge     float64 `json:"tacticalEdge"`
	Summary          string  `json:"summary"`
}

// NewNewsContextClient creates a team news client from configuration
func NewNewsContextClient(cfg *config.NewsSourceConfig, logger *log.Logger) *NewsContextClient {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	httpCfg := DefaultHTTPClientConfig()
	if cfg.TimeoutSeconds > 0 {
		httpCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.RateLimitPerSecond > 0 {
		httpCfg.RateLimit = cfg.RateLimitPerSecond
	}

	return &NewsContextClient{
		httpClient: NewRateLimitedHTTPClient(httpCfg, logger),
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		enabled:    cfg.Enabled,
		logger:     logger,
	}
}

// FetchContext retrieves injury, sentiment and tactical signals for a match.
// Out-of-range provider values are clamped to the documented signal ranges.
func (c *NewsContextClient) FetchContext(ctx context.Context, match *models.Match) (*ensemble.ContextualAdjustment, error) {
	if !c.enabled {
		return nil, NewDataSourceError(c.Name(), ErrCodeNetworkError, dataSourceDisabledMsg, ErrSourceDisabled)
	}

	url := fmt.Sprintf("%s/matches/%s/context", c.baseURL, match.ID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewDataSourceError(c.Name(), ErrCodeNetworkError, "failed to create request", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, NewDataSourceError(c.Name(), ErrCodeNetworkError, "request failed", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		// No report for this match is normal when team news is sparse
		return nil, NewDataSourceError(c.Name(), ErrCodeNotFound, "no context report", ErrNotFound)
	case http.StatusUnauthorized:
		return nil, NewDataSourceError(c.Name(), ErrCodeAuthenticationFailed, "invalid API key", ErrAuthenticationFailed)
	case http.StatusTooManyRequests:
		return nil, NewDataSourceError(c.Name(), ErrCodeRateLimitExceeded, "rate limit exceeded", ErrRateLimitExceeded)
	default:
		return nil, NewDataSourceError(c.Name(), ErrCodeServerError,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), ErrServerError)
	}

	var report newsContextResponse
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, NewDataSourceError(c.Name(), ErrCodeInvalidData, "failed to parse response", err)
	}

	adjustment := ensemble.ContextualAdjustment{
		InjuryImpactHome: report.InjuryImpactHome,
		InjuryImpactAway: report.InjuryImpactAway,
		SentimentHome:    report.SentimentHome,
		SentimentAway:    report.SentimentAway,
		TacticalEdge:     report.TacticalEdge,
		Reasoning:        report.Summary,
	}.Clamped()

	return &adjustment, nil
}

// Name returns the data source name
func (c *NewsContextClient) Name() string {
	return "news_context"
}

// IsEnabled returns whether this data source is enabled
func (c *NewsContextClient) IsEnabled() bool {
	return c.enabled
}

// Close releases HTTP resources
func (c *NewsContextClient) Close() error {
	return c.httpClient.Close()
}
