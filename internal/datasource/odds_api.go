package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jdvot/paris-sportif/internal/config"
	"github.com/jdvot/paris-sportif/internal/models"
)

// OddsAPIClient implements OddsSource against a bookmaker odds aggregator API
type OddsAPIClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	enabled    bool
	logger     *log.Logger
}

// oddsAPIEntry is the wire format of a single odds quote
type oddsAPIEntry struct {
	MatchID     string `json:"matchId"`
	Bookmaker   string `json:"bookmaker"`
	PublishedAt string `json:"publishedAt"`
	Home        string `json:"homeOdds"`
	Draw        string `json:"drawOdds"`
	Away        string `json:"awayOdds"`
}

// NewOddsAPIClient creates an odds feed client from configuration
func NewOddsAPIClient(cfg *config.OddsSourceConfig, logger *log.Logger) *OddsAPIClient {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	httpCfg := DefaultHTTPClientConfig()
	if cfg.TimeoutSeconds > 0 {
		httpCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.RetryAttempts > 0 {
		httpCfg.MaxRetries = cfg.RetryAttempts
	}
	if cfg.RateLimitPerSecond > 0 {
		httpCfg.RateLimit = cfg.RateLimitPerSecond
	}
	if cfg.CircuitBreakerTrips > 0 {
		httpCfg.CircuitBreakerMax = cfg.CircuitBreakerTrips
	}

	return &OddsAPIClient{
		httpClient: NewRateLimitedHTTPClient(httpCfg, logger),
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		enabled:    cfg.Enabled,
		logger:     logger,
	}
}

// FetchOdds retrieves the latest three-way odds for a specific match
func (c *OddsAPIClient) FetchOdds(ctx context.Context, matchID uuid.UUID) (*models.BookmakerOdds, error) {
	if !c.enabled {
		return nil, NewDataSourceError(c.Name(), ErrCodeNetworkError, dataSourceDisabledMsg, ErrSourceDisabled)
	}

	url := fmt.Sprintf("%s/odds/%s/latest", c.baseURL, matchID)

	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	var entry oddsAPIEntry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return nil, NewDataSourceError(c.Name(), ErrCodeInvalidData, "failed to parse response", err)
	}

	odds, err := convertOddsEntry(&entry)
	if err != nil {
		return nil, NewDataSourceError(c.Name(), ErrCodeInvalidData, "invalid odds entry", err)
	}
	return odds, nil
}

// FetchOddsBatch retrieves odds snapshots published within the date range
func (c *OddsAPIClient) FetchOddsBatch(ctx context.Context, startDate, endDate time.Time) ([]models.BookmakerOdds, error) {
	if !c.enabled {
		return nil, NewDataSourceError(c.Name(), ErrCodeNetworkError, dataSourceDisabledMsg, ErrSourceDisabled)
	}

	url := fmt.Sprintf("%s/odds?from=%s&to=%s", c.baseURL,
		startDate.UTC().Format(time.RFC3339), endDate.UTC().Format(time.RFC3339))

	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	var entries []oddsAPIEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, NewDataSourceError(c.Name(), ErrCodeInvalidData, "failed to parse response", err)
	}

	snapshots := make([]models.BookmakerOdds, 0, len(entries))
	for i := range entries {
		odds, err := convertOddsEntry(&entries[i])
		if err != nil {
			c.logger.Printf("Skipping malformed odds entry for match %s: %v", entries[i].MatchID, err)
			continue
		}
		snapshots = append(snapshots, *odds)
	}

	return snapshots, nil
}

// Name returns the data source name
func (c *OddsAPIClient) Name() string {
	return "odds_api"
}

// IsEnabled returns whether this data source is enabled
func (c *OddsAPIClient) IsEnabled() bool {
	return c.enabled
}

// Close releases HTTP resources
func (c *OddsAPIClient) Close() error {
	return c.httpClient.Close()
}

func (c *OddsAPIClient) get(ctx context.Context, url string) (*http.Response, error) {
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
	return resp, nil
}

func (c *OddsAPIClient) checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return NewDataSourceError(c.Name(), ErrCodeAuthenticationFailed, "invalid API key", ErrAuthenticationFailed)
	case resp.StatusCode == http.StatusNotFound:
		return NewDataSourceError(c.Name(), ErrCodeNotFound, "odds not found", ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return NewDataSourceError(c.Name(), ErrCodeRateLimitExceeded, "rate limit exceeded", ErrRateLimitExceeded)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return NewDataSourceError(c.Name(), ErrCodeServerError,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), ErrServerError)
	}
}

// convertOddsEntry converts the wire format to a BookmakerOdds snapshot
func convertOddsEntry(entry *oddsAPIEntry) (*models.BookmakerOdds, error) {
	matchID, err := uuid.Parse(entry.MatchID)
	if err != nil {
		return nil, fmt.Errorf("invalid match id %q: %w", entry.MatchID, err)
	}

	publishedAt, err := time.Parse(time.RFC3339, entry.PublishedAt)
	if err != nil {
		publishedAt = time.Now().UTC()
	}

	home, err := decimal.NewFromString(entry.Home)
	if err != nil {
		return nil, fmt.Errorf("invalid home odds %q: %w", entry.Home, err)
	}
	draw, err := decimal.NewFromString(entry.Draw)
	if err != nil {
		return nil, fmt.Errorf("invalid draw odds %q: %w", entry.Draw, err)
	}
	away, err := decimal.NewFromString(entry.Away)
	if err != nil {
		return nil, fmt.Errorf("invalid away odds %q: %w", entry.Away, err)
	}

	odds := &models.BookmakerOdds{
		Time:      publishedAt,
		MatchID:   matchID,
		Bookmaker: entry.Bookmaker,
		Home:      home,
		Draw:      draw,
		Away:      away,
	}

	if !odds.IsValid() {
		return nil, fmt.Errorf("odds below minimum price: %s/%s/%s", entry.Home, entry.Draw, entry.Away)
	}

	return odds, nil
}
