package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jdvot/paris-sportif/internal/config"
	"github.com/jdvot/paris-sportif/internal/models"
)

func testOddsConfig(baseURL string) *config.OddsSourceConfig {
	return &config.OddsSourceConfig{
		BaseURL:             baseURL,
		APIKey:              "test-key",
		Enabled:             true,
		TimeoutSeconds:      5,
		RateLimitPerSecond:  100,
		RetryAttempts:       0,
		CircuitBreakerTrips: 3,
	}
}

func testNewsConfig(baseURL string) *config.NewsSourceConfig {
	return &config.NewsSourceConfig{
		BaseURL:            baseURL,
		APIKey:             "test-key",
		Enabled:            true,
		TimeoutSeconds:     5,
		RateLimitPerSecond: 100,
	}
}

func TestOddsAPIClientFetchOdds(t *testing.T) {
	matchID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(oddsAPIEntry{
			MatchID:     matchID.String(),
			Bookmaker:   "pinnacle",
			PublishedAt: time.Now().UTC().Format(time.RFC3339),
			Home:        "2.10",
			Draw:        "3.40",
			Away:        "3.60",
		})
	}))
	defer server.Close()

	client := NewOddsAPIClient(testOddsConfig(server.URL), nil)
	defer client.Close()

	odds, err := client.FetchOdds(context.Background(), matchID)
	if err != nil {
		t.Fatalf("FetchOdds failed: %v", err)
	}

	if odds.MatchID != matchID {
		t.Errorf("Expected match ID %s, got %s", matchID, odds.MatchID)
	}
	if odds.Bookmaker != "pinnacle" {
		t.Errorf("Expected bookmaker pinnacle, got %s", odds.Bookmaker)
	}
	if got := odds.ForOutcome(models.OutcomeHome); got != 2.10 {
		t.Errorf("Expected home odds 2.10, got %f", got)
	}
}

func TestOddsAPIClientErrorCodes(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantErr    error
		wantCode   string
	}{
		{"Unauthorized", http.StatusUnauthorized, ErrAuthenticationFailed, ErrCodeAuthenticationFailed},
		{"NotFound", http.StatusNotFound, ErrNotFound, ErrCodeNotFound},
		{"ServerError", http.StatusBadRequest, ErrServerError, ErrCodeServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewOddsAPIClient(testOddsConfig(server.URL), nil)
			defer client.Close()

			_, err := client.FetchOdds(context.Background(), uuid.New())
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected errors.Is(%v), got %v", tt.wantErr, err)
			}

			var dsErr DataSourceError
			if !errors.As(err, &dsErr) {
				t.Fatalf("Expected DataSourceError, got %T", err)
			}
			if dsErr.Code != tt.wantCode {
				t.Errorf("Expected code %s, got %s", tt.wantCode, dsErr.Code)
			}
		})
	}
}

func TestOddsAPIClientDisabled(t *testing.T) {
	cfg := testOddsConfig("http://localhost:1")
	cfg.Enabled = false

	client := NewOddsAPIClient(cfg, nil)
	defer client.Close()

	_, err := client.FetchOdds(context.Background(), uuid.New())
	if !errors.Is(err, ErrSourceDisabled) {
		t.Errorf("Expected ErrSourceDisabled, got %v", err)
	}
}

func TestOddsAPIClientBatchSkipsMalformed(t *testing.T) {
	good := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]oddsAPIEntry{
			{MatchID: good.String(), Bookmaker: "bet365", PublishedAt: "2026-03-01T12:00:00Z", Home: "1.95", Draw: "3.50", Away: "4.00"},
			{MatchID: "not-a-uuid", Bookmaker: "bet365", PublishedAt: "2026-03-01T12:00:00Z", Home: "2.00", Draw: "3.30", Away: "3.80"},
			{MatchID: good.String(), Bookmaker: "bet365", PublishedAt: "2026-03-01T13:00:00Z", Home: "0.50", Draw: "3.30", Away: "3.80"},
		})
	}))
	defer server.Close()

	client := NewOddsAPIClient(testOddsConfig(server.URL), nil)
	defer client.Close()

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	snapshots, err := client.FetchOddsBatch(context.Background(), start, start.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("FetchOddsBatch failed: %v", err)
	}

	// Invalid UUID and sub-1.0 price entries are dropped
	if len(snapshots) != 1 {
		t.Fatalf("Expected 1 valid snapshot, got %d", len(snapshots))
	}
	if snapshots[0].MatchID != good {
		t.Errorf("Expected match %s, got %s", good, snapshots[0].MatchID)
	}
}

func TestNewsContextClientFetchContext(t *testing.T) {
	match := &models.Match{ID: uuid.New(), HomeTeam: "PSG", AwayTeam: "Lyon"}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(newsContextResponse{
			MatchID:          match.ID.String(),
			InjuryImpactHome: -0.2,
			SentimentAway:    0.1,
			TacticalEdge:     0.9, // above documented range, must be clamped
			Summary:          "first-choice keeper out",
		})
	}))
	defer server.Close()

	client := NewNewsContextClient(testNewsConfig(server.URL), nil)
	defer client.Close()

	adj, err := client.FetchContext(context.Background(), match)
	if err != nil {
		t.Fatalf("FetchContext failed: %v", err)
	}

	if adj.InjuryImpactHome != -0.2 {
		t.Errorf("Expected injury impact -0.2, got %f", adj.InjuryImpactHome)
	}
	if adj.TacticalEdge > 0.25 {
		t.Errorf("Expected tactical edge clamped to 0.25, got %f", adj.TacticalEdge)
	}
	if adj.Reasoning == "" {
		t.Error("Expected reasoning to be carried through")
	}
}

func TestNewsContextClientNoReport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewNewsContextClient(testNewsConfig(server.URL), nil)
	defer client.Close()

	_, err := client.FetchContext(context.Background(), &models.Match{ID: uuid.New()})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestHTTPClientRateLimit(t *testing.T) {
	cfg := DefaultHTTPClientConfig()
	cfg.RateLimit = 10

	client := NewRateLimitedHTTPClient(cfg, nil)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// First request consumes the single burst token
	if err := client.limiter.Wait(ctx); err != nil {
		t.Fatalf("Initial wait failed: %v", err)
	}

	// Next 10 requests should take roughly 1 second at 10 req/s
	start := time.Now()
	for i := 0; i < 10; i++ {
		if err := client.limiter.Wait(ctx); err != nil {
			t.Fatalf("Wait %d failed: %v", i, err)
		}
	}
	elapsed := time.Since(start)

	if elapsed < 800*time.Millisecond || elapsed > 1500*time.Millisecond {
		t.Errorf("Expected ~1s for 10 requests at 10 req/s, got %v", elapsed)
	}
}

func TestHTTPClientCircuitBreaker(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RateLimit = 1000
	cfg.CircuitBreakerMax = 2

	client := NewRateLimitedHTTPClient(cfg, nil)
	defer client.Close()

	ctx := context.Background()

	// 503 responses exhaust retries and surface as errors, tripping the breaker
	for i := 0; i < 2; i++ {
		resp, err := client.Get(ctx, server.URL)
		if err == nil {
			resp.Body.Close()
			t.Fatalf("Expected error from 503 response on call %d", i)
		}
	}

	if !client.IsCircuitOpen() {
		t.Fatal("Expected circuit breaker to be open after consecutive failures")
	}

	server.Close()

	// Open circuit fails fast without hitting the network
	before := calls.Load()
	if _, err := client.Get(ctx, server.URL); err == nil {
		t.Fatal("Expected error while circuit is open")
	}
	if calls.Load() != before {
		t.Error("Expected no network call while circuit is open")
	}
}

func TestFactoryRequiresAPIKeyWhenEnabled(t *testing.T) {
	cfg := &config.DataSourcesConfig{
		Odds: config.OddsSourceConfig{
			BaseURL:            "https://odds.example.com",
			Enabled:            true,
			TimeoutSeconds:     5,
			RateLimitPerSecond: 10,
		},
		News: config.NewsSourceConfig{
			BaseURL:            "https://news.example.com",
			TimeoutSeconds:     5,
			RateLimitPerSecond: 10,
		},
	}

	factory := NewFactory(cfg, nil)
	if _, err := factory.NewOddsSource(); err == nil {
		t.Error("Expected error for enabled odds feed without API key")
	}

	cfg.Odds.APIKey = "key"
	sources, err := factory.NewSources()
	if err != nil {
		t.Fatalf("NewSources failed: %v", err)
	}
	if sources.Odds == nil || sources.News == nil {
		t.Error("Expected odds and news sources to be created")
	}
	if sources.Stream != nil {
		t.Error("Expected no stream client without a stream URL")
	}
}
