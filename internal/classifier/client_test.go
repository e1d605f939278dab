package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdvot/paris-sportif/internal/config"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testClientConfig(url string) *config.ClassifierConfig {
	return &config.ClassifierConfig{
		HTTPAddress:           url,
		RequestTimeoutSeconds: 5,
		RetryAttempts:         1,
		CacheTTLSeconds:       60,
		CacheMaxSize:          100,
		Enabled:               true,
	}
}

// fakeService is a minimal in-process stand-in for the classifier service
type fakeService struct {
	schema       Schema
	probs        [3]float64
	confidence   float64
	predictCalls int64
	healthy      bool
}

func (s *fakeService) start(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/model/schema", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(s.schema)
	})
	mux.HandleFunc("/api/v1/predict", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.predictCalls, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"probabilities": s.probs,
			"confidence":    s.confidence,
			"model_version": s.schema.ModelVersion,
		})
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if !s.healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func defaultFakeService() *fakeService {
	return &fakeService{
		schema:     Schema{FeatureCount: 19, ModelType: "gradient_boosting", ModelVersion: "v3"},
		probs:      [3]float64{0.5, 0.3, 0.2},
		confidence: 0.75,
		healthy:    true,
	}
}

func TestNewClientNegotiatesSchema(t *testing.T) {
	svc := defaultFakeService()
	srv := svc.start(t)

	client, err := NewClient(context.Background(), testClientConfig(srv.URL), testLogger())
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, 19, client.FeatureCount())
	assert.Equal(t, "gradient_boosting", client.Schema().ModelType)
	assert.Equal(t, "v3", client.Schema().ModelVersion)
}

func TestNewClientRejectsInvalidSchema(t *testing.T) {
	svc := defaultFakeService()
	svc.schema.FeatureCount = 0
	srv := svc.start(t)

	_, err := NewClient(context.Background(), testClientConfig(srv.URL), testLogger())
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestNewClientUnreachableService(t *testing.T) {
	srv := defaultFakeService().start(t)
	url := srv.URL
	srv.Close()

	_, err := NewClient(context.Background(), testClientConfig(url), testLogger())
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

func TestNewClientSchemaEndpointFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(context.Background(), testClientConfig(srv.URL), testLogger())
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestPredictValidatesFeatureLength(t *testing.T) {
	svc := defaultFakeService()
	srv := svc.start(t)

	client, err := NewClient(context.Background(), testClientConfig(srv.URL), testLogger())
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Predict(context.Background(), uuid.New(), make([]float64, 7))
	assert.ErrorIs(t, err, ErrSchemaMismatch)
	// The mismatch is caught before any request is made.
	assert.Equal(t, int64(0), atomic.LoadInt64(&svc.predictCalls))
}

func TestPredictReturnsNormalizedResult(t *testing.T) {
	svc := defaultFakeService()
	svc.probs = [3]float64{2, 1, 1}
	svc.confidence = 1.7
	srv := svc.start(t)

	client, err := NewClient(context.Background(), testClientConfig(srv.URL), testLogger())
	require.NoError(t, err)
	defer client.Close()

	matchID := uuid.New()
	result, err := client.Predict(context.Background(), matchID, make([]float64, 19))
	require.NoError(t, err)

	assert.Equal(t, matchID, result.MatchID)
	assert.InDelta(t, 0.5, result.Probabilities.Home, 1e-9)
	assert.InDelta(t, 0.25, result.Probabilities.Draw, 1e-9)
	assert.InDelta(t, 1.0, result.Probabilities.Sum(), 1e-9)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, "v3", result.ModelVersion)
	assert.False(t, result.PredictedAt.IsZero())
}

func TestPredictServerError(t *testing.T) {
	svc := defaultFakeService()
	srv := svc.start(t)

	client, err := NewClient(context.Background(), testClientConfig(srv.URL), testLogger())
	require.NoError(t, err)
	defer client.Close()

	srv.Close()
	_, err = client.Predict(context.Background(), uuid.New(), make([]float64, 19))
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

func TestPredictRejectsErrorStatus(t *testing.T) {
	var failPredict atomic.Bool
	svc := defaultFakeService()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/model/schema", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(svc.schema)
	})
	mux.HandleFunc("/api/v1/predict", func(w http.ResponseWriter, r *http.Request) {
		if failPredict.Load() {
			http.Error(w, "model not loaded", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"probabilities": svc.probs})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := NewClient(context.Background(), testClientConfig(srv.URL), testLogger())
	require.NoError(t, err)
	defer client.Close()

	failPredict.Store(true)
	_, err = client.Predict(context.Background(), uuid.New(), make([]float64, 19))
	assert.ErrorIs(t, err, ErrInvalidPrediction)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestHealthCheck(t *testing.T) {
	svc := defaultFakeService()
	srv := svc.start(t)

	client, err := NewClient(context.Background(), testClientConfig(srv.URL), testLogger())
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.HealthCheck(context.Background()))

	svc.healthy = false
	err = client.HealthCheck(context.Background())
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestReloadPicksUpNewSchema(t *testing.T) {
	svc := defaultFakeService()
	srv := svc.start(t)

	client, err := NewClient(context.Background(), testClientConfig(srv.URL), testLogger())
	require.NoError(t, err)
	defer client.Close()

	svc.schema = Schema{FeatureCount: 7, ModelType: "random_forest", ModelVersion: "v4"}
	require.NoError(t, client.Reload(context.Background()))

	assert.Equal(t, 7, client.FeatureCount())
	assert.Equal(t, "v4", client.Schema().ModelVersion)
}

func TestCachedClientServesRepeatsFromCache(t *testing.T) {
	svc := defaultFakeService()
	srv := svc.start(t)

	client, err := NewCachedClient(context.Background(), testClientConfig(srv.URL), testLogger())
	require.NoError(t, err)
	defer client.Close()

	matchID := uuid.New()
	features := make([]float64, 19)

	first, err := client.Predict(context.Background(), matchID, features)
	require.NoError(t, err)
	second, err := client.Predict(context.Background(), matchID, features)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), atomic.LoadInt64(&svc.predictCalls))

	hits, misses := client.CacheStats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestCachedClientDistinctMatchesMissCache(t *testing.T) {
	svc := defaultFakeService()
	srv := svc.start(t)

	client, err := NewCachedClient(context.Background(), testClientConfig(srv.URL), testLogger())
	require.NoError(t, err)
	defer client.Close()

	features := make([]float64, 19)
	_, err = client.Predict(context.Background(), uuid.New(), features)
	require.NoError(t, err)
	_, err = client.Predict(context.Background(), uuid.New(), features)
	require.NoError(t, err)

	assert.Equal(t, int64(2), atomic.LoadInt64(&svc.predictCalls))
}

func TestCachedClientReloadInvalidatesOldVersion(t *testing.T) {
	svc := defaultFakeService()
	srv := svc.start(t)

	client, err := NewCachedClient(context.Background(), testClientConfig(srv.URL), testLogger())
	require.NoError(t, err)
	defer client.Close()

	matchID := uuid.New()
	_, err = client.Predict(context.Background(), matchID, make([]float64, 19))
	require.NoError(t, err)

	svc.schema.ModelVersion = "v4"
	require.NoError(t, client.Reload(context.Background()))

	// Same match, new model version: the cached v3 result must not be
	// served.
	_, err = client.Predict(context.Background(), matchID, make([]float64, 19))
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&svc.predictCalls))
}

func TestPredictionCacheLifecycle(t *testing.T) {
	pc := NewPredictionCache(time.Minute, 10)
	key := CacheKey{MatchID: uuid.New(), ModelVersion: "v1"}

	assert.Nil(t, pc.Get(context.Background(), key))

	result := &PredictionResult{MatchID: key.MatchID, ModelVersion: "v1"}
	pc.Set(context.Background(), key, result)
	assert.Equal(t, result, pc.Get(context.Background(), key))

	hits, misses := pc.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)

	pc.Clear()
	assert.Nil(t, pc.Get(context.Background(), key))
	hits, _ = pc.Stats()
	assert.Equal(t, uint64(0), hits)
}

func TestPredictionCacheInvalidateVersion(t *testing.T) {
	pc := NewPredictionCache(time.Minute, 10)
	matchID := uuid.New()
	oldKey := CacheKey{MatchID: matchID, ModelVersion: "v1"}
	newKey := CacheKey{MatchID: matchID, ModelVersion: "v2"}

	pc.Set(context.Background(), oldKey, &PredictionResult{ModelVersion: "v1"})
	pc.Set(context.Background(), newKey, &PredictionResult{ModelVersion: "v2"})

	pc.InvalidateVersion(context.Background(), "v1")

	assert.Nil(t, pc.Get(context.Background(), oldKey))
	assert.NotNil(t, pc.Get(context.Background(), newKey))
}

func TestCacheKeyString(t *testing.T) {
	matchID := uuid.New()
	key := CacheKey{MatchID: matchID, ModelVersion: "v2"}
	assert.Equal(t, matchID.String()+":v2", key.String())
}
