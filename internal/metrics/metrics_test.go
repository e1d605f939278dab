package metrics

import (
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
}

func TestRecordPrediction(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordPrediction("home", 0.72, 0.012, true)
		RecordPrediction("draw", 0.55, 0.008, false)
	})
}

func TestRecordOutcomeResolved(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordOutcomeResolved(true)
		RecordOutcomeResolved(false)
	})
}

func TestRecordWeightRecompute(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordWeightRecompute("accuracy", "success")
		RecordWeightRecompute("brier", "fallback")
	})
}

func TestUpdateModelWeights(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		UpdateModelWeights(map[string]float64{
			"poisson":     0.3,
			"dixon_coles": 0.3,
			"elo":         0.4,
		})
	})
}

func TestRecordBacktestRun(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordBacktestRun("success")
		RecordFoldAccuracy(0.48)
		UpdateBacktestROI(0.03)
	})
}

func TestHandler(t *testing.T) {
	handler := Handler()
	assert.NotNil(t, handler)
	assert.Implements(t, (*http.Handler)(nil), handler)
}
