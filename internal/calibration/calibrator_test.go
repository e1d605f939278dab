package calibration

import (
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdvot/paris-sportif/internal/models"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// overconfidentSamples builds a batch where the model claims 80% home
// confidence but is right only about 60% of the time
func overconfidentSamples(n int, seed int64) []Sample {
	rng := rand.New(rand.NewSource(seed))
	samples := make([]Sample, n)
	for i := range samples {
		actual := models.OutcomeAway
		if rng.Float64() < 0.6 {
			actual = models.OutcomeHome
		}
		samples[i] = Sample{
			Probabilities: models.Probabilities{Home: 0.8, Draw: 0.12, Away: 0.08},
			Actual:        actual,
		}
	}
	return samples
}

func TestNewRejectsUnknownMethod(t *testing.T) {
	_, err := New(Method("temperature"), testLogger())
	assert.Error(t, err)
}

func TestCalibratePassesThroughBeforeFit(t *testing.T) {
	c, err := New(MethodPlatt, testLogger())
	require.NoError(t, err)
	assert.False(t, c.Fitted())

	in := models.Probabilities{Home: 0.5, Draw: 0.3, Away: 0.2}
	out, calibrated := c.Calibrate(in)
	assert.False(t, calibrated)
	assert.Equal(t, in, out)
}

func TestFitRequiresSamples(t *testing.T) {
	c, err := New(MethodPlatt, testLogger())
	require.NoError(t, err)
	assert.Error(t, c.Fit(nil))
}

func TestPlattReducesOverconfidence(t *testing.T) {
	c, err := New(MethodPlatt, testLogger())
	require.NoError(t, err)

	samples := overconfidentSamples(500, 1)
	require.NoError(t, c.Fit(samples))
	require.True(t, c.Fitted())

	out, calibrated := c.Calibrate(models.Probabilities{Home: 0.8, Draw: 0.12, Away: 0.08})
	assert.True(t, calibrated)
	assert.Less(t, out.Home, 0.8, "the overconfident home probability should shrink")
	assert.InDelta(t, 1.0, out.Home+out.Draw+out.Away, 1e-9)
}

func TestIsotonicReducesOverconfidence(t *testing.T) {
	c, err := New(MethodIsotonic, testLogger())
	require.NoError(t, err)

	// Mix in some low-confidence samples so the isotonic fit has range
	samples := overconfidentSamples(400, 2)
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		actual := models.OutcomeAway
		if rng.Float64() < 0.4 {
			actual = models.OutcomeHome
		}
		samples = append(samples, Sample{
			Probabilities: models.Probabilities{Home: 0.4, Draw: 0.3, Away: 0.3},
			Actual:        actual,
		})
	}

	require.NoError(t, c.Fit(samples))

	out, calibrated := c.Calibrate(models.Probabilities{Home: 0.8, Draw: 0.12, Away: 0.08})
	assert.True(t, calibrated)
	assert.Less(t, out.Home, 0.8)
}

func TestCalibrationImprovesQualityOnBiasedData(t *testing.T) {
	for _, method := range []Method{MethodPlatt, MethodIsotonic} {
		t.Run(string(method), func(t *testing.T) {
			c, err := New(method, testLogger())
			require.NoError(t, err)

			train := overconfidentSamples(600, 4)
			holdout := overconfidentSamples(300, 5)
			require.NoError(t, c.Fit(train))

			before := Evaluate(holdout, nil)
			after := Evaluate(holdout, c)

			assert.Less(t, after.ECE, before.ECE,
				"calibration should reduce the confidence-accuracy gap")
			assert.LessOrEqual(t, after.Brier, before.Brier+1e-6)
		})
	}
}

func TestCalibratedOutputStaysInBand(t *testing.T) {
	c, err := New(MethodPlatt, testLogger())
	require.NoError(t, err)
	require.NoError(t, c.Fit(overconfidentSamples(200, 6)))

	extremes := []models.Probabilities{
		{Home: 0.999, Draw: 0.0005, Away: 0.0005},
		{Home: 0.0005, Draw: 0.0005, Away: 0.999},
		{Home: 1.0 / 3, Draw: 1.0 / 3, Away: 1.0 / 3},
	}
	for _, p := range extremes {
		out, _ := c.Calibrate(p)
		for _, v := range out.AsSlice() {
			assert.Greater(t, v, 0.0)
			assert.Less(t, v, 1.0)
		}
		assert.InDelta(t, 1.0, out.Sum(), 1e-9)
	}
}

func TestIsotonicMapIsMonotonic(t *testing.T) {
	m := &isotonicMap{}
	raw := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}
	hit := []float64{0, 0, 1, 0, 1, 0, 1, 1, 1}
	require.NoError(t, m.fit(raw, hit))

	prev := -1.0
	for p := 0.0; p <= 1.0; p += 0.05 {
		v := m.apply(p)
		assert.GreaterOrEqual(t, v+1e-12, prev, "isotonic output must never decrease")
		prev = v
	}
}

func TestEvaluateEmptyBatch(t *testing.T) {
	report := Evaluate(nil, nil)
	assert.Zero(t, report.Samples)
	assert.Zero(t, report.Brier)
}

func TestCalibrationErrorPerfectlyCalibrated(t *testing.T) {
	// Confidence 0.6 predictions that are right exactly 60% of the time
	probs := make([]models.Probabilities, 10)
	samples := make([]Sample, 10)
	for i := range probs {
		p := models.Probabilities{Home: 0.6, Draw: 0.25, Away: 0.15}
		actual := models.OutcomeHome
		if i >= 6 {
			actual = models.OutcomeAway
		}
		probs[i] = p
		samples[i] = Sample{Probabilities: p, Actual: actual}
	}

	ece, mce := CalibrationError(probs, samples, DefaultBins)
	assert.InDelta(t, 0.0, ece, 1e-9)
	assert.InDelta(t, 0.0, mce, 1e-9)
}
