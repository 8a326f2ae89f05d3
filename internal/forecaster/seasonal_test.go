package forecaster

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optiflow/backend/internal/domain"
	"github.com/optiflow/backend/internal/timeseries"
)

func flatSeries(t *testing.T, days int, value float64) timeseries.DailySeries {
	t.Helper()
	obs := make([]timeseries.Observation, days)
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	for i := range obs {
		obs[i] = timeseries.Observation{Date: start.AddDate(0, 0, i), Value: value}
	}
	series, err := timeseries.Prepare(obs)
	require.NoError(t, err)
	return series
}

func TestFitRejectsTooFewPoints(t *testing.T) {
	m := NewSeasonalTrend(Config{})
	err := m.Fit(flatSeries(t, 1, 5))
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestPredictBeforeFit(t *testing.T) {
	m := NewSeasonalTrend(Config{})
	_, err := m.Predict(7)
	assert.ErrorIs(t, err, domain.ErrModelNotFound)
}

func TestPredictRejectsNonPositiveHorizon(t *testing.T) {
	m := NewSeasonalTrend(Config{})
	require.NoError(t, m.Fit(flatSeries(t, 14, 5)))
	_, err := m.Predict(0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFlatSeriesPredictsFlat(t *testing.T) {
	m := NewSeasonalTrend(Config{})
	require.NoError(t, m.Fit(flatSeries(t, 28, 10)))

	preds, err := m.Predict(7)
	require.NoError(t, err)
	require.Len(t, preds, 7)
	for _, p := range preds {
		assert.InDelta(t, 10.0, p.Point, 1e-6)
		// No residual spread on a perfectly flat series.
		assert.InDelta(t, p.Point, p.Lower, 1e-6)
		assert.InDelta(t, p.Point, p.Upper, 1e-6)
	}
}

func TestAllZeroSeriesFitsAndPredictsZero(t *testing.T) {
	m := NewSeasonalTrend(Config{SeasonalityMode: ModeMultiplicative})
	require.NoError(t, m.Fit(flatSeries(t, 10, 0)))

	preds, err := m.Predict(14)
	require.NoError(t, err)
	for _, p := range preds {
		assert.InDelta(t, 0.0, p.Point, 1e-9)
	}
}

func TestPredictionDatesFollowLastObservation(t *testing.T) {
	series := flatSeries(t, 14, 5)
	m := NewSeasonalTrend(Config{})
	require.NoError(t, m.Fit(series))

	preds, err := m.Predict(3)
	require.NoError(t, err)
	last := series.End()
	for i, p := range preds {
		assert.Equal(t, last.AddDate(0, 0, i+1), p.Date)
	}
}

func TestIntervalWidensWithNoise(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	obs := make([]timeseries.Observation, 28)
	for i := range obs {
		v := 10.0
		if i%2 == 0 {
			v = 14
		}
		obs[i] = timeseries.Observation{Date: start.AddDate(0, 0, i), Value: v}
	}
	series, err := timeseries.Prepare(obs)
	require.NoError(t, err)

	m := NewSeasonalTrend(Config{})
	require.NoError(t, m.Fit(series))
	assert.Greater(t, m.Sigma, 0.0)

	preds, err := m.Predict(7)
	require.NoError(t, err)
	for _, p := range preds {
		assert.Greater(t, p.Upper, p.Lower)
	}
}

func TestDampingBoundsTrendExtrapolation(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	obs := make([]timeseries.Observation, 28)
	for i := range obs {
		obs[i] = timeseries.Observation{Date: start.AddDate(0, 0, i), Value: 10 + float64(i)}
	}
	series, err := timeseries.Prepare(obs)
	require.NoError(t, err)

	damped := NewSeasonalTrend(Config{TrendDamping: 0.5})
	require.NoError(t, damped.Fit(series))
	linear := NewSeasonalTrend(Config{TrendDamping: 1.0})
	require.NoError(t, linear.Fit(series))

	dPreds, err := damped.Predict(30)
	require.NoError(t, err)
	lPreds, err := linear.Predict(30)
	require.NoError(t, err)

	assert.Less(t, dPreds[29].Point, lPreds[29].Point)
}

func TestFittedModelRoundTripsThroughJSON(t *testing.T) {
	m := NewSeasonalTrend(Config{})
	require.NoError(t, m.Fit(flatSeries(t, 21, 8)))

	payload, err := json.Marshal(m)
	require.NoError(t, err)

	var restored SeasonalTrend
	require.NoError(t, json.Unmarshal(payload, &restored))

	orig, err := m.Predict(7)
	require.NoError(t, err)
	loaded, err := restored.Predict(7)
	require.NoError(t, err)
	for i := range orig {
		assert.InDelta(t, orig[i].Point, loaded[i].Point, 1e-9)
	}
}

func TestConfigNormalization(t *testing.T) {
	cfg := Config{}.normalized()
	assert.Equal(t, ModeMultiplicative, cfg.SeasonalityMode)
	assert.Equal(t, 0.80, cfg.IntervalWidth)
	assert.Equal(t, 0.98, cfg.TrendDamping)
}
