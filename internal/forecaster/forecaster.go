// Package forecaster defines the statistical model contract used by the
// pipeline and a seasonal-trend implementation of it. The pipeline only
// depends on the Fit/Predict contract, so alternative strategies can be
// substituted without touching training or forecast generation.
package forecaster

import (
	"time"

	"github.com/optiflow/backend/internal/timeseries"
)

// Prediction is one future day of a forecast.
type Prediction struct {
	Date  time.Time `json:"date"`
	Point float64   `json:"point"`
	Lower float64   `json:"lower"`
	Upper float64   `json:"upper"`
}

// Config tunes a model instance. The zero value is normalized to the
// defaults the planning pipeline runs with.
type Config struct {
	// SeasonalityMode is "multiplicative" or "additive". Multiplicative
	// suits sales series where weekday effects scale with volume.
	SeasonalityMode string `json:"seasonality_mode"`
	// IntervalWidth is the nominal coverage of the prediction interval,
	// e.g. 0.80 for an 80% interval.
	IntervalWidth float64 `json:"interval_width"`
	// TrendDamping in (0,1] shrinks the fitted trend per forecast day,
	// bounding far-horizon extrapolation. 1 keeps the trend linear.
	TrendDamping float64 `json:"trend_damping"`
}

// Forecaster is the narrow model contract the pipeline depends on.
type Forecaster interface {
	Fit(series timeseries.DailySeries) error
	Predict(horizonDays int) ([]Prediction, error)
}

func (c Config) normalized() Config {
	if c.SeasonalityMode != ModeAdditive {
		c.SeasonalityMode = ModeMultiplicative
	}
	if c.IntervalWidth <= 0 || c.IntervalWidth >= 1 {
		c.IntervalWidth = 0.80
	}
	if c.TrendDamping <= 0 || c.TrendDamping > 1 {
		c.TrendDamping = 0.98
	}
	return c
}
