package forecaster

import (
	"fmt"
	"math"
	"time"

	"github.com/optiflow/backend/internal/domain"
	"github.com/optiflow/backend/internal/timeseries"
)

const (
	ModeMultiplicative = "multiplicative"
	ModeAdditive       = "additive"

	daysPerWeek = 7
)

// SeasonalTrend is a weekly-seasonality model with a damped linear
// trend and a residual-based prediction interval. All state is exported
// so a trained instance round-trips through JSON for persistence.
type SeasonalTrend struct {
	Cfg       Config             `json:"config"`
	Level     float64            `json:"level"`
	Slope     float64            `json:"slope"`
	Seasonal  [daysPerWeek]float64 `json:"seasonal"`
	Sigma     float64            `json:"sigma"`
	LastDate  time.Time          `json:"last_date"`
	Points    int                `json:"points"`
	Fitted    bool               `json:"fitted"`
}

// NewSeasonalTrend returns an untrained model with normalized config.
func NewSeasonalTrend(cfg Config) *SeasonalTrend {
	return &SeasonalTrend{Cfg: cfg.normalized()}
}

// Fit estimates level, trend, weekday indices and residual spread from
// the prepared daily series. At least two points are required.
func (m *SeasonalTrend) Fit(series timeseries.DailySeries) error {
	n := len(series)
	if n < 2 {
		return fmt.Errorf("%w: need at least 2 daily points, got %d", domain.ErrInsufficientData, n)
	}

	// Least-squares line over the observation index.
	values := series.Values()
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	slope := 0.0
	if denom != 0 {
		slope = (fn*sumXY - sumX*sumY) / denom
	}
	intercept := (sumY - slope*sumX) / fn

	// Weekday indices over detrended values.
	var sums, counts [daysPerWeek]float64
	for i, p := range series {
		trend := intercept + slope*float64(i)
		dow := int(p.Date.Weekday())
		if m.Cfg.SeasonalityMode == ModeMultiplicative {
			if trend > 0 {
				sums[dow] += p.Value / trend
			} else {
				sums[dow] += 1
			}
		} else {
			sums[dow] += p.Value - trend
		}
		counts[dow]++
	}
	for dow := range m.Seasonal {
		if counts[dow] == 0 {
			if m.Cfg.SeasonalityMode == ModeMultiplicative {
				m.Seasonal[dow] = 1
			} else {
				m.Seasonal[dow] = 0
			}
			continue
		}
		m.Seasonal[dow] = sums[dow] / counts[dow]
	}

	// Residual spread around the seasonal fit drives the interval.
	var residSq float64
	for i, p := range series {
		fitted := m.valueAt(intercept, slope, float64(i), p.Date)
		d := p.Value - fitted
		residSq += d * d
	}
	m.Sigma = math.Sqrt(residSq / fn)

	m.Level = intercept + slope*float64(n-1)
	m.Slope = slope
	m.LastDate = series.End()
	m.Points = n
	m.Fitted = true
	return nil
}

// Predict extends the fitted model horizonDays past the last observed
// day. The interval is symmetric around the point estimate at the
// z-score matching the configured interval width.
func (m *SeasonalTrend) Predict(horizonDays int) ([]Prediction, error) {
	if !m.Fitted {
		return nil, fmt.Errorf("%w: model has not been fitted", domain.ErrModelNotFound)
	}
	if horizonDays <= 0 {
		return nil, fmt.Errorf("%w: horizon must be positive, got %d", domain.ErrValidation, horizonDays)
	}

	z := intervalZ(m.Cfg.IntervalWidth)
	preds := make([]Prediction, horizonDays)
	trend := 0.0
	step := m.Slope
	for i := 0; i < horizonDays; i++ {
		// Damp the trend increment so distant days do not extrapolate
		// a short-lived slope into absurd demand.
		trend += step
		step *= m.Cfg.TrendDamping

		date := m.LastDate.AddDate(0, 0, i+1)
		base := m.Level + trend
		point := base
		if m.Cfg.SeasonalityMode == ModeMultiplicative {
			point = base * m.Seasonal[int(date.Weekday())]
		} else {
			point = base + m.Seasonal[int(date.Weekday())]
		}

		preds[i] = Prediction{
			Date:  date,
			Point: point,
			Lower: point - z*m.Sigma,
			Upper: point + z*m.Sigma,
		}
	}
	return preds, nil
}

func (m *SeasonalTrend) valueAt(intercept, slope, x float64, date time.Time) float64 {
	base := intercept + slope*x
	if m.Cfg.SeasonalityMode == ModeMultiplicative {
		return base * m.Seasonal[int(date.Weekday())]
	}
	return base + m.Seasonal[int(date.Weekday())]
}

// intervalZ converts a central interval width to the matching standard
// normal quantile, e.g. 0.80 -> ~1.2816.
func intervalZ(width float64) float64 {
	return math.Sqrt2 * math.Erfinv(width)
}
