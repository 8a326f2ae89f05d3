// Package timeseries turns raw order records into the one-observation-
// per-day series the forecasting model expects, and provides the
// accuracy metrics used by training validation and evaluation.
package timeseries

import (
	"fmt"
	"sort"
	"time"

	"github.com/optiflow/backend/internal/domain"
)

// Observation is a raw (date, value) reading before daily aggregation.
type Observation struct {
	Date  time.Time
	Value float64
}

// Point is one day of an aggregated series.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// DailySeries is an aggregated demand series, ascending by date, one
// point per calendar day with at least one sale. Calendar gaps are left
// implicit (dense-days-only): zero-fill is deliberately not applied so
// the model trains on observed demand days only.
type DailySeries []Point

// FromSales adapts order lines to raw observations.
func FromSales(records []domain.SalesRecord) []Observation {
	obs := make([]Observation, 0, len(records))
	for _, r := range records {
		obs = append(obs, Observation{Date: r.OrderDate, Value: r.Quantity})
	}
	return obs
}

// Prepare aggregates raw observations into a DailySeries: group by
// calendar day (UTC), sum values, clip negative totals to zero, sort
// ascending. Empty input yields an empty series, not an error. An
// observation without a date is a schema violation.
func Prepare(obs []Observation) (DailySeries, error) {
	if len(obs) == 0 {
		return DailySeries{}, nil
	}

	totals := make(map[time.Time]float64)
	for i, o := range obs {
		if o.Date.IsZero() {
			return nil, fmt.Errorf("%w: observation %d has no date", domain.ErrSchema, i)
		}
		day := o.Date.UTC().Truncate(24 * time.Hour)
		totals[day] += o.Value
	}

	series := make(DailySeries, 0, len(totals))
	for day, total := range totals {
		if total < 0 {
			total = 0
		}
		series = append(series, Point{Date: day, Value: total})
	}

	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	return series, nil
}

// Values returns the value column in chronological order.
func (s DailySeries) Values() []float64 {
	values := make([]float64, len(s))
	for i, p := range s {
		values[i] = p.Value
	}
	return values
}

// Total returns the summed demand of the series.
func (s DailySeries) Total() float64 {
	var total float64
	for _, p := range s {
		total += p.Value
	}
	return total
}

// Mean returns the mean daily demand, 0 for an empty series.
func (s DailySeries) Mean() float64 {
	if len(s) == 0 {
		return 0
	}
	return s.Total() / float64(len(s))
}

// Split cuts the series chronologically so that the last tailLen points
// form the tail. A non-positive tailLen returns the whole series as head.
func (s DailySeries) Split(tailLen int) (head, tail DailySeries) {
	if tailLen <= 0 {
		return s, DailySeries{}
	}
	if tailLen >= len(s) {
		return DailySeries{}, s
	}
	cut := len(s) - tailLen
	return s[:cut], s[cut:]
}

// Start returns the first date of the series.
func (s DailySeries) Start() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[0].Date
}

// End returns the last date of the series.
func (s DailySeries) End() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1].Date
}
