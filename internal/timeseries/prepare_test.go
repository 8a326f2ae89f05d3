package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optiflow/backend/internal/domain"
)

func day(offset int) time.Time {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestPrepareAggregatesSameDay(t *testing.T) {
	obs := []Observation{
		{Date: day(0).Add(9 * time.Hour), Value: 3},
		{Date: day(0).Add(17 * time.Hour), Value: 2},
		{Date: day(1), Value: 4},
	}

	series, err := Prepare(obs)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, day(0), series[0].Date)
	assert.Equal(t, 5.0, series[0].Value)
	assert.Equal(t, 4.0, series[1].Value)
}

func TestPrepareSortsOutOfOrderInput(t *testing.T) {
	obs := []Observation{
		{Date: day(5), Value: 1},
		{Date: day(1), Value: 2},
		{Date: day(3), Value: 3},
	}

	series, err := Prepare(obs)
	require.NoError(t, err)
	require.Len(t, series, 3)
	assert.Equal(t, day(1), series[0].Date)
	assert.Equal(t, day(3), series[1].Date)
	assert.Equal(t, day(5), series[2].Date)
}

func TestPrepareClipsNegativeTotals(t *testing.T) {
	obs := []Observation{
		{Date: day(0), Value: 2},
		{Date: day(0), Value: -5},
	}

	series, err := Prepare(obs)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 0.0, series[0].Value)
}

func TestPrepareEmptyInput(t *testing.T) {
	series, err := Prepare(nil)
	require.NoError(t, err)
	assert.Empty(t, series)
}

func TestPrepareRejectsZeroDate(t *testing.T) {
	_, err := Prepare([]Observation{{Value: 1}})
	assert.ErrorIs(t, err, domain.ErrSchema)
}

func TestPrepareLeavesCalendarGaps(t *testing.T) {
	obs := []Observation{
		{Date: day(0), Value: 1},
		{Date: day(10), Value: 1},
	}

	series, err := Prepare(obs)
	require.NoError(t, err)
	assert.Len(t, series, 2)
}

func TestSplitShortTail(t *testing.T) {
	series, err := Prepare([]Observation{
		{Date: day(0), Value: 1},
		{Date: day(1), Value: 2},
		{Date: day(2), Value: 3},
		{Date: day(3), Value: 4},
	})
	require.NoError(t, err)

	head, tail := series.Split(1)
	assert.Len(t, head, 3)
	require.Len(t, tail, 1)
	assert.Equal(t, 4.0, tail[0].Value)

	head, tail = series.Split(0)
	assert.Len(t, head, 4)
	assert.Empty(t, tail)

	head, tail = series.Split(10)
	assert.Empty(t, head)
	assert.Len(t, tail, 4)
}

func TestSeriesAggregates(t *testing.T) {
	series, err := Prepare([]Observation{
		{Date: day(0), Value: 2},
		{Date: day(1), Value: 4},
	})
	require.NoError(t, err)

	assert.Equal(t, 6.0, series.Total())
	assert.Equal(t, 3.0, series.Mean())
	assert.Equal(t, day(0), series.Start())
	assert.Equal(t, day(1), series.End())
	assert.Equal(t, []float64{2, 4}, series.Values())
}
