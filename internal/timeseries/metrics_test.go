package timeseries

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMAPEExactMatchIsZero(t *testing.T) {
	actual := []float64{5, 10, 15}
	assert.Equal(t, 0.0, MAPE(actual, actual))
}

func TestMAPECappedOnZeroActuals(t *testing.T) {
	// Zero actuals with nonzero predictions would diverge without the
	// epsilon floor; the cap bounds the result at 999.
	mape := MAPE([]float64{0, 0, 0}, []float64{50, 50, 50})
	assert.Equal(t, 999.0, mape)
}

func TestMAPEEpsilonFloor(t *testing.T) {
	// actual=0.05 is floored to 0.1 in the denominator.
	mape := MAPE([]float64{0.05}, []float64{0.06})
	assert.InDelta(t, 10.0, mape, 1e-9)
}

func TestBiasSign(t *testing.T) {
	actual := []float64{10, 10}
	over := []float64{12, 14}
	under := []float64{8, 6}
	assert.Equal(t, 3.0, Bias(actual, over))
	assert.Equal(t, -3.0, Bias(actual, under))
}

func TestDirectionalAccuracy(t *testing.T) {
	actual := []float64{1, 2, 1, 2}
	predicted := []float64{5, 6, 5, 6}
	assert.Equal(t, 100.0, DirectionalAccuracy(actual, predicted))

	inverted := []float64{6, 5, 6, 5}
	assert.Equal(t, 0.0, DirectionalAccuracy(actual, inverted))

	assert.Equal(t, 0.0, DirectionalAccuracy([]float64{1}, []float64{1}))
}

func TestCoverage(t *testing.T) {
	actual := []float64{5, 10, 20}
	lower := []float64{0, 8, 25}
	upper := []float64{10, 12, 30}
	assert.InDelta(t, 200.0/3.0, Coverage(actual, lower, upper), 1e-9)
}

func TestRSquaredPerfectFit(t *testing.T) {
	actual := []float64{1, 2, 3, 4}
	scaled := []float64{2, 4, 6, 8}
	assert.InDelta(t, 1.0, RSquared(actual, scaled), 1e-9)
}

func TestRSquaredZeroVariance(t *testing.T) {
	assert.Equal(t, 0.0, RSquared([]float64{3, 3, 3}, []float64{1, 2, 3}))
}

func TestRMSEMatchesMSE(t *testing.T) {
	actual := []float64{0, 0}
	predicted := []float64{3, 4}
	assert.InDelta(t, 12.5, MSE(actual, predicted), 1e-9)
	assert.InDelta(t, 3.5355339, RMSE(actual, predicted), 1e-6)
}

func TestEmptyInputsAreZero(t *testing.T) {
	assert.Equal(t, 0.0, MAE(nil, nil))
	assert.Equal(t, 0.0, MAPE(nil, nil))
	assert.Equal(t, 0.0, Bias(nil, nil))
	assert.Equal(t, 0.0, Coverage(nil, nil, nil))
	assert.Equal(t, 0.0, MeanIntervalWidth(nil, nil))
}
