package timeseries

import "math"

const (
	// mapeEpsilon floors the MAPE denominator so near-zero actuals
	// cannot blow the metric up to infinity.
	mapeEpsilon = 0.1
	// mapeCap bounds pathological MAPE values from sparse demand.
	mapeCap = 999
)

// MAE is the mean absolute error between actual and predicted.
func MAE(actual, predicted []float64) float64 {
	n := pairLen(actual, predicted)
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(n)
}

// MSE is the mean squared error between actual and predicted.
func MSE(actual, predicted []float64) float64 {
	n := pairLen(actual, predicted)
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := actual[i] - predicted[i]
		sum += d * d
	}
	return sum / float64(n)
}

// RMSE is the root mean squared error.
func RMSE(actual, predicted []float64) float64 {
	return math.Sqrt(MSE(actual, predicted))
}

// MAPE is the mean absolute percentage error, with an epsilon-floored
// denominator and capped at 999 so the result is always in [0, 999].
func MAPE(actual, predicted []float64) float64 {
	n := pairLen(actual, predicted)
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		denom := math.Max(actual[i], mapeEpsilon)
		sum += math.Abs((actual[i] - predicted[i]) / denom)
	}
	mape := sum / float64(n) * 100
	return math.Min(mape, mapeCap)
}

// Bias is the mean signed error; positive means the model overestimates.
func Bias(actual, predicted []float64) float64 {
	n := pairLen(actual, predicted)
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += predicted[i] - actual[i]
	}
	return sum / float64(n)
}

// BiasPercent expresses bias relative to the mean actual, with the same
// epsilon floor used by MAPE.
func BiasPercent(actual, predicted []float64) float64 {
	n := pairLen(actual, predicted)
	if n == 0 {
		return 0
	}
	var meanActual float64
	for i := 0; i < n; i++ {
		meanActual += math.Max(actual[i], mapeEpsilon)
	}
	meanActual /= float64(n)
	return Bias(actual, predicted) / meanActual * 100
}

// DirectionalAccuracy is the fraction (in percent) of consecutive
// day-over-day changes whose sign matches between actual and predicted.
// Undefined below two points, reported as 0.
func DirectionalAccuracy(actual, predicted []float64) float64 {
	n := pairLen(actual, predicted)
	if n < 2 {
		return 0
	}
	var matches int
	for i := 1; i < n; i++ {
		actualUp := actual[i] > actual[i-1]
		predictedUp := predicted[i] > predicted[i-1]
		if actualUp == predictedUp {
			matches++
		}
	}
	return float64(matches) / float64(n-1) * 100
}

// Coverage is the fraction (in percent) of actuals that fall inside the
// [lower, upper] prediction interval.
func Coverage(actual, lower, upper []float64) float64 {
	n := len(actual)
	if n == 0 || len(lower) < n || len(upper) < n {
		return 0
	}
	var covered int
	for i := 0; i < n; i++ {
		if actual[i] >= lower[i] && actual[i] <= upper[i] {
			covered++
		}
	}
	return float64(covered) / float64(n) * 100
}

// MeanIntervalWidth is the mean width of the prediction interval.
func MeanIntervalWidth(lower, upper []float64) float64 {
	n := pairLen(lower, upper)
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += upper[i] - lower[i]
	}
	return sum / float64(n)
}

// RSquared is the squared Pearson correlation between actual and
// predicted, 0 below two points or under zero variance.
func RSquared(actual, predicted []float64) float64 {
	n := pairLen(actual, predicted)
	if n < 2 {
		return 0
	}
	meanA := Mean(actual[:n])
	meanP := Mean(predicted[:n])
	var cov, varA, varP float64
	for i := 0; i < n; i++ {
		da := actual[i] - meanA
		dp := predicted[i] - meanP
		cov += da * dp
		varA += da * da
		varP += dp * dp
	}
	if varA == 0 || varP == 0 {
		return 0
	}
	r := cov / math.Sqrt(varA*varP)
	return r * r
}

func pairLen(a, b []float64) int {
	if len(a) < len(b) {
		return len(a)
	}
	return len(b)
}
