package classifier

import "math"

// mean calculates the mean of a slice of float64 values
func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// stddev calculates the population standard deviation
func stddev(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	m := mean(vals)
	var sumSq float64
	for _, v := range vals {
		diff := v - m
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(vals)))
}

// coefficientOfVariation returns stddev/mean. The second return is false
// when the mean is zero, where CV is undefined.
func coefficientOfVariation(vals []float64) (float64, bool) {
	m := mean(vals)
	if m == 0 {
		return 0, false
	}
	return stddev(vals) / m, true
}
