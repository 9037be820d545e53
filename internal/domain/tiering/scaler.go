package tiering

import "math"

// Standardize rescales values to zero mean and unit population variance.
// A constant input maps to all zeros.
func Standardize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(values)))

	for i, v := range values {
		if std == 0 {
			continue
		}
		out[i] = (v - mean) / std
	}
	return out
}
