package scoring

import (
	"gonum.org/v1/gonum/floats"
)

// L1Normalize scales arr so its entries sum to 1. A zero vector is returned
// unchanged rather than divided by zero.
func L1Normalize(arr []float64) []float64 {
	result := make([]float64, len(arr))
	copy(result, arr)

	sum := floats.Sum(result)
	if sum > 0 {
		floats.Scale(1.0/sum, result)
	}

	return result
}
