// Package util holds small numeric helpers shared by the mappers and writers.
package util

import "math"

// Round rounds x to the given number of decimal places, half away from zero.
func Round(x float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(x*pow) / pow
}

// Clamp01 limits x to [0,1]. NaN becomes 0.
func Clamp01(x float64) float64 {
	switch {
	case math.IsNaN(x) || x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
