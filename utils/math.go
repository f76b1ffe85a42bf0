package utils

import (
	"math"
)

// Square returns n*n; math.Pow(x, 2) is slow.
func Square(n float64) float64 {
	return n * n
}

// IsFinite reports whether every given value is neither infinite nor NaN.
func IsFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}
