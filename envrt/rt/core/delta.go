package core

import "math"

// ValidDelta reports whether dt is a usable frame delta: finite and not negative.
// NaN fails the comparison and is rejected with the negatives.
func ValidDelta(dt float32) bool {
	return dt >= 0 && !math.IsInf(float64(dt), 1)
}
