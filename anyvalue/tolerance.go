package anyvalue

import "math"

// Smallest positive normal numbers for each float width.
const (
	minNormal64 = 2.2250738585072014e-308
	minNormal32 = 1.17549435e-38
)

// Tolerance controls how float leaves compare in Equal. The zero value means
// exact comparison.
type Tolerance struct {
	Epsilon  float64 `json:"epsilon" yaml:"epsilon"`
	Tolerant bool    `json:"tolerant" yaml:"tolerant"`
}

// Exact is the zero tolerance.
var Exact = Tolerance{}

// FEquals compares two float64 values under tol.
//
// A NaN epsilon accepts everything. In tolerant mode the difference is
// absolute. Otherwise the comparison is relative to the magnitude of the
// operands, falling back to a scaled absolute check near zero. Two NaNs
// compare equal so that a cloned NaN equals its source.
func FEquals(a, b float64, tol Tolerance) bool {
	return fequals(a, b, tol, minNormal64)
}

// FEquals32 is FEquals for float32 operands.
func FEquals32(a, b float32, tol Tolerance) bool {
	return fequals(float64(a), float64(b), tol, minNormal32)
}

func fequals(a, b float64, tol Tolerance, minNormal float64) bool {
	eps := tol.Epsilon
	if math.IsNaN(eps) {
		return true
	}
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	if tol.Tolerant {
		return math.Abs(a-b) <= eps
	}
	if a == b {
		return true
	}

	diff := math.Abs(a - b)
	if a == 0 || b == 0 || diff < minNormal {
		return diff < eps*minNormal
	}
	check := diff / (math.Abs(a) + math.Abs(b))
	if diff > check {
		check = diff
	}
	return check < eps
}
