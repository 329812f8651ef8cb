package feature

import "strconv"

// round2 rounds to two decimals with ties to even on the exact binary value,
// so 0.125 becomes 0.12 and 2.675 becomes 2.67.
func round2(x float64) float64 {
	v, _ := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 2, 64), 64)
	return v
}
