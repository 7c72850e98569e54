package numeric

import "math"

// Finite returns v, or 0 when v is NaN or infinite.
// Raw scrape data routinely carries missing or garbage metric values, so
// every derived feature passes through here before use.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// SafeInt converts v to a non-negative int, returning 0 for NaN/Inf.
func SafeInt(v float64) int {
	v = Finite(v)
	if v < 0 {
		return 0
	}
	return int(v)
}

// PctChange returns the percentage change from old to new.
// A zero or non-finite old value yields 0 rather than a division error.
func PctChange(new, old float64) float64 {
	old = Finite(old)
	if old == 0 {
		return 0
	}
	return Finite((new - old) / old * 100)
}

// RoundTo rounds v to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	v = Finite(v)
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
