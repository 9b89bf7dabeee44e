package cards

import "math"

// clip01 squeezes v/scale into [0,1]. Every sub-score normalizes its raw
// metric through this before weighting, which is what keeps the final scores
// bounded no matter how pathological the input.
func clip01(v, scale float64) float64 {
	if scale <= 0 || v <= 0 || math.IsNaN(v) {
		return 0
	}
	n := v / scale
	if n > 1 {
		return 1
	}
	return n
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var sq float64
	for _, x := range xs {
		d := x - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)))
}

// round1 keeps payloads readable without dragging float noise into JSON.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
