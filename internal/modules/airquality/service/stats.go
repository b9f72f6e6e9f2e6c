package service

import (
	"math"
	"slices"

	"berlin-airquality/internal/modules/airquality/types"
)

// Describe returns count, mean, sample standard deviation, min, quartiles and
// max of values. Quantiles interpolate linearly between the closest ranks.
// It returns nil for no values.
func Describe(values []float64) *types.Summary {
	n := len(values)
	if n == 0 {
		return nil
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	s := &types.Summary{
		Count: n,
		Mean:  mean,
		Min:   sorted[0],
		P25:   quantile(sorted, 0.25),
		P50:   quantile(sorted, 0.5),
		P75:   quantile(sorted, 0.75),
		Max:   sorted[n-1],
	}
	if n > 1 {
		var sq float64
		for _, v := range sorted {
			d := v - mean
			sq += d * d
		}
		std := math.Sqrt(sq / float64(n-1))
		s.Std = &std
	}
	return s
}

// quantile expects sorted, non-empty input.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
