// Package percentile computes exclusive-range percentiles (the NIST
// recommended third variant, PERCENTILE.EXC in spreadsheets) with linear
// interpolation between neighbouring values.
package percentile

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// ErrBounds is returned for percentiles that cannot be computed: p outside
// (0, 1) or an empty value list.
var ErrBounds = errors.New("percentile out of bounds")

// Rank returns the 1-based, possibly fractional rank of percentile p in a
// sample of n values. Ranks below the first and above the last value clamp
// to 1 and n.
func Rank(p float64, n int) (float64, error) {
	if p <= 0 || p >= 1 {
		return 0, fmt.Errorf("%w: p = %v, want 0 < p < 1", ErrBounds, p)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: empty sample", ErrBounds)
	}
	size := float64(n)
	switch {
	case p <= 1/(size+1):
		return 1, nil
	case p >= size/(size+1):
		return size, nil
	default:
		return p * (size + 1), nil
	}
}

// Value returns the percentile p of sorted, which must be in ascending order.
func Value(p float64, sorted []float64) (float64, error) {
	x, err := Rank(p, len(sorted))
	if err != nil {
		return 0, err
	}
	idx := int(math.Floor(x)) - 1
	if x >= float64(len(sorted)) {
		return sorted[idx], nil
	}
	frac := x - math.Floor(x)
	lower, upper := sorted[idx], sorted[idx+1]
	return lower + frac*(upper-lower), nil
}

// Ranked pairs a percentile with its value.
type Ranked struct {
	Rank  float64 // percentile in (0, 1)
	Value float64
}

// Values computes each percentile in plist over sorted.
func Values(plist []float64, sorted []float64) ([]Ranked, error) {
	out := make([]Ranked, 0, len(plist))
	for _, p := range plist {
		v, err := Value(p, sorted)
		if err != nil {
			return nil, err
		}
		out = append(out, Ranked{Rank: p, Value: v})
	}
	return out, nil
}

// Steps returns the percentiles 1/n, 2/n, ... (n-1)/n.
func Steps(n int) []float64 {
	if n < 2 {
		return nil
	}
	out := make([]float64, n-1)
	for i := range out {
		out[i] = float64(i+1) / float64(n)
	}
	return out
}

// Default returns the 0.1st through 99.9th percentiles in steps of 0.1.
func Default() []float64 {
	return Steps(1000)
}

// AssignRanks returns the percentile rank of each value, in input order.
// A value's rank is the first percentile in pcts whose value is at least
// the value. Values above every percentile value rank 1. pcts must be
// ordered by rank, as Values returns them.
func AssignRanks(values []float64, pcts []Ranked) []float64 {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

	out := make([]float64, len(values))
	j := 0
	for _, i := range order {
		for j < len(pcts) && pcts[j].Value < values[i] {
			j++
		}
		if j == len(pcts) {
			out[i] = 1
			continue
		}
		out[i] = pcts[j].Rank
	}
	return out
}

// Summary is the spread of a sample.
type Summary struct {
	Count    int
	Min, Max float64
	Mean     float64
}

// Summarize returns count, min, max and mean of values.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	return Summary{
		Count: len(values),
		Min:   floats.Min(values),
		Max:   floats.Max(values),
		Mean:  floats.Sum(values) / float64(len(values)),
	}
}
