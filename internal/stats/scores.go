package stats

import (
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes a set of scores.
type Stats struct {
	Count  int
	Mean   float64
	StdDev float64
	Median float64
	Min    float64
	Max    float64
}

// ScoreStats computes the summary of scores. The input is not modified. An
// empty input yields the zero Stats.
func ScoreStats(scores []float64) Stats {
	if len(scores) == 0 {
		return Stats{}
	}
	sorted := slices.Clone(scores)
	slices.Sort(sorted)

	out := Stats{
		Count:  len(sorted),
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
	}
	if len(sorted) == 1 {
		out.Mean = sorted[0]
		return out
	}
	out.Mean, out.StdDev = stat.MeanStdDev(sorted, nil)
	return out
}
