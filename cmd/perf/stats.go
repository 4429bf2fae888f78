package perf

import (
	"fmt"
	"math"
)

// Stats summarizes the operations completed per worker of a benchmark run
type Stats struct {
	StdDeviation float64 `json:"std_deviation"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	MinMaxRatio  float64 `json:"min_max_ratio"`
}

// NewStats computes the standard deviation, minimum, and maximum values
// from an array of float64 values.
func NewStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	lo, hi := values[0], values[0]
	var sum float64
	for _, v := range values {
		sum += v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	mean := sum / float64(len(values))

	// population standard deviation
	var squares float64
	for _, v := range values {
		squares += (v - mean) * (v - mean)
	}

	ratio := 1.0
	if hi > 0 {
		ratio = lo / hi
	}

	return Stats{
		StdDeviation: math.Sqrt(squares / float64(len(values))),
		Min:          lo,
		Max:          hi,
		Mean:         mean,
		MinMaxRatio:  ratio,
	}
}

// Fairness tells how evenly the engine lock was shared between the sessions
// of a benchmark run. 1 means every session completed the same number of operations.
type Fairness struct {
	Stats
	Quality float64 `json:"quality"`
}

// NewFairness combines the coefficient of variation and the min/max ratio of the per worker operation counts
func NewFairness(opsPerWorker []float64) Fairness {
	stats := NewStats(opsPerWorker)

	var cv float64
	if stats.Mean > 0 {
		cv = stats.StdDeviation / stats.Mean
	}

	return Fairness{
		Stats:   stats,
		Quality: (1.0-math.Min(1.0, cv))*0.5 + stats.MinMaxRatio*0.5,
	}
}

func (f Fairness) String() string {
	return fmt.Sprintf("fairness %.2f (ops per session min %.0f, max %.0f, mean %.1f)", f.Quality, f.Min, f.Max, f.Mean)
}
