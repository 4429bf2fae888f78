package perf

import (
	"math"
	"testing"
)

func TestNewStats(t *testing.T) {
	stats := NewStats([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if stats.Mean != 5 || stats.StdDeviation != 2 {
		t.Errorf("Expected mean 5 and deviation 2, got %v and %v", stats.Mean, stats.StdDeviation)
	}
	if stats.Min != 2 || stats.Max != 9 {
		t.Errorf("Expected min 2 and max 9, got %v and %v", stats.Min, stats.Max)
	}
	if math.Abs(stats.MinMaxRatio-2.0/9.0) > 1e-12 {
		t.Errorf("Expected ratio 2/9, got %v", stats.MinMaxRatio)
	}

	if NewStats(nil) != (Stats{}) {
		t.Errorf("Expected zero stats for no values")
	}
}

func TestNewFairness(t *testing.T) {
	even := NewFairness([]float64{10, 10, 10})
	if even.Quality != 1 {
		t.Errorf("Expected quality 1 for an even distribution, got %v", even.Quality)
	}

	skewed := NewFairness([]float64{1, 100})
	if skewed.Quality >= even.Quality {
		t.Errorf("Expected a skewed distribution to score lower, got %v", skewed.Quality)
	}
}
