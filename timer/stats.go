package timer

import (
	"math"
	"sort"
	"time"
)

// DurationStats is a statistical summary of a set of duration samples.
//
// Fields:
// - Count: number of samples.
// - Min: smallest sample.
// - Max: largest sample.
// - Mean: arithmetic mean.
// - Median: middle sample (average of the two middle samples for even counts).
// - StdDev: population standard deviation.
// - P95: 95th percentile sample.
type DurationStats struct {
	Count  int
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	Median time.Duration
	StdDev time.Duration
	P95    time.Duration
}

// Summarize computes summary statistics over the samples. A nil or empty
// slice yields a zero-valued summary.
func Summarize(samples []time.Duration) DurationStats {
	if len(samples) == 0 {
		return DurationStats{}
	}

	sorted := make([]time.Duration, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}
	mean := sum / time.Duration(len(sorted))

	var variance float64
	for _, d := range sorted {
		diff := float64(d - mean)
		variance += diff * diff
	}
	variance /= float64(len(sorted))

	return DurationStats{
		Count:  len(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   mean,
		Median: median(sorted),
		StdDev: time.Duration(math.Sqrt(variance)),
		P95:    percentile(sorted, 0.95),
	}
}

func median(sorted []time.Duration) time.Duration {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// percentile returns the sample at the given rank using nearest-rank
// selection on an already sorted slice.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
