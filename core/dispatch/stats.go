package dispatch

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TravelStats summarises travel-time samples.
type TravelStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	P95    float64 `json:"p95"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

func averageOf(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	return stat.Mean(samples, nil)
}

func travelStats(samples []float64) TravelStats {
	if len(samples) == 0 {
		return TravelStats{}
	}
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)
	ts := TravelStats{
		Count: len(sorted),
		Mean:  stat.Mean(sorted, nil),
		P95:   stat.Quantile(0.95, stat.Empirical, sorted, nil),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
	}
	if len(sorted) > 1 {
		ts.StdDev = stat.StdDev(sorted, nil)
	}
	return ts
}
