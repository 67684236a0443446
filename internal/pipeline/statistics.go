package pipeline

import (
	"math"
	"sort"

	"datainsights/pkg/contracts/domain"
)

// ComputeStatistics computes P10/P50/P90, mean and defined-series count
// at every master timeline point, across all series regardless of
// visibility.
//
// A series contributes at a point only when its own x values contain
// that exact day and the value there is defined; there is no
// interpolation across neighboring points. Slots with no contributing
// series stay nil.
func ComputeStatistics(series []*domain.Series, timeline []int) *domain.Statistics {
	stats := &domain.Statistics{
		Timeline: append([]int(nil), timeline...),
		P10:      make([]*float64, len(timeline)),
		P50:      make([]*float64, len(timeline)),
		P90:      make([]*float64, len(timeline)),
		Mean:     make([]*float64, len(timeline)),
		Count:    make([]int, len(timeline)),
	}

	// Per-series day lookup built once instead of per timeline point.
	lookups := make([]map[int]*float64, len(series))
	for i, s := range series {
		lookup := make(map[int]*float64, s.Len())
		for j, day := range s.XValues {
			if s.Defined[j] {
				lookup[day] = s.YValues[j]
			}
		}
		lookups[i] = lookup
	}

	for i, day := range timeline {
		var values []float64
		for _, lookup := range lookups {
			if v, ok := lookup[day]; ok && v != nil {
				values = append(values, *v)
			}
		}

		stats.Count[i] = len(values)
		if len(values) == 0 {
			continue
		}

		sort.Float64s(values)

		p10 := Percentile(values, 0.10)
		p50 := Percentile(values, 0.50)
		p90 := Percentile(values, 0.90)
		mean := meanOf(values)

		stats.P10[i] = &p10
		stats.P50[i] = &p50
		stats.P90[i] = &p90
		stats.Mean[i] = &mean
	}

	return stats
}

// Percentile computes the p-th percentile (p in [0,1]) of an already
// sorted slice using linear interpolation between order statistics: the
// value at rank p sits at fractional index p*(n-1).
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}

	frac := idx - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
