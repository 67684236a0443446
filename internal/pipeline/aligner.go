// Package pipeline implements the processing core: timeline alignment,
// percentile statistics and orchestration from raw CSV bytes to a
// stored ProcessedData record.
package pipeline

import (
	"math"
	"sort"

	"datainsights/internal/ingest"
	"datainsights/pkg/contracts/domain"
)

// TruncShift nudges values sitting just below a rounding boundary so
// that repeated float conversions land on a stable integer day.
const TruncShift = 0.00001

// Aligner converts fractional-month X values onto the shared integer
// day axis.
type Aligner struct {
	monthsToDaysFactor float64
}

// NewAligner creates an aligner with the given month-to-day conversion
// factor.
func NewAligner(monthsToDaysFactor float64) *Aligner {
	return &Aligner{monthsToDaysFactor: monthsToDaysFactor}
}

// ToDay converts a fractional month value to an integer day offset.
func (a *Aligner) ToDay(months float64) int {
	return int(math.Round(months*a.monthsToDaysFactor + TruncShift))
}

// Align converts one raw series to day offsets, collapsing rows that
// land on the same day. The later row wins so the series keeps strictly
// increasing X values.
func (a *Aligner) Align(raw *ingest.RawSeries) *domain.Series {
	type point struct {
		y       *float64
		defined bool
	}

	byDay := make(map[int]point, len(raw.X))
	for i, x := range raw.X {
		byDay[a.ToDay(x)] = point{y: raw.Y[i], defined: raw.Defined[i]}
	}

	days := make([]int, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Ints(days)

	series := &domain.Series{
		Name:    raw.Name,
		XValues: days,
		YValues: make([]*float64, len(days)),
		Defined: make([]bool, len(days)),
		Visible: true,
	}

	for i, day := range days {
		p := byDay[day]
		series.YValues[i] = p.y
		series.Defined[i] = p.defined
	}

	return series
}

// AlignAll converts every raw series and builds the master timeline as
// the sorted union of all day offsets.
func (a *Aligner) AlignAll(raw []*ingest.RawSeries) ([]*domain.Series, []int) {
	series := make([]*domain.Series, 0, len(raw))
	union := make(map[int]struct{})

	for _, r := range raw {
		s := a.Align(r)
		series = append(series, s)
		for _, day := range s.XValues {
			union[day] = struct{}{}
		}
	}

	timeline := make([]int, 0, len(union))
	for day := range union {
		timeline = append(timeline, day)
	}
	sort.Ints(timeline)

	return series, timeline
}
