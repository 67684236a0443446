// Package domain contains the core data model shared between the
// processing pipeline, the session store and the API layer.
package domain

import (
	"time"
)

// Series is one named (X, Y) measurement stream. XValues are integer day
// offsets, strictly increasing with no duplicates. YValues and Defined are
// aligned 1:1 with XValues; Defined[i] is true iff the source cell parsed
// as a valid number.
type Series struct {
	Name    string     `json:"name" validate:"required"`
	XValues []int      `json:"x_values"`
	YValues []*float64 `json:"y_values"`
	Defined []bool     `json:"defined_mask"`
	Color   string     `json:"color,omitempty"`
	Visible bool       `json:"visible"`
}

// Len returns the number of points in the series.
func (s *Series) Len() int {
	return len(s.XValues)
}

// DefinedAt reports whether the series has a defined value at day offset x.
func (s *Series) DefinedAt(x int) (float64, bool) {
	for i, xv := range s.XValues {
		if xv == x {
			if s.Defined[i] && s.YValues[i] != nil {
				return *s.YValues[i], true
			}
			return 0, false
		}
		if xv > x {
			break
		}
	}
	return 0, false
}

// Clone returns a deep copy of the series. Stored series are treated as
// immutable snapshots, so every mutation goes through a clone.
func (s *Series) Clone() *Series {
	c := &Series{
		Name:    s.Name,
		XValues: append([]int(nil), s.XValues...),
		YValues: make([]*float64, len(s.YValues)),
		Defined: append([]bool(nil), s.Defined...),
		Color:   s.Color,
		Visible: s.Visible,
	}
	for i, y := range s.YValues {
		if y != nil {
			v := *y
			c.YValues[i] = &v
		}
	}
	return c
}

// Statistics holds cross-series percentile statistics aligned 1:1 with the
// master timeline. A nil slot means no series had a defined value at that
// timeline point.
type Statistics struct {
	Timeline []int      `json:"timeline"`
	P10      []*float64 `json:"p10"`
	P50      []*float64 `json:"p50"`
	P90      []*float64 `json:"p90"`
	Mean     []*float64 `json:"mean"`
	Count    []int      `json:"count"`
}

// Clone returns a deep copy of the statistics.
func (st *Statistics) Clone() *Statistics {
	c := &Statistics{
		Timeline: append([]int(nil), st.Timeline...),
		P10:      cloneOptional(st.P10),
		P50:      cloneOptional(st.P50),
		P90:      cloneOptional(st.P90),
		Mean:     cloneOptional(st.Mean),
		Count:    append([]int(nil), st.Count...),
	}
	return c
}

func cloneOptional(in []*float64) []*float64 {
	out := make([]*float64, len(in))
	for i, v := range in {
		if v != nil {
			f := *v
			out[i] = &f
		}
	}
	return out
}

// ProcessedData is the server-side record of one uploaded file's fully
// processed result. It is created once at upload time; series visibility
// and color may later be patched, everything else is fixed at ingestion.
type ProcessedData struct {
	SessionID        string      `json:"session_id"`
	Series           []*Series   `json:"series"`
	Statistics       *Statistics `json:"statistics"`
	OriginalFilename string      `json:"original_filename"`
	CreatedAt        time.Time   `json:"created_at"`
}

// SeriesByName returns the series with the given name, or nil.
func (pd *ProcessedData) SeriesByName(name string) *Series {
	for _, s := range pd.Series {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// TotalRows returns the length of the longest series, matching the row
// count reported after upload.
func (pd *ProcessedData) TotalRows() int {
	max := 0
	for _, s := range pd.Series {
		if s.Len() > max {
			max = s.Len()
		}
	}
	return max
}

// Clone returns a deep copy of the processed data. The session store swaps
// clones on update so concurrent readers keep a consistent snapshot.
func (pd *ProcessedData) Clone() *ProcessedData {
	c := &ProcessedData{
		SessionID:        pd.SessionID,
		Series:           make([]*Series, len(pd.Series)),
		OriginalFilename: pd.OriginalFilename,
		CreatedAt:        pd.CreatedAt,
	}
	for i, s := range pd.Series {
		c.Series[i] = s.Clone()
	}
	if pd.Statistics != nil {
		c.Statistics = pd.Statistics.Clone()
	}
	return c
}
