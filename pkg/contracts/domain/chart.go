package domain

// ChartType selects how series values are plotted.
type ChartType string

const (
	ChartTypeLine       ChartType = "line"
	ChartTypeCumulative ChartType = "cumulative"
)

// LineStyle describes how a trace line is drawn.
type LineStyle struct {
	Color string `json:"color"`
	Width int    `json:"width"`
}

// Trace is one renderer-agnostic line in a chart. Nil Y entries must be
// rendered as visual gaps, never as zero.
type Trace struct {
	Name      string     `json:"name"`
	X         []int      `json:"x"`
	Y         []*float64 `json:"y"`
	Mode      string     `json:"mode"`
	Line      LineStyle  `json:"line"`
	Fill      string     `json:"fill,omitempty"`
	FillColor string     `json:"fillcolor,omitempty"`
}

// Layout carries rendering hints that apply to the whole chart.
type Layout struct {
	Title      string `json:"title"`
	XAxisTitle string `json:"xaxis_title"`
	YAxisTitle string `json:"yaxis_title"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	ShowLegend bool   `json:"show_legend"`
}

// ChartDescriptor is a complete, renderer-agnostic description of a chart.
// It is produced fresh per request and never mutated after construction;
// identical inputs always yield an identical descriptor.
type ChartDescriptor struct {
	Traces []Trace `json:"traces"`
	Layout Layout  `json:"layout"`
}
