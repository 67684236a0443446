// Package chart assembles renderer-agnostic chart descriptors from
// processed session data. Output is pure and deterministic: the same
// data and config always produce an identical descriptor.
package chart

import (
	apiv1 "datainsights/pkg/contracts/api/v1"
	"datainsights/pkg/contracts/domain"
)

// DefaultPalette is the color cycle assigned to series without an
// explicit color, indexed by the series' stored position.
var DefaultPalette = []string{
	"#1f77b4",
	"#ff7f0e",
	"#2ca02c",
	"#d62728",
	"#9467bd",
	"#8c564b",
	"#e377c2",
	"#7f7f7f",
	"#bcbd22",
	"#17becf",
}

// StatisticsColors are reserved, non-configurable colors for the
// percentile overlay traces.
var StatisticsColors = map[string]string{
	"p10": "#FF0000",
	"p50": "#0000FF",
	"p90": "#00FF00",
}

const (
	definedPointsColor     = "purple"
	definedPointsFillColor = "rgba(128, 0, 128, 0.2)"

	seriesLineWidth     = 1
	statisticsLineWidth = 2
)

// Builder constructs chart descriptors with configured default layout
// dimensions.
type Builder struct {
	defaultWidth  int
	defaultHeight int
}

// NewBuilder creates a chart builder.
func NewBuilder(defaultWidth, defaultHeight int) *Builder {
	return &Builder{
		defaultWidth:  defaultWidth,
		defaultHeight: defaultHeight,
	}
}

// Build produces a chart descriptor for the given processed data and
// request config. Visibility and color overrides from the config are
// applied on top of the stored series attributes; series missing from
// the override list keep their stored values.
func (b *Builder) Build(data *domain.ProcessedData, cfg *apiv1.ChartConfig) *domain.ChartDescriptor {
	overrides := make(map[string]apiv1.SeriesOverride, len(cfg.SeriesConfig))
	for _, o := range cfg.SeriesConfig {
		overrides[o.Name] = o
	}

	desc := &domain.ChartDescriptor{}

	for idx, series := range data.Series {
		visible := series.Visible
		color := series.Color

		if o, ok := overrides[series.Name]; ok {
			if o.Visible != nil {
				visible = *o.Visible
			}
			if o.Color != "" {
				color = o.Color
			}
		}

		if !visible {
			continue
		}

		if color == "" {
			color = DefaultPalette[idx%len(DefaultPalette)]
		}

		switch domain.ChartType(cfg.ChartType) {
		case domain.ChartTypeCumulative:
			desc.Traces = append(desc.Traces, cumulativeTrace(series, color))
		default:
			desc.Traces = append(desc.Traces, lineTrace(series, color))
		}
	}

	b.addStatisticsTraces(desc, data.Statistics, cfg)

	if cfg.ShowDefinedPoints {
		desc.Traces = append(desc.Traces, definedPointsTrace(data.Statistics))
	}

	desc.Layout = domain.Layout{
		Title:      chartTitle(cfg.ChartType),
		XAxisTitle: "Time (days)",
		YAxisTitle: "Value",
		Width:      b.defaultWidth,
		Height:     b.defaultHeight,
		ShowLegend: cfg.ShowLegend,
	}

	return desc
}

// lineTrace keeps undefined entries as nil so renderers draw a gap
// instead of a zero.
func lineTrace(series *domain.Series, color string) domain.Trace {
	return domain.Trace{
		Name: series.Name,
		X:    append([]int(nil), series.XValues...),
		Y:    append([]*float64(nil), series.YValues...),
		Mode: "lines",
		Line: domain.LineStyle{Color: color, Width: seriesLineWidth},
	}
}

// cumulativeTrace accumulates defined values; undefined points add zero
// and the running total carries forward so the line stays continuous.
func cumulativeTrace(series *domain.Series, color string) domain.Trace {
	y := make([]*float64, series.Len())
	sum := 0.0

	for i := range series.XValues {
		if series.Defined[i] && series.YValues[i] != nil {
			sum += *series.YValues[i]
		}
		v := sum
		y[i] = &v
	}

	return domain.Trace{
		Name: series.Name,
		X:    append([]int(nil), series.XValues...),
		Y:    y,
		Mode: "lines",
		Line: domain.LineStyle{Color: color, Width: seriesLineWidth},
	}
}

func (b *Builder) addStatisticsTraces(desc *domain.ChartDescriptor, stats *domain.Statistics, cfg *apiv1.ChartConfig) {
	if stats == nil {
		return
	}

	if cfg.ShowP10 {
		desc.Traces = append(desc.Traces, statisticsTrace("P10", stats.Timeline, stats.P10, StatisticsColors["p10"]))
	}
	if cfg.ShowP50 {
		desc.Traces = append(desc.Traces, statisticsTrace("P50 (Median)", stats.Timeline, stats.P50, StatisticsColors["p50"]))
	}
	if cfg.ShowP90 {
		desc.Traces = append(desc.Traces, statisticsTrace("P90", stats.Timeline, stats.P90, StatisticsColors["p90"]))
	}
}

func statisticsTrace(name string, timeline []int, values []*float64, color string) domain.Trace {
	return domain.Trace{
		Name: name,
		X:    append([]int(nil), timeline...),
		Y:    append([]*float64(nil), values...),
		Mode: "lines",
		Line: domain.LineStyle{Color: color, Width: statisticsLineWidth},
	}
}

// definedPointsTrace answers "how many series have data at this time"
// over the master timeline.
func definedPointsTrace(stats *domain.Statistics) domain.Trace {
	y := make([]*float64, len(stats.Count))
	for i, c := range stats.Count {
		v := float64(c)
		y[i] = &v
	}

	return domain.Trace{
		Name:      "Defined Points Count",
		X:         append([]int(nil), stats.Timeline...),
		Y:         y,
		Mode:      "lines",
		Line:      domain.LineStyle{Color: definedPointsColor, Width: seriesLineWidth},
		Fill:      "tozeroy",
		FillColor: definedPointsFillColor,
	}
}

func chartTitle(chartType string) string {
	if domain.ChartType(chartType) == domain.ChartTypeCumulative {
		return "Cumulative Chart"
	}
	return "Line Chart"
}
