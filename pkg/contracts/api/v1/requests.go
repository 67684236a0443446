// Package api contains API contract definitions for the Data Insights
// service. Version v1 represents the current stable API version.
package api

// ChartConfig configures one chart-generation request. It is transient:
// constructed per request and never stored.
type ChartConfig struct {
	SessionID         string           `json:"session_id" validate:"required,uuid4"`
	ChartType         string           `json:"chart_type" validate:"omitempty,oneof=line cumulative"`
	ShowLegend        bool             `json:"show_legend"`
	ShowDefinedPoints bool             `json:"show_defined_points"`
	ShowP10           bool             `json:"show_p10"`
	ShowP50           bool             `json:"show_p50"`
	ShowP90           bool             `json:"show_p90"`
	SeriesConfig      []SeriesOverride `json:"series_config,omitempty" validate:"omitempty,dive"`
}

// SeriesOverride is a per-series visibility/color override applied on top
// of the stored series state. Nil Visible leaves the stored value intact.
type SeriesOverride struct {
	Name    string `json:"name" validate:"required"`
	Visible *bool  `json:"visible,omitempty"`
	Color   string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// DefaultChartConfig returns the configuration used by the preview and
// export endpoints: line chart, legend on, no overlays.
func DefaultChartConfig(sessionID string) ChartConfig {
	return ChartConfig{
		SessionID:  sessionID,
		ChartType:  "line",
		ShowLegend: true,
	}
}

// SeriesPatchRequest updates display attributes of one stored series.
type SeriesPatchRequest struct {
	Visible *bool  `json:"visible,omitempty"`
	Color   string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}
