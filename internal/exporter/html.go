package exporter

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"

	json "github.com/goccy/go-json"

	"datainsights/pkg/contracts/domain"
)

// plotlyCDN is pinned so exported snapshots keep rendering identically.
const plotlyCDN = "https://cdn.plot.ly/plotly-2.35.2.min.js"

var htmlTemplate = template.Must(template.New("chart").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="{{.PlotlyCDN}}"></script>
<style>body { margin: 0; }</style>
</head>
<body>
<div id="chart"></div>
<script>
var traces = {{.Traces}};
var layout = {{.Layout}};
Plotly.newPlot("chart", traces, layout, {responsive: true});
</script>
</body>
</html>
`))

type htmlTemplateData struct {
	Title     string
	PlotlyCDN string
	Traces    template.JS
	Layout    template.JS
}

// HTMLExporter renders a chart descriptor as a self-contained
// interactive HTML page loading Plotly from its CDN.
type HTMLExporter struct {
	logger *slog.Logger
}

// NewHTMLExporter creates an HTML exporter.
func NewHTMLExporter(logger *slog.Logger) *HTMLExporter {
	return &HTMLExporter{logger: logger.With(slog.String("component", "html_exporter"))}
}

// Export embeds the descriptor's traces and layout as Plotly JSON.
func (e *HTMLExporter) Export(desc *domain.ChartDescriptor) ([]byte, error) {
	traces, err := json.Marshal(desc.Traces)
	if err != nil {
		return nil, fmt.Errorf("marshal traces: %w", err)
	}

	layout, err := json.Marshal(plotlyLayout(desc.Layout))
	if err != nil {
		return nil, fmt.Errorf("marshal layout: %w", err)
	}

	var buf bytes.Buffer
	err = htmlTemplate.Execute(&buf, htmlTemplateData{
		Title:     desc.Layout.Title,
		PlotlyCDN: plotlyCDN,
		Traces:    template.JS(traces),
		Layout:    template.JS(layout),
	})
	if err != nil {
		return nil, fmt.Errorf("execute html template: %w", err)
	}

	return buf.Bytes(), nil
}

// plotlyLayout maps the renderer-agnostic layout onto Plotly's layout
// shape.
func plotlyLayout(l domain.Layout) map[string]interface{} {
	return map[string]interface{}{
		"title":      map[string]interface{}{"text": l.Title},
		"xaxis":      map[string]interface{}{"title": map[string]interface{}{"text": l.XAxisTitle}},
		"yaxis":      map[string]interface{}{"title": map[string]interface{}{"text": l.YAxisTitle}},
		"width":      l.Width,
		"height":     l.Height,
		"showlegend": l.ShowLegend,
		"hovermode":  "x unified",
	}
}
