package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apiv1 "datainsights/pkg/contracts/api/v1"
	"datainsights/pkg/contracts/domain"
)

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

func testData() *domain.ProcessedData {
	return &domain.ProcessedData{
		SessionID: "s-1",
		Series: []*domain.Series{
			{
				Name:    "ValA",
				XValues: []int{0, 30, 61},
				YValues: []*float64{floatPtr(10), nil, floatPtr(15)},
				Defined: []bool{true, false, true},
				Visible: true,
			},
			{
				Name:    "ValB",
				XValues: []int{0, 30, 61},
				YValues: []*float64{floatPtr(20), floatPtr(30), nil},
				Defined: []bool{true, true, false},
				Visible: true,
			},
		},
		Statistics: &domain.Statistics{
			Timeline: []int{0, 30, 61},
			P10:      []*float64{floatPtr(11), floatPtr(30), floatPtr(15)},
			P50:      []*float64{floatPtr(15), floatPtr(30), floatPtr(15)},
			P90:      []*float64{floatPtr(19), floatPtr(30), floatPtr(15)},
			Mean:     []*float64{floatPtr(15), floatPtr(30), floatPtr(15)},
			Count:    []int{2, 1, 1},
		},
	}
}

func TestBuildLineChart(t *testing.T) {
	b := NewBuilder(900, 600)
	cfg := apiv1.DefaultChartConfig("s-1")

	desc := b.Build(testData(), &cfg)

	require.Len(t, desc.Traces, 2)

	valA := desc.Traces[0]
	assert.Equal(t, "ValA", valA.Name)
	assert.Equal(t, []int{0, 30, 61}, valA.X)
	assert.Nil(t, valA.Y[1]) // gap preserved, not zero
	assert.Equal(t, "lines", valA.Mode)
	assert.Equal(t, DefaultPalette[0], valA.Line.Color)
	assert.Equal(t, DefaultPalette[1], desc.Traces[1].Line.Color)

	assert.Equal(t, "Line Chart", desc.Layout.Title)
	assert.Equal(t, "Time (days)", desc.Layout.XAxisTitle)
	assert.Equal(t, 900, desc.Layout.Width)
	assert.Equal(t, 600, desc.Layout.Height)
	assert.True(t, desc.Layout.ShowLegend)
}

func TestBuildCumulativeChart(t *testing.T) {
	b := NewBuilder(900, 600)
	cfg := apiv1.DefaultChartConfig("s-1")
	cfg.ChartType = "cumulative"

	desc := b.Build(testData(), &cfg)

	require.Len(t, desc.Traces, 2)
	assert.Equal(t, "Cumulative Chart", desc.Layout.Title)

	valA := desc.Traces[0]
	require.Len(t, valA.Y, 3)
	assert.Equal(t, 10.0, *valA.Y[0])
	assert.Equal(t, 10.0, *valA.Y[1]) // carries forward across the gap
	assert.Equal(t, 25.0, *valA.Y[2])

	// Last cumulative value equals the sum of all defined Y values
	assert.Equal(t, 25.0, *valA.Y[len(valA.Y)-1])
}

func TestBuildStatisticsOverlayAddsExactlyOneTrace(t *testing.T) {
	b := NewBuilder(900, 600)
	data := testData()

	base := apiv1.DefaultChartConfig("s-1")
	withP10 := base
	withP10.ShowP10 = true

	baseDesc := b.Build(data, &base)
	p10Desc := b.Build(data, &withP10)

	require.Len(t, p10Desc.Traces, len(baseDesc.Traces)+1)
	assert.Equal(t, baseDesc.Traces, p10Desc.Traces[:len(baseDesc.Traces)])

	overlay := p10Desc.Traces[len(p10Desc.Traces)-1]
	assert.Equal(t, "P10", overlay.Name)
	assert.Equal(t, StatisticsColors["p10"], overlay.Line.Color)
	assert.Equal(t, 2, overlay.Line.Width)
}

func TestBuildAllOverlaysOrdering(t *testing.T) {
	b := NewBuilder(900, 600)
	cfg := apiv1.DefaultChartConfig("s-1")
	cfg.ShowP10 = true
	cfg.ShowP50 = true
	cfg.ShowP90 = true
	cfg.ShowDefinedPoints = true

	desc := b.Build(testData(), &cfg)

	require.Len(t, desc.Traces, 6)
	assert.Equal(t, "P10", desc.Traces[2].Name)
	assert.Equal(t, "P50 (Median)", desc.Traces[3].Name)
	assert.Equal(t, "P90", desc.Traces[4].Name)

	defined := desc.Traces[5]
	assert.Equal(t, "Defined Points Count", defined.Name)
	assert.Equal(t, "tozeroy", defined.Fill)
	require.Len(t, defined.Y, 3)
	assert.Equal(t, 2.0, *defined.Y[0])
	assert.Equal(t, 1.0, *defined.Y[1])
}

func TestBuildSeriesOverrides(t *testing.T) {
	b := NewBuilder(900, 600)
	cfg := apiv1.DefaultChartConfig("s-1")
	cfg.SeriesConfig = []apiv1.SeriesOverride{
		{Name: "ValA", Visible: boolPtr(false)},
		{Name: "ValB", Color: "#123456"},
		{Name: "DoesNotExist", Color: "#ffffff"},
	}

	desc := b.Build(testData(), &cfg)

	require.Len(t, desc.Traces, 1)
	assert.Equal(t, "ValB", desc.Traces[0].Name)
	assert.Equal(t, "#123456", desc.Traces[0].Line.Color)
}

func TestBuildStoredColorWins(t *testing.T) {
	b := NewBuilder(900, 600)
	data := testData()
	data.Series[0].Color = "#abcdef"

	cfg := apiv1.DefaultChartConfig("s-1")
	desc := b.Build(data, &cfg)

	assert.Equal(t, "#abcdef", desc.Traces[0].Line.Color)
}

func TestBuildIsDeterministic(t *testing.T) {
	b := NewBuilder(900, 600)
	data := testData()
	cfg := apiv1.DefaultChartConfig("s-1")
	cfg.ShowP50 = true
	cfg.ShowDefinedPoints = true

	first := b.Build(data, &cfg)
	second := b.Build(data, &cfg)

	assert.Equal(t, first, second)
}
