package services

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datainsights/internal/config"
	apierrors "datainsights/internal/errors"
	"datainsights/internal/exporter"
	"datainsights/internal/session"
	apiv1 "datainsights/pkg/contracts/api/v1"
)

const sampleCSV = "MonthA,ValA,MonthB,ValB\n" +
	"0,10,0,20\n" +
	"1,,1,30\n" +
	"2,15,2,\n"

func newTestService(t *testing.T) *DataService {
	t.Helper()

	cfg := config.Default()
	logger := slog.Default()

	store := session.NewStore(cfg.Session.TTL, time.Hour, logger)
	t.Cleanup(store.Close)

	image := exporter.NewImageRenderer(exporter.NewHTMLExporter(logger), cfg.Export.RenderTimeout, logger)

	return NewDataService(cfg, store, image, logger)
}

func mustIngest(t *testing.T, s *DataService) string {
	t.Helper()
	resp, err := s.Ingest(context.Background(), []byte(sampleCSV), "wells.csv")
	require.NoError(t, err)
	return resp.SessionID
}

func TestIngest(t *testing.T) {
	s := newTestService(t)

	resp, err := s.Ingest(context.Background(), []byte(sampleCSV), "wells.csv")
	require.NoError(t, err)

	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, 2, resp.SeriesCount)
	assert.Equal(t, 3, resp.TotalRows)
	assert.Equal(t, "wells.csv", resp.OriginalFilename)
}

func TestIngestRejectsWrongExtension(t *testing.T) {
	s := newTestService(t)

	_, err := s.Ingest(context.Background(), []byte(sampleCSV), "wells.xlsx")
	require.Error(t, err)

	apiErr, ok := err.(*apierrors.APIError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)
}

func TestIngestRejectsOversizedPayload(t *testing.T) {
	s := newTestService(t)
	s.cfg.Upload.MaxSize = 8

	_, err := s.Ingest(context.Background(), []byte(sampleCSV), "wells.csv")
	assert.ErrorIs(t, err, apierrors.ErrPayloadTooLarge)
}

func TestIngestRejectsMalformedCSV(t *testing.T) {
	s := newTestService(t)

	_, err := s.Ingest(context.Background(), []byte("X,Y,Z\n1,2,3\n"), "bad.csv")
	require.Error(t, err)

	apiErr, ok := err.(*apierrors.APIError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)
}

func TestDistinctSessionsPerUpload(t *testing.T) {
	s := newTestService(t)

	id1 := mustIngest(t, s)
	id2 := mustIngest(t, s)

	assert.NotEqual(t, id1, id2)

	_, err := s.Data(context.Background(), id1)
	require.NoError(t, err)
	_, err = s.Data(context.Background(), id2)
	require.NoError(t, err)
}

func TestDataUnknownSession(t *testing.T) {
	s := newTestService(t)

	_, err := s.Data(context.Background(), "missing")
	require.Error(t, err)

	apiErr, ok := err.(*apierrors.APIError)
	require.True(t, ok)
	assert.Equal(t, "SESSION_NOT_FOUND", apiErr.ErrorCode)
}

func TestGenerateChart(t *testing.T) {
	s := newTestService(t)
	id := mustIngest(t, s)

	resp, err := s.Preview(context.Background(), id)
	require.NoError(t, err)

	require.NotNil(t, resp.Chart)
	assert.Len(t, resp.Chart.Traces, 2)
	assert.Equal(t, "#FF0000", resp.StatisticsColors["p10"])
	assert.Equal(t, "#0000FF", resp.StatisticsColors["p50"])
	assert.Equal(t, "#00FF00", resp.StatisticsColors["p90"])
}

func TestGenerateChartValidatesConfig(t *testing.T) {
	s := newTestService(t)
	id := mustIngest(t, s)

	cfg := apiv1.DefaultChartConfig(id)
	cfg.ChartType = "pie"

	_, err := s.GenerateChart(context.Background(), &cfg)
	require.Error(t, err)

	apiErr, ok := err.(*apierrors.APIError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)
}

func TestUpdateSeriesUnknownName(t *testing.T) {
	s := newTestService(t)
	id := mustIngest(t, s)

	visible := false
	err := s.UpdateSeries(context.Background(), id, "Nope", apiv1.SeriesPatchRequest{Visible: &visible})
	require.Error(t, err)

	apiErr, ok := err.(*apierrors.APIError)
	require.True(t, ok)
	assert.Equal(t, "SERIES_NOT_FOUND", apiErr.ErrorCode)
}

func TestUpdateSeriesThenChartReflectsIt(t *testing.T) {
	s := newTestService(t)
	id := mustIngest(t, s)

	visible := false
	require.NoError(t, s.UpdateSeries(context.Background(), id, "ValA", apiv1.SeriesPatchRequest{Visible: &visible}))

	resp, err := s.Preview(context.Background(), id)
	require.NoError(t, err)

	require.Len(t, resp.Chart.Traces, 1)
	assert.Equal(t, "ValB", resp.Chart.Traces[0].Name)
}

func TestDeleteSessionThenEverythingIsNotFound(t *testing.T) {
	s := newTestService(t)
	id := mustIngest(t, s)
	ctx := context.Background()

	require.NoError(t, s.DeleteSession(ctx, id))

	_, err := s.Data(ctx, id)
	assert.Error(t, err)

	_, err = s.Preview(ctx, id)
	assert.Error(t, err)

	_, err = s.ExportCSV(ctx, id)
	assert.Error(t, err)

	_, err = s.Status(ctx, id)
	assert.Error(t, err)

	assert.Error(t, s.DeleteSession(ctx, id))
}

func TestExportCSV(t *testing.T) {
	s := newTestService(t)
	id := mustIngest(t, s)

	out, err := s.ExportCSV(context.Background(), id)
	require.NoError(t, err)

	text := string(out)
	assert.True(t, strings.HasPrefix(text, "# Data Insights Export"))
	assert.Contains(t, text, "ValA_X,ValA_Y,ValA_Count_Stat")
	assert.Contains(t, text, "Timeline,P10,P50,P90")
}

func TestExportHTML(t *testing.T) {
	s := newTestService(t)
	id := mustIngest(t, s)

	out, err := s.ExportHTML(context.Background(), id)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Plotly.newPlot")
}

func TestExportXLSX(t *testing.T) {
	s := newTestService(t)
	id := mustIngest(t, s)

	out, err := s.ExportXLSX(context.Background(), id)
	require.NoError(t, err)
	// XLSX files are zip archives
	assert.Equal(t, "PK", string(out[:2]))
}

func TestExportImageValidation(t *testing.T) {
	s := newTestService(t)
	id := mustIngest(t, s)
	ctx := context.Background()

	_, err := s.ExportImage(ctx, id, "svg", 0, 0)
	require.Error(t, err)

	_, err = s.ExportImage(ctx, id, "png", 10, 0)
	require.Error(t, err)

	_, err = s.ExportImage(ctx, id, "png", 0, 9999)
	require.Error(t, err)
}

func TestStatus(t *testing.T) {
	s := newTestService(t)
	id := mustIngest(t, s)

	status, err := s.Status(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, id, status.SessionID)
	assert.Equal(t, "wells.csv", status.OriginalFilename)
	assert.Equal(t, 2, status.SeriesCount)
}
