// Package services wires the processing core, session store, chart
// builder and exporters behind a single DataPipeline capability the
// transport layer depends on.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"datainsights/internal/chart"
	"datainsights/internal/config"
	apierrors "datainsights/internal/errors"
	"datainsights/internal/exporter"
	"datainsights/internal/ingest"
	"datainsights/internal/pipeline"
	"datainsights/internal/session"
	apiv1 "datainsights/pkg/contracts/api/v1"
	"datainsights/pkg/contracts/domain"
)

// DataPipeline is the capability the HTTP layer is injected with. Tests
// substitute fakes without a live transport.
type DataPipeline interface {
	Ingest(ctx context.Context, data []byte, filename string) (*apiv1.UploadResponse, error)
	Data(ctx context.Context, sessionID string) (*domain.ProcessedData, error)
	GenerateChart(ctx context.Context, cfg *apiv1.ChartConfig) (*apiv1.ChartResponse, error)
	Preview(ctx context.Context, sessionID string) (*apiv1.ChartResponse, error)
	UpdateSeries(ctx context.Context, sessionID, name string, patch apiv1.SeriesPatchRequest) error
	DeleteSession(ctx context.Context, sessionID string) error
	Status(ctx context.Context, sessionID string) (*session.Status, error)
	ExportCSV(ctx context.Context, sessionID string) ([]byte, error)
	ExportHTML(ctx context.Context, sessionID string) ([]byte, error)
	ExportXLSX(ctx context.Context, sessionID string) ([]byte, error)
	ExportImage(ctx context.Context, sessionID, format string, width, height int) ([]byte, error)
}

// DataService is the production DataPipeline implementation.
type DataService struct {
	cfg       *config.Config
	processor *pipeline.Processor
	store     *session.Store
	builder   *chart.Builder
	csv       *exporter.CSVExporter
	html      *exporter.HTMLExporter
	xlsx      *exporter.XLSXExporter
	image     *exporter.ImageRenderer
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewDataService assembles the pipeline from its parts.
func NewDataService(cfg *config.Config, store *session.Store, image *exporter.ImageRenderer, logger *slog.Logger) *DataService {
	return &DataService{
		cfg:       cfg,
		processor: pipeline.NewProcessor(cfg.Processing.MonthsToDaysFactor, logger),
		store:     store,
		builder:   chart.NewBuilder(cfg.Chart.DefaultWidth, cfg.Chart.DefaultHeight),
		csv:       exporter.NewCSVExporter(logger),
		html:      exporter.NewHTMLExporter(logger),
		xlsx:      exporter.NewXLSXExporter(logger),
		image:     image,
		validate:  validator.New(),
		logger:    logger.With(slog.String("component", "data_service")),
	}
}

// Ingest validates, parses and processes an uploaded file and stores
// the result under a fresh session id.
func (s *DataService) Ingest(ctx context.Context, data []byte, filename string) (*apiv1.UploadResponse, error) {
	if int64(len(data)) > s.cfg.Upload.MaxSize {
		return nil, apierrors.ErrPayloadTooLarge
	}

	if ext := filepath.Ext(filename); !s.cfg.Upload.AllowsExtension(ext) {
		return nil, apierrors.NewValidationError(fmt.Sprintf("file extension %q is not allowed", ext))
	}

	processed, err := s.processor.Process(ctx, data, filename)
	if err != nil {
		var verr *ingest.ValidationError
		if errors.As(err, &verr) {
			return nil, apierrors.NewValidationError(verr.Reason)
		}
		return nil, apierrors.NewProcessingError("failed to process uploaded file", err)
	}

	id := s.store.Create(processed)

	return &apiv1.UploadResponse{
		SessionID:        id,
		Message:          "File processed successfully",
		SeriesCount:      len(processed.Series),
		TotalRows:        processed.TotalRows(),
		OriginalFilename: filename,
	}, nil
}

// Data returns a snapshot of the processed session data.
func (s *DataService) Data(ctx context.Context, sessionID string) (*domain.ProcessedData, error) {
	data, err := s.store.Get(sessionID)
	if err != nil {
		return nil, s.mapStoreError(err, sessionID)
	}
	return data, nil
}

// GenerateChart builds a chart descriptor from a snapshot of the
// session data and the request configuration.
func (s *DataService) GenerateChart(ctx context.Context, cfg *apiv1.ChartConfig) (*apiv1.ChartResponse, error) {
	if err := s.validate.Struct(cfg); err != nil {
		return nil, apierrors.NewValidationError(fmt.Sprintf("invalid chart config: %v", err))
	}

	data, err := s.store.Get(cfg.SessionID)
	if err != nil {
		return nil, s.mapStoreError(err, cfg.SessionID)
	}

	// Lifecycle bookkeeping; generation itself is a pure read over the
	// snapshot, so a concurrent generate that already holds the
	// Generating state is not an error.
	if err := s.store.SetState(cfg.SessionID, pipeline.StateGenerating); err == nil {
		defer func() {
			_ = s.store.SetState(cfg.SessionID, pipeline.StateReady)
		}()
	}

	desc := s.builder.Build(data, cfg)

	return &apiv1.ChartResponse{
		Chart:            desc,
		Config:           *cfg,
		StatisticsColors: chart.StatisticsColors,
	}, nil
}

// Preview generates a chart with the default configuration.
func (s *DataService) Preview(ctx context.Context, sessionID string) (*apiv1.ChartResponse, error) {
	cfg := apiv1.DefaultChartConfig(sessionID)
	return s.GenerateChart(ctx, &cfg)
}

// UpdateSeries patches display attributes of one stored series.
func (s *DataService) UpdateSeries(ctx context.Context, sessionID, name string, patch apiv1.SeriesPatchRequest) error {
	if err := s.validate.Struct(patch); err != nil {
		return apierrors.NewValidationError(fmt.Sprintf("invalid series patch: %v", err))
	}

	if err := s.store.UpdateSeries(sessionID, name, patch); err != nil {
		if errors.Is(err, session.ErrSeriesNotFound) {
			return apierrors.NewWithDetails(http.StatusNotFound, "SERIES_NOT_FOUND",
				fmt.Sprintf("Series not found: %s", name), name)
		}
		return s.mapStoreError(err, sessionID)
	}
	return nil
}

// DeleteSession removes the session.
func (s *DataService) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(sessionID); err != nil {
		return s.mapStoreError(err, sessionID)
	}
	return nil
}

// Status reports lifecycle info for the session.
func (s *DataService) Status(ctx context.Context, sessionID string) (*session.Status, error) {
	status, err := s.store.Status(sessionID)
	if err != nil {
		return nil, s.mapStoreError(err, sessionID)
	}
	return status, nil
}

// ExportCSV reconstructs series and statistics as CSV bytes.
func (s *DataService) ExportCSV(ctx context.Context, sessionID string) ([]byte, error) {
	data, err := s.Data(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out, err := s.csv.Export(data)
	if err != nil {
		return nil, apierrors.NewInternalError(fmt.Sprintf("csv export failed: %v", err))
	}
	return out, nil
}

// ExportHTML renders an interactive chart snapshot with the default
// configuration.
func (s *DataService) ExportHTML(ctx context.Context, sessionID string) ([]byte, error) {
	resp, err := s.Preview(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out, err := s.html.Export(resp.Chart)
	if err != nil {
		return nil, apierrors.NewInternalError(fmt.Sprintf("html export failed: %v", err))
	}
	return out, nil
}

// ExportXLSX writes the session to an Excel workbook.
func (s *DataService) ExportXLSX(ctx context.Context, sessionID string) ([]byte, error) {
	data, err := s.Data(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out, err := s.xlsx.Export(data)
	if err != nil {
		return nil, apierrors.NewInternalError(fmt.Sprintf("xlsx export failed: %v", err))
	}
	return out, nil
}

// ExportImage rasterizes the default chart to a static image. Width and
// height fall back to configured defaults and are bounds-checked.
func (s *DataService) ExportImage(ctx context.Context, sessionID, format string, width, height int) ([]byte, error) {
	switch format {
	case exporter.FormatPNG, exporter.FormatJPEG, exporter.FormatPDF:
	default:
		return nil, apierrors.NewValidationError(fmt.Sprintf("format must be one of png, pdf, jpeg, got %q", format))
	}

	if width == 0 {
		width = s.cfg.Export.DefaultImageWidth
	}
	if height == 0 {
		height = s.cfg.Export.DefaultImageHeight
	}

	if width < s.cfg.Export.MinWidth || width > s.cfg.Export.MaxWidth {
		return nil, apierrors.NewValidationError(fmt.Sprintf(
			"width must be between %d and %d", s.cfg.Export.MinWidth, s.cfg.Export.MaxWidth))
	}
	if height < s.cfg.Export.MinHeight || height > s.cfg.Export.MaxHeight {
		return nil, apierrors.NewValidationError(fmt.Sprintf(
			"height must be between %d and %d", s.cfg.Export.MinHeight, s.cfg.Export.MaxHeight))
	}

	resp, err := s.Preview(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out, err := s.image.Render(ctx, resp.Chart, format, width, height)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, apierrors.NewWithDetails(http.StatusInternalServerError, "RENDER_FAILED",
			"Static chart rendering failed", err.Error())
	}
	return out, nil
}

// mapStoreError collapses never-existed, expired and deleted sessions
// into the same not-found error.
func (s *DataService) mapStoreError(err error, sessionID string) error {
	if errors.Is(err, session.ErrNotFound) {
		return apierrors.SessionNotFoundError(sessionID)
	}
	return apierrors.NewInternalError(err.Error())
}
