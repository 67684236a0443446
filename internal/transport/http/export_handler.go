package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "datainsights/internal/errors"
	"datainsights/internal/exporter"
	"datainsights/internal/services"
)

// ExportHandler serves downloadable artifacts: static images, CSV,
// interactive HTML and Excel workbooks.
type ExportHandler struct {
	pipeline     services.DataPipeline
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewExportHandler creates an export handler.
func NewExportHandler(pipeline services.DataPipeline, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ExportHandler {
	return &ExportHandler{
		pipeline:     pipeline,
		logger:       logger.With(slog.String("component", "export_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the export routes.
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/csv/{sessionID}", func(r chi.Router) {
		r.Use(SessionCtx(h.errorHandler))
		r.Get("/", h.ExportCSV)
	})
	r.Route("/html/{sessionID}", func(r chi.Router) {
		r.Use(SessionCtx(h.errorHandler))
		r.Get("/", h.ExportHTML)
	})
	r.Route("/xlsx/{sessionID}", func(r chi.Router) {
		r.Use(SessionCtx(h.errorHandler))
		r.Get("/", h.ExportXLSX)
	})
	r.Route("/{sessionID}", func(r chi.Router) {
		r.Use(SessionCtx(h.errorHandler))
		r.Get("/", h.ExportImage)
	})

	return r
}

// ExportImage serves a static rendering of the session's chart.
// Query parameters: format (png|pdf|jpeg, default png), width, height.
func (h *ExportHandler) ExportImage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = exporter.FormatPNG
	}

	width, err := parseDimension(r, "width")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	height, err := parseDimension(r, "height")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	blob, err := h.pipeline.ExportImage(r.Context(), sessionID, format, width, height)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	contentType := "image/png"
	switch format {
	case exporter.FormatJPEG:
		contentType = "image/jpeg"
	case exporter.FormatPDF:
		contentType = "application/pdf"
	}

	serveBlob(w, blob, contentType, fmt.Sprintf("chart_%s.%s", sessionID, format))
}

// ExportCSV serves the session's series and statistics as CSV.
func (h *ExportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	blob, err := h.pipeline.ExportCSV(r.Context(), sessionID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	serveBlob(w, blob, "text/csv; charset=utf-8", fmt.Sprintf("data_%s.csv", sessionID))
}

// ExportHTML serves a self-contained interactive chart snapshot.
func (h *ExportHandler) ExportHTML(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	blob, err := h.pipeline.ExportHTML(r.Context(), sessionID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	serveBlob(w, blob, "text/html; charset=utf-8", fmt.Sprintf("chart_%s.html", sessionID))
}

// ExportXLSX serves the session as an Excel workbook.
func (h *ExportHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	blob, err := h.pipeline.ExportXLSX(r.Context(), sessionID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	serveBlob(w, blob,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		fmt.Sprintf("data_%s.xlsx", sessionID))
}

func parseDimension(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apierrors.ErrValidation(name, fmt.Sprintf("%s must be a positive integer", name))
	}
	return v, nil
}

func serveBlob(w http.ResponseWriter, blob []byte, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(blob)))
	w.WriteHeader(http.StatusOK)
	w.Write(blob)
}
