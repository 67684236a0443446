package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "datainsights/internal/errors"
	"datainsights/internal/services"
	apiv1 "datainsights/pkg/contracts/api/v1"
)

// ChartHandler generates chart descriptors.
type ChartHandler struct {
	pipeline     services.DataPipeline
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewChartHandler creates a chart handler.
func NewChartHandler(pipeline services.DataPipeline, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ChartHandler {
	return &ChartHandler{
		pipeline:     pipeline,
		logger:       logger.With(slog.String("component", "chart_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the chart routes.
func (h *ChartHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/generate", h.Generate)

	r.Route("/preview/{sessionID}", func(r chi.Router) {
		r.Use(SessionCtx(h.errorHandler))
		r.Get("/", h.Preview)
	})

	return r
}

// Generate builds a chart descriptor from the posted ChartConfig.
func (h *ChartHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var cfg apiv1.ChartConfig
	if err := render.DecodeJSON(r.Body, &cfg); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	resp, err := h.pipeline.GenerateChart(r.Context(), &cfg)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, resp)
}

// Preview returns a chart with the default configuration.
func (h *ChartHandler) Preview(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	resp, err := h.pipeline.Preview(r.Context(), sessionID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, resp)
}
