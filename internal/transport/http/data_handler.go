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

// DataHandler serves processed session data and series updates.
type DataHandler struct {
	pipeline     services.DataPipeline
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a data handler.
func NewDataHandler(pipeline services.DataPipeline, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		pipeline:     pipeline,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the data routes.
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/{sessionID}", func(r chi.Router) {
		r.Use(SessionCtx(h.errorHandler))
		r.Get("/", h.GetData)
		r.Patch("/series/{name}", h.PatchSeries)
	})

	return r
}

// GetData returns the full ProcessedData snapshot for a session.
func (h *DataHandler) GetData(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	data, err := h.pipeline.Data(r.Context(), sessionID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, data)
}

// PatchSeries updates display attributes of one series.
func (h *DataHandler) PatchSeries(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	name := chi.URLParam(r, "name")

	if name == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("name", "series name is required"))
		return
	}

	var patch apiv1.SeriesPatchRequest
	if err := render.DecodeJSON(r.Body, &patch); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	if err := h.pipeline.UpdateSeries(r.Context(), sessionID, name, patch); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]string{
		"message": "Series updated",
		"series":  name,
	})
}
