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

// SessionHandler manages session lifecycle endpoints.
type SessionHandler struct {
	pipeline     services.DataPipeline
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(pipeline services.DataPipeline, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *SessionHandler {
	return &SessionHandler{
		pipeline:     pipeline,
		logger:       logger.With(slog.String("component", "session_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the session routes.
func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/{sessionID}", func(r chi.Router) {
		r.Use(SessionCtx(h.errorHandler))
		r.Delete("/", h.Delete)
		r.Get("/status", h.Status)
	})

	return r
}

// Delete removes a session. Further requests against the id yield the
// same not-found response as a session that never existed.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.pipeline.DeleteSession(r.Context(), sessionID); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]string{
		"message":    "Session deleted",
		"session_id": sessionID,
	})
}

// Status returns lifecycle info for a session.
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	status, err := h.pipeline.Status(r.Context(), sessionID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, apiv1.SessionStatusResponse{
		SessionID: status.SessionID,
		Filename:  status.OriginalFilename,
		CreatedAt: status.CreatedAt,
		ExpiresAt: status.ExpiresAt,
		Status:    string(status.State),
	})
}

// SessionCtx validates the sessionID URL parameter before the handler
// runs.
func SessionCtx(errorHandler *apierrors.ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			if sessionID == "" {
				errorHandler.HandleError(w, r, apierrors.ErrValidation("session_id", "session id is required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
