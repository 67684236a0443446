package http

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apiv1 "datainsights/pkg/contracts/api/v1"
)

// Build information, set via -ldflags at build time.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// HealthHandler serves liveness and build info endpoints.
type HealthHandler struct{}

// NewHealthHandler creates a health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Routes returns the health routes.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/healthz", h.Health)
	r.Get("/version", h.Version)

	return r
}

// Health reports service liveness.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	render.JSON(w, r, apiv1.HealthResponse{
		Status:      "ok",
		Version:     Version,
		Environment: env,
		Timestamp:   time.Now().UTC(),
	})
}

// Version reports build information.
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, apiv1.VersionResponse{
		Name:      "data-insights",
		Version:   Version,
		BuildTime: BuildTime,
	})
}
