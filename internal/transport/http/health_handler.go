package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// HealthHandler reports service liveness and dataset readiness
type HealthHandler struct {
	service AnalysisReader
	logger  *slog.Logger
	started time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service AnalysisReader, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  logger.With(slog.String("component", "health_handler")),
		started: time.Now(),
	}
}

// Routes returns the health routes
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/", h.GetHealth)
	return r
}

// GetHealth handles GET /api/health. The service is degraded until a
// dataset has been loaded.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := h.service.Status()

	state := "healthy"
	if !status.Loaded {
		state = "degraded"
	}

	render.JSON(w, r, map[string]interface{}{
		"status":  state,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
		"dataset": status,
	})
}
