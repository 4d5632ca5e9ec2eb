package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"bnbpulse/internal/analysis"
	apierrors "bnbpulse/internal/errors"
	"bnbpulse/internal/middleware"
	"bnbpulse/internal/services"
)

// AnalysisReader is the service surface the analysis handler depends on
type AnalysisReader interface {
	Overview(ctx context.Context) (analysis.Stats, error)
	StatsBy(ctx context.Context, column string) ([]analysis.GroupStats, error)
	Boroughs(ctx context.Context) ([]analysis.GroupStats, error)
	CompareAgainst(ctx context.Context, target string) (analysis.BoroughComparison, error)
	Luxury(ctx context.Context, threshold float64) (int, error)
	LuxuryBy(ctx context.Context, threshold float64, column string) ([]analysis.GroupCount, error)
	SeasonalRange(ctx context.Context) (analysis.SeasonalRange, error)
	TopNeighborhoods(ctx context.Context, borough string, limit int) ([]analysis.NeighborhoodPrice, error)
	Correlations(ctx context.Context, columns []string) (*analysis.CorrelationMatrix, error)
	Status() services.DatasetStatus
}

// AnalysisHandler handles analysis HTTP requests with RFC 7807 compliance
type AnalysisHandler struct {
	service      AnalysisReader
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnalysisHandler creates a new analysis handler with RFC 7807 error handling
func NewAnalysisHandler(service AnalysisReader, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalysisHandler {
	return &AnalysisHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "analysis_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the analysis routes
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/stats", h.GetStats)
	r.Get("/boroughs", h.GetBoroughs)
	r.Get("/boroughs/compare", h.GetBoroughComparison)
	r.Get("/luxury", h.GetLuxuryCounts)
	r.Get("/seasonal-range", h.GetSeasonalRange)
	r.Get("/neighborhoods", h.GetTopNeighborhoods)
	r.Get("/correlation", h.GetCorrelations)

	return r
}

// GetStats handles GET /api/stats with an optional group_by query
func (h *AnalysisHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	groupBy := r.URL.Query().Get("group_by")

	h.logger.InfoContext(r.Context(), "computing rental stats",
		slog.String("request_id", reqID),
		slog.String("group_by", groupBy),
	)

	if groupBy == "" {
		stats, err := h.service.Overview(r.Context())
		if err != nil {
			h.handleError(w, r, "rental stats failed", err)
			return
		}
		render.JSON(w, r, map[string]interface{}{
			"status": "success",
			"data":   stats,
		})
		return
	}

	groups, err := h.service.StatsBy(r.Context(), groupBy)
	if err != nil {
		h.handleError(w, r, "grouped rental stats failed", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":   "success",
		"group_by": groupBy,
		"data":     groups,
		"count":    len(groups),
	})
}

// GetBoroughs handles GET /api/boroughs
func (h *AnalysisHandler) GetBoroughs(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	h.logger.InfoContext(r.Context(), "comparing boroughs",
		slog.String("request_id", reqID),
	)

	groups, err := h.service.Boroughs(r.Context())
	if err != nil {
		h.handleError(w, r, "borough comparison failed", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   groups,
		"count":  len(groups),
	})
}

// GetBoroughComparison handles GET /api/boroughs/compare?target=Manhattan
func (h *AnalysisHandler) GetBoroughComparison(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	target := r.URL.Query().Get("target")

	h.logger.InfoContext(r.Context(), "comparing borough against others",
		slog.String("request_id", reqID),
		slog.String("target", target),
	)

	comparison, err := h.service.CompareAgainst(r.Context(), target)
	if err != nil {
		h.handleError(w, r, "borough comparison failed", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   comparison,
	})
}

// GetLuxuryCounts handles GET /api/luxury with optional threshold and
// group_by queries.
func (h *AnalysisHandler) GetLuxuryCounts(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	groupBy := r.URL.Query().Get("group_by")

	threshold, err := parseFloatParam(r, "threshold")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "counting luxury listings",
		slog.String("request_id", reqID),
		slog.Float64("threshold", threshold),
		slog.String("group_by", groupBy),
	)

	if groupBy == "" {
		count, err := h.service.Luxury(r.Context(), threshold)
		if err != nil {
			h.handleError(w, r, "luxury count failed", err)
			return
		}
		render.JSON(w, r, map[string]interface{}{
			"status": "success",
			"data":   map[string]int{"luxury_count": count},
		})
		return
	}

	counts, err := h.service.LuxuryBy(r.Context(), threshold, groupBy)
	if err != nil {
		h.handleError(w, r, "grouped luxury count failed", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":   "success",
		"group_by": groupBy,
		"data":     counts,
		"count":    len(counts),
	})
}

// GetSeasonalRange handles GET /api/seasonal-range
func (h *AnalysisHandler) GetSeasonalRange(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	h.logger.InfoContext(r.Context(), "computing seasonal range",
		slog.String("request_id", reqID),
	)

	spread, err := h.service.SeasonalRange(r.Context())
	if err != nil {
		h.handleError(w, r, "seasonal range failed", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   spread,
	})
}

// GetTopNeighborhoods handles GET /api/neighborhoods?borough=Brooklyn&limit=10
func (h *AnalysisHandler) GetTopNeighborhoods(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	borough := r.URL.Query().Get("borough")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.errorHandler.HandleError(w, r,
				apierrors.NewValidationError(fmt.Sprintf("invalid limit %q", raw)))
			return
		}
		limit = parsed
	}

	h.logger.InfoContext(r.Context(), "ranking neighborhoods",
		slog.String("request_id", reqID),
		slog.String("borough", borough),
		slog.Int("limit", limit),
	)

	ranking, err := h.service.TopNeighborhoods(r.Context(), borough, limit)
	if err != nil {
		h.handleError(w, r, "neighborhood ranking failed", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":  "success",
		"borough": borough,
		"data":    ranking,
		"count":   len(ranking),
	})
}

// GetCorrelations handles GET /api/correlation?columns=price,bedrooms
func (h *AnalysisHandler) GetCorrelations(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var columns []string
	if raw := r.URL.Query().Get("columns"); raw != "" {
		for _, column := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(column); trimmed != "" {
				columns = append(columns, trimmed)
			}
		}
	}

	h.logger.InfoContext(r.Context(), "computing correlations",
		slog.String("request_id", reqID),
		slog.Int("column_count", len(columns)),
	)

	matrix, err := h.service.Correlations(r.Context(), columns)
	if err != nil {
		h.handleError(w, r, "correlation matrix failed", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   matrix,
	})
}

// handleError logs the failure and delegates RFC 7807 rendering
func (h *AnalysisHandler) handleError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg,
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)
	h.errorHandler.HandleError(w, r, err)
}

// parseFloatParam parses an optional float query parameter; absent means 0
func parseFloatParam(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apierrors.NewValidationError(fmt.Sprintf("invalid %s %q", name, raw))
	}
	return value, nil
}
