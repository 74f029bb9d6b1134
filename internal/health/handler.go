package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"message-service/internal/httputil"
	"message-service/internal/metrics"

	"github.com/go-chi/chi/v5"
)

const readyTimeout = 2 * time.Second

// Pinger is satisfied by *bun.DB and *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	db      Pinger
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewHandler(db Pinger, logger *slog.Logger, m *metrics.Metrics) *Handler {
	if m == nil {
		m = metrics.NewMock()
	}
	return &Handler{db: db, logger: logger, metrics: m}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
}

type HealthResponse struct {
	Status string `json:"status"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready reports whether the database answers a ping.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	start := time.Now()
	err := h.db.PingContext(ctx)
	h.metrics.Health.RecordDependencyCheck(r.Context(), "postgres", time.Since(start), err)

	if err != nil {
		h.logger.WarnContext(r.Context(), "readiness check failed", "dependency", "postgres", "error", err)
		httputil.RespondWithJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, HealthResponse{Status: "ready"})
}
