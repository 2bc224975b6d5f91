package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/slasentry/prediction-service/internal/domain/port"
	"github.com/slasentry/prediction-service/internal/ml"
)

const serviceName = "sla-prediction-service"

// HealthHandler provides HTTP health check endpoints.
type HealthHandler struct {
	store     *ml.ModelStore
	repo      port.RequestRepository
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler(store *ml.ModelStore, repo port.RequestRepository, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		store:     store,
		repo:      repo,
		logger:    logger,
		startTime: time.Now(),
	}
}

// infoResponse is the JSON response for the service root.
type infoResponse struct {
	Service string `json:"service"`
	Status  string `json:"status"`
	Docs    string `json:"docs"`
}

// healthzResponse is the JSON response for liveness checks. The service is
// "degraded" rather than unhealthy while no model has been published yet;
// the first prediction will train one.
type healthzResponse struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	ModelLoaded bool   `json:"model_loaded"`
	Uptime      string `json:"uptime"`
}

// readyzResponse is the JSON response for readiness checks.
type readyzResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks"`
}

// RegisterRoutes registers health endpoints on the provided ServeMux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// Root handles service info requests.
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, infoResponse{
		Service: serviceName,
		Status:  "running",
		Docs:    "/api/v1",
	})
}

// Healthz handles liveness probe requests.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	loaded := h.store.IsReady()
	status := "healthy"
	if !loaded {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, healthzResponse{
		Status:      status,
		Service:     serviceName,
		ModelLoaded: loaded,
		Uptime:      time.Since(h.startTime).String(),
	})
}

// Readyz handles readiness probe requests. Not ready until the database
// answers a ping.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"database": "ok", "model": "ok"}
	status := http.StatusOK
	ready := "ready"

	if err := h.repo.Ping(r.Context()); err != nil {
		h.logger.Warn("readiness database ping failed", slog.String("error", err.Error()))
		checks["database"] = "unreachable"
		status = http.StatusServiceUnavailable
		ready = "not_ready"
	}
	if !h.store.IsReady() {
		checks["model"] = "not_loaded"
	}

	writeJSON(w, status, readyzResponse{
		Status:  ready,
		Service: serviceName,
		Checks:  checks,
	})
}
