// Package rest exposes the prediction service over HTTP.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/slasentry/prediction-service/internal/application/dispatch"
	"github.com/slasentry/prediction-service/internal/application/dto"
	"github.com/slasentry/prediction-service/internal/application/usecase"
	"github.com/slasentry/prediction-service/internal/domain/model"
	"github.com/slasentry/prediction-service/internal/domain/port"
)

// Usecases bundles the application entry points the HTTP layer dispatches to.
type Usecases struct {
	PredictBreach   *usecase.PredictBreach
	ListCritical    *usecase.ListCritical
	ListPredictions *usecase.ListPredictions
	SummarizeRisk   *usecase.SummarizeRisk
	GetTrends       *usecase.GetTrends
	GetRoleStats    *usecase.GetRoleStats
	GetPolicyStats  *usecase.GetPolicyStats
	GetFilters      *usecase.GetFilters
	RetrainModel    *usecase.RetrainModel
	GetModelInfo    *usecase.GetModelInfo
}

// PredictionHandler serves the prediction API. Scoring and retraining calls
// run through the bounded dispatcher so a flood of requests degrades to
// queueing instead of unbounded concurrency.
type PredictionHandler struct {
	uc         Usecases
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
}

// NewPredictionHandler creates a new PredictionHandler.
func NewPredictionHandler(uc Usecases, dispatcher *dispatch.Dispatcher, logger *slog.Logger) *PredictionHandler {
	return &PredictionHandler{uc: uc, dispatcher: dispatcher, logger: logger}
}

// RegisterRoutes registers the API endpoints on the provided ServeMux.
func (h *PredictionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/predictions", h.Predict)
	mux.HandleFunc("GET /api/v1/predictions", h.ListPredictions)
	mux.HandleFunc("GET /api/v1/predictions/critical", h.ListCritical)
	mux.HandleFunc("GET /api/v1/predictions/summary", h.Summary)
	mux.HandleFunc("GET /api/v1/trends", h.Trends)
	mux.HandleFunc("GET /api/v1/stats/roles", h.RoleStats)
	mux.HandleFunc("GET /api/v1/stats/policies", h.PolicyStats)
	mux.HandleFunc("GET /api/v1/filters", h.Filters)
	mux.HandleFunc("POST /api/v1/model/retrain", h.Retrain)
	mux.HandleFunc("GET /api/v1/model/info", h.ModelInfo)
}

// Predict scores a single feature vector.
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req dto.PredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var resp dto.PredictionResponse
	err := h.dispatcher.Do(r.Context(), func() error {
		var err error
		resp, err = h.uc.PredictBreach.Execute(r.Context(), req)
		return err
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListCritical scores the most time-consumed in-flight requests.
func (h *PredictionHandler) ListCritical(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 0)

	var resp []dto.PredictionResponse
	err := h.dispatcher.Do(r.Context(), func() error {
		var err error
		resp, err = h.uc.ListCritical.Execute(r.Context(), limit)
		return err
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListPredictions returns one scored page of requests.
func (h *PredictionHandler) ListPredictions(w http.ResponseWriter, r *http.Request) {
	filter := port.PageFilter{
		Page:            intQuery(r, "page", 1),
		PageSize:        intQuery(r, "page_size", 0),
		IncludeResolved: boolQuery(r, "include_resolved", true),
		PolicyCode:      r.URL.Query().Get("sla_code"),
	}

	var resp dto.PagedPredictionsResponse
	err := h.dispatcher.Do(r.Context(), func() error {
		var err error
		resp, err = h.uc.ListPredictions.Execute(r.Context(), filter)
		return err
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Summary aggregates the current risk posture.
func (h *PredictionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	var resp dto.RiskSummaryResponse
	err := h.dispatcher.Do(r.Context(), func() error {
		var err error
		resp, err = h.uc.SummarizeRisk.Execute(r.Context())
		return err
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Trends returns the monthly breach-rate history.
func (h *PredictionHandler) Trends(w http.ResponseWriter, r *http.Request) {
	items, err := h.uc.GetTrends.Execute(r.Context(), intQuery(r, "months", 0))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// RoleStats returns per-role breach aggregates.
func (h *PredictionHandler) RoleStats(w http.ResponseWriter, r *http.Request) {
	items, err := h.uc.GetRoleStats.Execute(r.Context(), intQuery(r, "months", 0))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// PolicyStats returns per-policy breach aggregates.
func (h *PredictionHandler) PolicyStats(w http.ResponseWriter, r *http.Request) {
	items, err := h.uc.GetPolicyStats.Execute(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Filters returns the values available for list filtering.
func (h *PredictionHandler) Filters(w http.ResponseWriter, r *http.Request) {
	resp, err := h.uc.GetFilters.Execute(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Retrain forces a fresh training run.
func (h *PredictionHandler) Retrain(w http.ResponseWriter, r *http.Request) {
	var resp dto.RetrainResponse
	err := h.dispatcher.Do(r.Context(), func() error {
		var err error
		resp, err = h.uc.RetrainModel.Execute(r.Context())
		return err
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ModelInfo reports the metadata of the serving model.
func (h *PredictionHandler) ModelInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.uc.GetModelInfo.Execute(r.Context()))
}

// respondError maps application errors onto HTTP status codes.
func (h *PredictionHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var invalid *model.ErrInvalidFeature
	switch {
	case errors.As(err, &invalid):
		writeError(w, http.StatusUnprocessableEntity, invalid.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request timed out waiting for a worker")
	default:
		h.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func intQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func boolQuery(r *http.Request, name string, def bool) bool {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}
