// Package alertapi exposes the dashboard HTTP API over the alert store and
// the monitoring service.
package alertapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/pulse/internal/triage"
)

const (
	defaultListLimit = 50

	// maxListLimit caps caller-supplied limits; larger values clamp rather
	// than error so dashboards never break on a generous limit.
	maxListLimit = 500
)

// MonitorService defines the monitoring operations alertapi needs.
type MonitorService interface {
	RunCycle(ctx context.Context, trigger string) *triage.CycleResult
	Preview(ctx context.Context, text string) *triage.Preview
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger log.Logger
	store  triage.Store
	svc    MonitorService
}

// New creates a new API handler.
func New(logger log.Logger, store triage.Store, svc MonitorService) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if store == nil {
		panic(xerrors.New("alert store is required"))
	}
	if svc == nil {
		panic(xerrors.New("monitor service is required"))
	}
	return &API{
		logger: logger,
		store:  store,
		svc:    svc,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/alerts", a.handleListAlerts)
		r.Get("/alerts/stats", a.handleStats)
		r.Put("/alerts/{id}/status", a.handleUpdateStatus)
		r.Post("/monitor/run", a.handleRunCycle)
		r.Post("/test/sentiment", a.handlePreview)
	})
}

func (a *API) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, `{"error":"limit must be a positive integer"}`, http.StatusBadRequest)
			return
		}
		limit = min(n, maxListLimit)
	}

	alerts, err := a.store.ListRecent(r.Context(), limit)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to list alerts")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if alerts == nil {
		alerts = []triage.Alert{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.store.Stats(r.Context())
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to compute stats")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("pulse.alert.id", id))

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	err := a.store.UpdateStatus(r.Context(), id, triage.Status(body.Status))
	switch {
	case errors.Is(err, triage.ErrInvalidStatus):
		http.Error(w, `{"error":"invalid status"}`, http.StatusBadRequest)
		return
	case errors.Is(err, triage.ErrNotFound):
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	case err != nil:
		a.logger.Error(r.Context(), err, "failed to update status", "id", id)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	span.SetAttributes(attribute.String("pulse.alert.status", body.Status))

	writeJSON(w, http.StatusOK, map[string]any{
		"id":     id,
		"status": body.Status,
	})
}

func (a *API) handleRunCycle(w http.ResponseWriter, r *http.Request) {
	result := a.svc.RunCycle(r.Context(), "manual")
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handlePreview(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	if body.Text == "" {
		http.Error(w, `{"error":"text is required"}`, http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, a.svc.Preview(r.Context(), body.Text))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
