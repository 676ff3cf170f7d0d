// Package schedules exposes the scheduler over HTTP.
package schedules

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kilianp07/hems/auth"
	"github.com/kilianp07/hems/core/logger"
	"github.com/kilianp07/hems/core/model"
	"github.com/kilianp07/hems/core/schedule"
	"github.com/kilianp07/hems/core/status"
	"github.com/kilianp07/hems/internal/eventbus"
	"github.com/kilianp07/hems/pkg/export"
)

const maxBodyBytes = 1 << 20

// Scheduler is the part of schedule.Manager served by the handler.
type Scheduler interface {
	UpdateControlSignals(ctx context.Context, apiKey string, signals []model.ControlSignal) schedule.Result
	ClearAllSchedules() int
	Plans() []schedule.Plan
	Plan(id model.DeviceID) (schedule.Plan, bool)
	Registry() *status.Registry
}

// Handler serves /api/schedules.
type Handler struct {
	sched    Scheduler
	bus      eventbus.EventBus
	auth     *auth.Middleware
	interval time.Duration
	log      logger.Logger
}

// NewHandler returns a handler. bus may be nil, in which case the stream
// endpoint only sends the initial snapshot and pings.
func NewHandler(sched Scheduler, bus eventbus.EventBus, mw *auth.Middleware, interval time.Duration, log logger.Logger) *Handler {
	if mw == nil {
		mw = auth.NewMiddleware("")
	}
	return &Handler{sched: sched, bus: bus, auth: mw, interval: interval, log: log}
}

// Routes mounts the endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handlePlans)
	r.Get("/status", h.handleStatus)
	r.Get("/export", h.handleExport)
	r.Get("/stream", h.handleStream)
	r.Get("/devices/{id}", h.handlePlan)
	r.Group(func(r chi.Router) {
		r.Use(h.auth.Require(auth.RoleOperator))
		r.Post("/control-signals", h.handleControlSignals)
		r.Delete("/", h.handleClear)
	})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.sched.Registry().List())
}

func (h *Handler) handlePlans(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.sched.Plans())
}

func (h *Handler) handlePlan(w http.ResponseWriter, r *http.Request) {
	id := model.DeviceID(chi.URLParam(r, "id"))
	p, ok := h.sched.Plan(id)
	if !ok {
		respondError(w, http.StatusNotFound, "no schedule for "+id.String())
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows := export.Rows(h.sched.Plans(), h.interval)
	w.Header().Set("Content-Type", f.ContentType())
	if f != export.FormatJSON {
		w.Header().Set("Content-Disposition", "attachment; filename=schedules."+string(f))
	}
	if err := export.Write(w, f, rows); err != nil {
		h.log.Errorf("export %s: %v", f, err)
	}
}

func (h *Handler) handleControlSignals(w http.ResponseWriter, r *http.Request) {
	var batch model.ControlSignalBatch
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&batch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if batch.Signals == nil {
		respondError(w, http.StatusBadRequest, "control_signals is required")
		return
	}
	if batch.APIKey == "" {
		batch.APIKey = r.Header.Get("X-API-Key")
	}
	res := h.sched.UpdateControlSignals(r.Context(), batch.APIKey, batch.Signals)
	if res.Applied == nil {
		res.Applied = []model.DeviceID{}
	}
	if res.Skipped == nil {
		res.Skipped = []schedule.Skipped{}
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	n := h.sched.ClearAllSchedules()
	respondJSON(w, http.StatusOK, map[string]int{"cleared": n})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
