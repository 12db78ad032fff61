// Package http serves the operator API alongside health, readiness and
// metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/irrigation-scheduler/internal/adapter/store"
	"github.com/couchcryptid/irrigation-scheduler/internal/cycle"
	"github.com/couchcryptid/irrigation-scheduler/internal/domain"
)

// CycleRunner runs irrigation cycles on demand.
type CycleRunner interface {
	Run(ctx context.Context) (cycle.Result, error)
	LastResult() *cycle.Result
	State() cycle.State
}

// ScheduleStore reads and updates persisted schedule entries.
type ScheduleStore interface {
	ActiveSchedule(ctx context.Context, at time.Time) ([]store.ScheduleRecord, error)
	ListSchedules(ctx context.Context, from, to time.Time) ([]store.ScheduleRecord, error)
	UpdateStatus(ctx context.Context, id int64, status domain.Status) (store.ScheduleRecord, error)
}

// Server exposes the cycle and schedule API plus /healthz, /readyz and
// /metrics.
type Server struct {
	httpServer *http.Server
	runner     CycleRunner
	schedules  ScheduleStore
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewServer creates the HTTP server and registers its routes.
func NewServer(addr string, runner CycleRunner, schedules ScheduleStore, ready sharedobs.ReadinessChecker, clock clockwork.Clock, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// A cycle may wait out two upstream timeouts.
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		runner:    runner,
		schedules: schedules,
		clock:     clock,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /cycles", s.handleRunCycle)
	mux.HandleFunc("GET /cycles/last", s.handleLastCycle)
	mux.HandleFunc("GET /schedules", s.handleListSchedules)
	mux.HandleFunc("GET /schedules/active", s.handleActiveSchedule)
	mux.HandleFunc("PATCH /schedules/{id}/status", s.handleUpdateStatus)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type cycleResponse struct {
	Error  string        `json:"error,omitempty"`
	State  cycle.State   `json:"state"`
	Result *cycle.Result `json:"result,omitempty"`
}

func (s *Server) handleRunCycle(w http.ResponseWriter, r *http.Request) {
	// The cycle outlives a disconnected client so its results are persisted.
	res, err := s.runner.Run(context.WithoutCancel(r.Context()))
	if err != nil {
		status := statusFor(err)
		if errors.Is(err, domain.ErrInvalidInput) {
			status = http.StatusBadGateway
		}
		body := cycleResponse{Error: err.Error(), State: s.runner.State()}
		if res.CycleID != "" {
			body.Result = &res
		}
		s.logger.Warn("on-demand cycle failed", "error", err, "status", status)
		writeJSON(w, status, body)
		return
	}
	writeJSON(w, http.StatusOK, cycleResponse{State: s.runner.State(), Result: &res})
}

func (s *Server) handleLastCycle(w http.ResponseWriter, _ *http.Request) {
	last := s.runner.LastResult()
	if last == nil {
		writeError(w, http.StatusNotFound, "no cycle has run yet")
		return
	}
	writeJSON(w, http.StatusOK, cycleResponse{State: s.runner.State(), Result: last})
}

func (s *Server) handleActiveSchedule(w http.ResponseWriter, r *http.Request) {
	at := s.clock.Now()
	if v := r.URL.Query().Get("at"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid at %q: expected RFC 3339", v))
			return
		}
		at = parsed
	}

	entries, err := s.schedules.ActiveSchedule(r.Context(), at)
	if err != nil {
		s.fail(w, "active schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"at": at, "entries": entries})
}

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	var bounds [2]time.Time
	for i, key := range []string{"from", "to"} {
		v := r.URL.Query().Get(key)
		if v == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s %q: expected RFC 3339", key, v))
			return
		}
		bounds[i] = parsed
	}

	entries, err := s.schedules.ListSchedules(r.Context(), bounds[0], bounds[1])
	if err != nil {
		s.fail(w, "list schedules", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid schedule id %q", r.PathValue("id")))
		return
	}

	var req statusRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.schedules.UpdateStatus(r.Context(), id, status)
	if err != nil {
		s.fail(w, "update status", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "error", err)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrCycleInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
