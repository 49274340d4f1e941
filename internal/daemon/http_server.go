package daemon

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/pressline/internal/config"
	perrors "git.home.luguber.info/inful/pressline/internal/errors"
	"git.home.luguber.info/inful/pressline/internal/logfields"
	"git.home.luguber.info/inful/pressline/internal/metrics"
	"git.home.luguber.info/inful/pressline/internal/pipeline"
	"git.home.luguber.info/inful/pressline/internal/version"
)

// HTTPServer serves the admin surface: health, status, manual run
// submission, archived run history, and Prometheus metrics when enabled.
type HTTPServer struct {
	cfg          *config.Config
	daemon       *Daemon
	server       *http.Server
	errorAdapter *perrors.HTTPErrorAdapter
	logger       *slog.Logger
}

// NewHTTPServer assembles the admin mux. Paths for health and metrics come
// from the monitoring configuration.
func NewHTTPServer(cfg *config.Config, daemon *Daemon) *HTTPServer {
	s := &HTTPServer{
		cfg:          cfg,
		daemon:       daemon,
		errorAdapter: perrors.NewHTTPErrorAdapter(daemon.logger),
		logger:       daemon.logger,
	}

	healthPath := "/healthz"
	metricsPath := "/metrics"
	metricsEnabled := false
	if cfg.Monitoring != nil {
		if cfg.Monitoring.Health.Path != "" {
			healthPath = cfg.Monitoring.Health.Path
		}
		if cfg.Monitoring.Metrics.Path != "" {
			metricsPath = cfg.Monitoring.Metrics.Path
		}
		metricsEnabled = cfg.Monitoring.Metrics.Enabled
	}

	mux := http.NewServeMux()
	mux.HandleFunc(healthPath, s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/run", s.handleRun)
	mux.HandleFunc("/runs", s.handleRuns)
	mux.HandleFunc("/runs/", s.handleRuns)
	if metricsEnabled && daemon.registry != nil {
		mux.Handle(metricsPath, metrics.HTTPHandler(daemon.registry))
	}

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Listen pre-binds the admin port so startup fails fast on conflicts instead
// of logging from the serve goroutine after partial initialization.
func (s *HTTPServer) Listen() (net.Listener, error) {
	addr := fmt.Sprintf(":%d", s.cfg.Daemon.HTTP.AdminPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("admin port %d: %w", s.cfg.Daemon.HTTP.AdminPort, err)
	}
	return ln, nil
}

// Serve blocks serving the admin surface on a pre-bound listener.
func (s *HTTPServer) Serve(ln net.Listener) error {
	return s.server.Serve(ln)
}

// Shutdown drains in-flight requests and stops the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type healthResponse struct {
	Status       string    `json:"status"`
	DaemonStatus string    `json:"daemon_status"`
	Version      string    `json:"version"`
	Timestamp    time.Time `json:"timestamp"`
	Uptime       float64   `json:"uptime_seconds"`
	RunInFlight  bool      `json:"run_in_flight"`
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := requireMethod(r, http.MethodGet); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	_, inFlight := s.daemon.orchestrator.Registry().Active()
	resp := healthResponse{
		Status:       "healthy",
		DaemonStatus: string(s.daemon.GetStatus()),
		Version:      version.Version,
		Timestamp:    time.Now().UTC(),
		Uptime:       time.Since(s.daemon.GetStartTime()).Seconds(),
		RunInFlight:  inFlight,
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

type statusResponse struct {
	Status          string            `json:"status"`
	Version         string            `json:"version"`
	StartedAt       time.Time         `json:"started_at"`
	Uptime          float64           `json:"uptime_seconds"`
	ConfigHash      string            `json:"config_hash"`
	Schedules       int               `json:"schedules"`
	Watching        bool              `json:"watching"`
	ActiveRun       *pipeline.RunView `json:"active_run,omitempty"`
	LastRun         *pipeline.RunView `json:"last_run,omitempty"`
	DroppedTriggers int               `json:"dropped_triggers"`
}

func (s *HTTPServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if err := requireMethod(r, http.MethodGet); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	schedules := 0
	for _, sc := range s.cfg.Schedules {
		if !sc.Disabled {
			schedules++
		}
	}

	resp := statusResponse{
		Status:          string(s.daemon.GetStatus()),
		Version:         version.Version,
		StartedAt:       s.daemon.GetStartTime(),
		Uptime:          time.Since(s.daemon.GetStartTime()).Seconds(),
		ConfigHash:      s.cfg.Snapshot(),
		Schedules:       schedules,
		Watching:        s.daemon.watcher != nil,
		DroppedTriggers: s.daemon.dispatcher.Dropped().Count(),
	}
	registry := s.daemon.orchestrator.Registry()
	if v, ok := registry.Active(); ok {
		resp.ActiveRun = &v
	}
	if v, ok := registry.Last(); ok {
		resp.LastRun = &v
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

type runSubmission struct {
	Draft     bool `json:"draft"`
	BuildOnly bool `json:"build_only"`
}

type runAccepted struct {
	RunID string `json:"run_id"`
}

func (s *HTTPServer) handleRun(w http.ResponseWriter, r *http.Request) {
	if err := requireMethod(r, http.MethodPost); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	var sub runSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil && !stderrors.Is(err, io.EOF) {
		s.errorAdapter.WriteErrorResponse(w, r, perrors.ValidationError("invalid run submission").
			WithContext("cause", err.Error()))
		return
	}

	req := pipeline.RunRequest{
		Kind:        pipeline.KindManual,
		TriggeredAt: time.Now(),
		IsDraft:     sub.Draft,
		BuildOnly:   sub.BuildOnly,
	}
	// The daemon context bounds the run; manual runs outlive the submitting
	// request.
	id, err := s.daemon.orchestrator.Start(s.daemon.runContext(), req)
	if err != nil {
		if stderrors.Is(err, pipeline.ErrRunInFlight) {
			err = perrors.TriggerRejected(string(pipeline.KindManual), "a run is already in flight")
		}
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	s.logger.Info("manual run accepted",
		logfields.RunID(id),
		slog.Bool("draft", sub.Draft),
		slog.Bool("build_only", sub.BuildOnly))
	s.writeJSON(w, r, http.StatusAccepted, runAccepted{RunID: id})
}

func (s *HTTPServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	if err := requireMethod(r, http.MethodGet); err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if s.daemon.archive == nil {
		s.errorAdapter.WriteErrorResponse(w, r, perrors.DaemonError("run archive is not configured"))
		return
	}

	if id := strings.TrimPrefix(r.URL.Path, "/runs/"); id != "" && id != r.URL.Path {
		s.handleRunByID(w, r, id)
		return
	}

	limit := 20
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			s.errorAdapter.WriteErrorResponse(w, r, perrors.ValidationError("limit must be a positive integer").
				WithContext("limit", q))
			return
		}
		limit = n
	}

	views, err := s.daemon.archive.Recent(r.Context(), limit)
	if err != nil {
		s.errorAdapter.WriteErrorResponse(w, r, perrors.WrapError(err, perrors.CategoryStorage, "failed to load archived runs"))
		return
	}
	s.writeJSON(w, r, http.StatusOK, views)
}

func (s *HTTPServer) handleRunByID(w http.ResponseWriter, r *http.Request, id string) {
	view, err := s.daemon.archive.Get(r.Context(), id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			s.writeJSON(w, r, http.StatusNotFound, perrors.HTTPErrorResponse{
				Error: "run not found",
				Code:  "not_found",
			})
			return
		}
		s.errorAdapter.WriteErrorResponse(w, r, perrors.WrapError(err, perrors.CategoryStorage, "failed to load archived run"))
		return
	}
	s.writeJSON(w, r, http.StatusOK, view)
}

func requireMethod(r *http.Request, method string) error {
	if r.Method == method {
		return nil
	}
	return perrors.ValidationError("invalid HTTP method").
		WithContext("method", r.Method).
		WithContext("allowed_method", method)
}

// writeJSON writes v as JSON; ?pretty=1 indents for humans poking at the API
// with curl.
func (s *HTTPServer) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	if p := r.URL.Query().Get("pretty"); p == "1" || p == "true" {
		b, err := json.MarshalIndent(v, "", "  ")
		if err == nil {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(status)
			if _, werr := w.Write(append(b, '\n')); werr != nil {
				s.logger.Error("failed writing pretty JSON", logfields.Error(werr))
			}
			return
		}
		s.logger.Warn("pretty JSON marshal failed, falling back to standard encode", logfields.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", logfields.Error(err))
	}
}
