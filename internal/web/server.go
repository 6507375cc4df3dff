// Package web provides the HTTP status and command server of the jalousie-io daemon.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/jalousie-io/internal/action"
	"github.com/sweeney/jalousie-io/internal/status"
)

// Commander starts commands. action.Dispatcher satisfies it.
type Commander interface {
	Dispatch(ctx context.Context, cmd action.Command) error
}

// Config wires a Server.
type Config struct {
	Addr      string
	Tracker   *status.Tracker
	Commander Commander           // nil disables POST /cmnd
	Gatherer  prometheus.Gatherer // nil disables /metrics
	Logger    *slog.Logger
}

// Server serves the status document, metrics and remote commands.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	commander  Commander
	logger     *slog.Logger

	// runs outlive the request that started them
	ctx context.Context
}

// New creates a Server. Commands started over HTTP run under ctx.
func New(ctx context.Context, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		tracker:   cfg.Tracker,
		commander: cfg.Commander,
		logger:    logger.With("component", "web"),
		ctx:       ctx,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/index.json", s.handleJSON)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	if cfg.Commander != nil {
		r.Post("/cmnd/{command}", s.handleCommand)
	}

	s.httpServer = &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}
	return s
}

// Handler returns the router. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// CommandResponse is returned by POST /cmnd/{command}.
type CommandResponse struct {
	Command string `json:"command"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "command")
	cmd, err := action.ParseCommand(name)
	if err != nil {
		writeJSON(w, http.StatusNotFound, CommandResponse{Command: name, Error: err.Error()})
		return
	}

	s.logger.Info("http command", "command", string(cmd), "remote", r.RemoteAddr)

	err = s.commander.Dispatch(s.ctx, cmd)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, CommandResponse{Command: string(cmd)})
	case errors.Is(err, action.ErrWindAlarm):
		writeJSON(w, http.StatusConflict, CommandResponse{Command: string(cmd), Error: err.Error()})
	case errors.Is(err, action.ErrUnknownCommand):
		writeJSON(w, http.StatusNotFound, CommandResponse{Command: string(cmd), Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, CommandResponse{Command: string(cmd), Error: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
