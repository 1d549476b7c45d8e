// Package inspect serves a read-only view of display state over HTTP.
package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"

	"go.uber.org/zap"

	"gpudisplay/internal/display"
)

// Server provides HTTP endpoints for display diagnostics
type Server struct {
	addr   string
	log    *zap.Logger
	state  atomic.Pointer[display.Snapshot]
	drills chan struct{}
	server *http.Server
}

// NewServer creates a diagnostics server listening on addr
func NewServer(addr string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		addr:   addr,
		log:    log.Named("inspect"),
		drills: make(chan struct{}, 1),
	}
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	return s
}

// Publish replaces the state served by /state. Safe to call from the
// render thread while requests are served.
func (s *Server) Publish(snap display.Snapshot) {
	s.state.Store(&snap)
}

// Drills delivers device-loss drill requests. The owner of the display
// drains it and simulates the loss on its own thread.
func (s *Server) Drills() <-chan struct{} {
	return s.drills
}

// Handler returns the request multiplexer
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/state", s.handleState)
	mux.HandleFunc("/drill/device-lost", s.handleDrill)
	return mux
}

// Start serves until Stop is called
func (s *Server) Start() error {
	s.log.Info("inspect server starting", zap.String("addr", s.addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if snap := s.state.Load(); snap != nil && snap.DeviceLost {
		status = "device_lost"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap := s.state.Load()
	if snap == nil {
		http.Error(w, "No state published", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleDrill queues a simulated device loss
func (s *Server) handleDrill(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	select {
	case s.drills <- struct{}{}:
		s.log.Info("device loss drill queued")
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
	default:
		http.Error(w, "Drill already pending", http.StatusConflict)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
