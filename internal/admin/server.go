package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"readonly-sim/internal/sim"
	"readonly-sim/internal/state"
)

const maxDestinationBytes = 4 * 1024

// Server exposes the simulator's agents over HTTP.
type Server struct {
	Sim *sim.Simulator
	ws  http.Handler
	mux *http.ServeMux
}

// NewServer builds the admin routes. ws, when non-nil, is mounted at /ws.
func NewServer(sim *sim.Simulator, ws http.Handler) *Server {
	s := &Server{Sim: sim, ws: ws, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /agents", s.handleAgents)
	s.mux.HandleFunc("GET /agents/{name}", s.handleAgent)
	s.mux.HandleFunc("POST /agents/{name}/destination", s.handleSetDestination)
	if s.ws != nil {
		s.mux.Handle("/ws", s.ws)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("admin shutdown", "err", err)
		}
	}()
	return srv.ListenAndServe()
}

type agentView struct {
	Name        string        `json:"name"`
	Destination string        `json:"destination"`
	Last        *state.Record `json:"last_report,omitempty"`
}

func (s *Server) view(name string) (agentView, bool) {
	dest, ok := s.Sim.Destination(name)
	if !ok {
		return agentView{}, false
	}
	v := agentView{Name: name, Destination: dest}
	if rec, ok := s.Sim.LatestFor(name); ok {
		v.Last = &rec
	}
	return v, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"run_id":   s.Sim.RunID(),
		"sim_time": s.Sim.SimTime(),
		"agents":   len(s.Sim.Agents()),
	})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	views := []agentView{}
	for _, name := range s.Sim.Agents() {
		if v, ok := s.view(name); ok {
			views = append(views, v)
		}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	v, ok := s.view(r.PathValue("name"))
	if !ok {
		http.Error(w, "unknown agent", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleSetDestination takes the raw request body as the new destination.
func (s *Server) handleSetDestination(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDestinationBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "destination too long", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	name := r.PathValue("name")
	if !s.Sim.SetDestination(name, string(body)) {
		http.Error(w, "unknown agent", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
