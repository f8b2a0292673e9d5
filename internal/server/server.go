// Package server exposes posetouch over HTTP: a WebSocket endpoint that runs one game
// session per connection, plus a small JSON API for the leaderboard and defaults.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/udisondev/posetouch/internal/config"
	"github.com/udisondev/posetouch/internal/model"
	"github.com/udisondev/posetouch/internal/protocol"
	"github.com/udisondev/posetouch/internal/score"
)

const shutdownTimeout = 5 * time.Second

// Options configures New.
type Options struct {
	Config   config.Server
	Canvas   model.Bounds
	Grid     config.Grid
	Defaults *config.Live   // options new sessions start with
	Results  *score.Manager // nil disables the leaderboard
	Now      func() time.Time
}

// Server serves the HTTP API and WebSocket sessions.
type Server struct {
	cfg      config.Server
	canvas   model.Bounds
	grid     config.Grid
	defaults *config.Live
	results  *score.Manager
	now      func() time.Time

	upgrader websocket.Upgrader
	clients  *Registry
	sessions sync.WaitGroup
	started  time.Time
}

// New creates a server. Call Run or Serve to start it.
func New(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Defaults == nil {
		opts.Defaults = config.NewLive(model.DefaultConfiguration())
	}
	return &Server{
		cfg:      opts.Config,
		canvas:   opts.Canvas,
		grid:     opts.Grid,
		defaults: opts.Defaults,
		results:  opts.Results,
		now:      opts.Now,
		upgrader: websocket.Upgrader{
			// Browsers load the game page from anywhere during development.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: NewRegistry(),
		started: opts.Now(),
	}
}

// Clients returns the registry of connected sessions.
func (s *Server) Clients() *Registry {
	return s.clients
}

// Run listens on cfg.Addr() and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := s.cfg.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then waits for open sessions to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("http shutdown", "error", err)
		}
	}()

	slog.Info("posetouch server started", "address", ln.Addr())
	err := srv.Serve(ln)
	s.sessions.Wait()
	if errors.Is(err, http.ErrServerClosed) {
		slog.Info("posetouch server stopped")
		return nil
	}
	return fmt.Errorf("serving http: %w", err)
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWS)

	r.Route("/api/v1", func(r chi.Router) {
		if s.cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		}
		r.Get("/config", s.handleConfig)
		r.Get("/scores", s.handleTopScores)
		r.Delete("/scores", s.handlePurgeScores)
		r.Get("/players/{player}/best", s.handleBestScore)
		r.Get("/sessions/{id}/frame.png", s.handleFramePreview)
	})

	return r
}

type healthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
	Uptime   string `json:"uptime"`
	Store    bool   `json:"store"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Sessions: s.clients.Count(),
		Uptime:   s.now().Sub(s.started).Truncate(time.Second).String(),
		Store:    s.results != nil,
	})
}

type configResponse struct {
	Config      protocol.ConfigView `json:"config"`
	Width       float64             `json:"width"`
	Height      float64             `json:"height"`
	GridEnabled bool                `json:"gridEnabled"`
	Rows        int                 `json:"rows"`
	Cols        int                 `json:"cols"`
	Version     int                 `json:"version"`
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	resp := configResponse{
		Config:      protocol.NewConfigView(s.defaults.Snapshot()),
		Width:       s.canvas.Width,
		Height:      s.canvas.Height,
		GridEnabled: s.grid.Enabled,
		Version:     protocol.Version,
	}
	if s.grid.Enabled {
		resp.Rows, resp.Cols = s.grid.Rows, s.grid.Cols
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTopScores(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		writeError(w, http.StatusServiceUnavailable, "result store disabled")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}
	top, err := s.results.Top(r.Context(), limit)
	if err != nil {
		slog.Error("loading top scores", "error", err)
		writeError(w, http.StatusInternalServerError, "loading scores failed")
		return
	}
	if top == nil {
		top = []score.Result{}
	}
	writeJSON(w, http.StatusOK, top)
}

func (s *Server) handleBestScore(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		writeError(w, http.StatusServiceUnavailable, "result store disabled")
		return
	}
	player := chi.URLParam(r, "player")
	best, err := s.results.Best(r.Context(), player)
	if err != nil {
		slog.Error("loading best score", "player", player, "error", err)
		writeError(w, http.StatusInternalServerError, "loading best score failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"player": player, "best": best})
}

func (s *Server) handlePurgeScores(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		writeError(w, http.StatusServiceUnavailable, "result store disabled")
		return
	}
	n, err := s.results.Purge(r.Context())
	if err != nil {
		slog.Error("purging scores", "error", err)
		writeError(w, http.StatusInternalServerError, "purge failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
