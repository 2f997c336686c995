package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"discoverydash/internal/metrics"
	"discoverydash/internal/models"
	"discoverydash/internal/projection"
	"discoverydash/internal/render"
)

// ViewSource provides the dashboard state served over HTTP.
type ViewSource interface {
	Snapshot() models.View
	Subscribe() (<-chan struct{}, func())
	Uptime() []metrics.ServiceUptime
}

// Options configures the HTTP surface.
type Options struct {
	Title        string
	PushInterval time.Duration
}

// Server wraps HTTP serving of the rendered dashboard, its JSON view and the live push.
type Server struct {
	httpServer   *http.Server
	source       ViewSource
	title        string
	pushInterval time.Duration
}

// New creates a configured HTTP server for the dashboard.
func New(addr string, source ViewSource, opts Options) *Server {
	if opts.PushInterval <= 0 {
		opts.PushInterval = 100 * time.Millisecond
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		source:       source,
		title:        opts.Title,
		pushInterval: opts.PushInterval,
	}
	s.registerRoutes(mux)
	return s
}

// Handler exposes the route table.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run blocks and serves HTTP traffic.
func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", s.handlePage)
	mux.HandleFunc("/fragment", s.handleFragment)
	mux.HandleFunc("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/view", s.handleView)
	mux.HandleFunc("/api/uptime", s.handleUptime)
	mux.HandleFunc("/ws", s.handleLive)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	page, err := render.Page(s.title, s.source.Snapshot())
	if err != nil {
		slog.Error("render page", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	writeHTML(w, page)
}

func (s *Server) handleFragment(w http.ResponseWriter, _ *http.Request) {
	fragment, err := render.Fragment(s.title, s.source.Snapshot())
	if err != nil {
		slog.Error("render fragment", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	writeHTML(w, fragment)
}

type serviceView struct {
	models.ServiceStatus
	Timestamp string `json:"timestamp"`
}

type viewResponse struct {
	Title       string               `json:"title"`
	GeneratedAt time.Time            `json:"generated_at"`
	ClockNowMS  int64                `json:"clock_now_ms"`
	Services    []serviceView        `json:"services"`
	Health      []models.HealthEntry `json:"health"`
}

func (s *Server) handleView(w http.ResponseWriter, _ *http.Request) {
	view := s.source.Snapshot()
	resp := viewResponse{
		Title:       s.title,
		GeneratedAt: time.Now().UTC(),
		ClockNowMS:  view.ClockNowMS,
		Services:    make([]serviceView, 0, len(view.Services)),
		Health:      view.Health,
	}
	for _, svc := range view.Services {
		resp.Services = append(resp.Services, serviceView{
			ServiceStatus: svc,
			Timestamp:     projection.Project(svc.ObservedAtMS, svc.FetchedAtMS, view.ClockNowMS),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUptime(w http.ResponseWriter, _ *http.Request) {
	services := s.source.Uptime()
	if services == nil {
		services = []metrics.ServiceUptime{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"generated_at": time.Now().UTC(),
		"services":     services,
	})
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
