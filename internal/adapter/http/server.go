// Package adapthttp is the driving HTTP adapter: health, metrics and a small
// JSON API over the challenge.
package adapthttp

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"weightduel/internal/app"
	"weightduel/internal/metrics"
)

// Recorder receives one observation per request.
type Recorder interface {
	RecordHTTP(statusCode int, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordHTTP(int, time.Duration) {}

// Deps are the services the server routes to.
type Deps struct {
	Weight       *app.WeightService
	Registration *app.RegistrationService
	Progress     *app.ProgressService
	Menu         *app.MenuService

	// Gatherer backs /metrics; nil disables the route.
	Gatherer prometheus.Gatherer
	Recorder Recorder
	Logger   *slog.Logger
	// TokenHash is a bcrypt hash of the API bearer token. Empty disables
	// authentication.
	TokenHash string
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	weight       *app.WeightService
	registration *app.RegistrationService
	progress     *app.ProgressService
	menu         *app.MenuService

	gatherer  prometheus.Gatherer
	recorder  Recorder
	logger    *slog.Logger
	tokenHash []byte
}

// New creates a Server wired to the given application services.
func New(d Deps) *Server {
	s := &Server{
		weight:       d.Weight,
		registration: d.Registration,
		progress:     d.Progress,
		menu:         d.Menu,
		gatherer:     d.Gatherer,
		recorder:     d.Recorder,
		logger:       d.Logger,
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if d.TokenHash != "" {
		s.tokenHash = []byte(d.TokenHash)
	}
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware, s.loggingMiddleware, s.recoveryMiddleware, withNoCache)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(s.gatherer))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/roster", s.handleRoster)
		r.Get("/entries", s.handleEntries)
		r.Put("/entries/id/{id}", s.handleEntryCorrect)
		r.Get("/entries/{role}/recent", s.handleEntriesRecent)
		r.Post("/entries/{role}", s.handleEntryAdd)
		r.Get("/progress", s.handleProgress)
		r.Get("/menu", s.handleMenu)
	})

	return r
}
