// Package server exposes the catalog, progress, quiz and tutor over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/p-n-ai/codemaster/internal/assets"
	"github.com/p-n-ai/codemaster/internal/curriculum"
	"github.com/p-n-ai/codemaster/internal/progress"
	"github.com/p-n-ai/codemaster/internal/quiz"
	"github.com/p-n-ai/codemaster/internal/tutor"
)

const (
	requestTimeout   = 60 * time.Second
	maxActionBody    = 16 << 10
	maxQuizBody      = 64 << 10
	maxChatBody      = 256 << 10
	readinessTimeout = 2 * time.Second
)

// Checker is a dependency probed by /readyz.
type Checker interface {
	Name() string
	HealthCheck(ctx context.Context) error
}

// EventReader lists recent activity events.
type EventReader interface {
	Recent(ctx context.Context, limit int) ([]progress.Event, error)
}

// Deps holds everything the HTTP layer serves.
type Deps struct {
	Catalog  *curriculum.Catalog
	Progress *progress.Engine
	Quiz     *quiz.Scorer
	Tutor    *tutor.Service
	Assets   *assets.Mirror
	Events   EventReader // optional

	StaticDir   string
	CORSOrigins []string
	Checks      []Checker
}

type handler struct {
	Deps
}

// New builds the router.
func New(d Deps) http.Handler {
	h := &handler{Deps: d}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)

	// WebSocket sessions outlive the request timeout.
	if d.Tutor != nil {
		r.Method(http.MethodGet, "/api/ai/ws", d.Tutor.WebSocketHandler(d.CORSOrigins))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/", h.index)
		r.Get("/lib/{file}", h.lib)
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(d.StaticDir))))

		r.Route("/api", func(r chi.Router) {
			r.Get("/languages", h.languages)
			r.Get("/lessons/{lang}", h.lessons)
			r.Get("/exercises", h.exercises)

			r.Get("/quiz/random", h.quizRandom)
			r.Post("/quiz/check", h.quizCheck)

			r.Get("/progress", h.progressGet)
			r.Post("/progress", h.progressPost)
			r.Get("/progress/export", h.progressExport)
			r.Get("/progress/events", h.progressEvents)

			r.Post("/ai/chat", h.chat)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}
