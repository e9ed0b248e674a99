package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rplaut/tally/internal/metrics"
	"github.com/rplaut/tally/internal/session"
)

// RouterDeps holds all dependencies for the API router.
type RouterDeps struct {
	Registry *session.Registry
	Metrics  *metrics.Metrics
	UI       http.Handler
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(deps.Metrics))

	var cm CommandMetrics
	if deps.Metrics != nil {
		cm = deps.Metrics
	}
	sessions := newSessionHandler(deps.Registry, cm)

	// Health check.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(ar chi.Router) {
		ar.Get("/state", sessions.GetState)
		ar.Post("/login", sessions.Login)
		ar.Post("/logout", sessions.Logout)
		ar.Post("/users", sessions.CreateUser)
		ar.Post("/counter/increment", sessions.Increment)
		ar.Post("/counter/reset", sessions.Reset)
		ar.Post("/counter/toggle", sessions.Toggle)
		ar.Post("/notes", sessions.SubmitNote)
		ar.Post("/form", sessions.UpdateForm)

		if deps.Metrics != nil {
			ar.Get("/metrics", deps.Metrics.Handler())
		}
	})

	// The embedded single-page UI.
	if deps.UI != nil {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			deps.UI.ServeHTTP(w, r)
		})
	}

	return r
}
