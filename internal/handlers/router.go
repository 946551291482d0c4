package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routes wires every endpoint
func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger)
	router.Use(h.metrics.instrument)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	router.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	router.Handle("/metrics", h.metrics.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.HandleCreateSession)
			r.Get("/", h.HandleSessions)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", h.HandleSessionDetail)
				r.Delete("/", h.HandleDeleteSession)
				r.Post("/search", h.HandleSearch)
				r.Get("/artworks", h.HandleArtworks)
				r.Post("/retry", h.HandleRetry)
			})
		})
		r.Get("/artworks/{id}", h.HandleArtwork)
	})

	return router
}
