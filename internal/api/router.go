package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/its-pratyushpandey/NextHire-backend/internal/api/middleware"
	"github.com/its-pratyushpandey/NextHire-backend/internal/handlers"
)

const jsonBodyLimit = 64 * 1024

// NewRouter creates and configures the HTTP router. limiter is nil
// when Redis is not configured; rate limiting is skipped then.
func NewRouter(logger zerolog.Logger, h *handlers.Handler, auth *middleware.AuthMiddleware, limiter *middleware.RateLimiter, uploadMaxBytes int64) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// CORS - the recruiting frontend runs on its own origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes (no auth required)
	r.Get("/", h.Root)
	r.Get("/health", h.Health)

	// Websocket handshake; token comes from the query string for
	// browser clients, so it runs through the same auth middleware.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Get("/ws", h.ServeWS)
	})

	// Authenticated API routes
	r.Route("/api/chat", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		if limiter != nil {
			r.Use(limiter.Middleware)
		}

		// The upload endpoint takes multipart bodies up to the
		// configured limit; everything else is small JSON.
		r.Group(func(r chi.Router) {
			r.Use(middleware.MaxBodySize(uploadMaxBytes))
			r.Post("/upload", h.UploadAttachment)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.MaxBodySize(jsonBodyLimit))

			r.Get("/rooms/{roomID}/messages", h.GetRoomMessages)
			r.Post("/rooms/{roomID}/messages", h.PostMessage)
			r.Post("/rooms/{roomID}/read", h.MarkRoomRead)
			r.Get("/conversations", h.ListConversations)
			r.Get("/applicants", h.ListApplicants)
			r.Post("/groups", h.CreateGroup)
			r.Get("/find", h.FindMessages)
		})
	})

	return r
}
