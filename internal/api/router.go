package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterOptions struct {
	AllowedOrigins []string
	// RateLimitPerMinute of 0 disables limiting.
	RateLimitPerMinute int
	RateLimitBurst     int
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Only enable it behind a reverse proxy that overwrites those headers.
	TrustProxy bool
}

func NewRouter(apiHandler *APIHandler, opts RouterOptions, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(RequestLogger(logger))
	r.Use(Recoverer(logger))
	r.Use(middleware.StripSlashes)
	r.Use(CORS(opts.AllowedOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", apiHandler.HealthHandler)

		r.Group(func(r chi.Router) {
			if opts.RateLimitPerMinute > 0 {
				r.Use(NewIPRateLimiter(opts.RateLimitPerMinute, opts.RateLimitBurst).Middleware)
			}
			r.Post("/linkedin/profile", apiHandler.ProfileHandler)
		})
	})

	return r
}
