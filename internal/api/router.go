package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/baharkarakas/point-service/internal/api/handlers"
	"github.com/baharkarakas/point-service/internal/auth"
	"github.com/baharkarakas/point-service/internal/config"
	"github.com/baharkarakas/point-service/internal/metrics"
	"github.com/baharkarakas/point-service/internal/middleware"
)

type RouterDeps struct {
	Cfg    config.Config
	Log    zerolog.Logger
	Points handlers.PointService
	Tokens *auth.TokenManager
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RequestLogging(d.Log),
		middleware.Recover(d.Log),
		middleware.HTTPMetrics,
		middleware.RateLimit(d.Cfg.RateRPS, d.Cfg.RateBurst),
	)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	am := middleware.NewAuthMiddleware(d.Tokens, d.Cfg.Env, d.Cfg.AuthRequired)
	ah := handlers.NewAuthHandler(d.Tokens, d.Cfg.Env)
	ph := handlers.NewPointHandler(d.Points, d.Log)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/token", ah.Token)
		r.Post("/auth/refresh", ah.Refresh)

		r.Route("/points/{userID}", func(r chi.Router) {
			r.Use(am.Auth, am.SameUser("userID"))
			r.Get("/", ph.Balance)
			r.Get("/histories", ph.Histories)
			r.Patch("/charge", ph.Charge)
			r.Patch("/use", ph.Use)
		})
	})

	return r
}
