package routes

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/upb/clearpath-assistant/app"
	"github.com/upb/clearpath-assistant/handlers"
	"github.com/upb/clearpath-assistant/middleware"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	var sqlDB *sql.DB
	if deps.DB != nil {
		sqlDB = deps.DB.DB
	}
	healthHandler := handlers.NewHealthHandler(sqlDB, deps.Corpus, deps.Logger)
	chatHandler := handlers.NewChatHandler(deps.Answer, deps.Logger)
	sessionHandler := handlers.NewSessionHandler(deps.Sessions, deps.Logger)

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.InjectRequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	if deps.Config.Observability.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Clearpath chatbot running"))
	})

	// Pipeline routes are bounded by the request timeout; the context
	// cancellation reaches the embedding and completion calls.
	r.Group(func(r chi.Router) {
		if timeout := deps.Config.Server.RequestTimeout; timeout > 0 {
			r.Use(chimw.Timeout(timeout))
		}
		if deps.Config.Server.RateLimitRPS > 0 {
			limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
				RequestsPerSecond: deps.Config.Server.RateLimitRPS,
				Burst:             deps.Config.Server.RateLimitBurst,
			}, deps.Logger)
			r.Use(limiter.Handler)
		}

		// Unwrapped routes used by the web frontend
		r.Get("/chat", chatHandler.HandleLegacyChat)
		r.Get("/search", chatHandler.HandleLegacySearch)

		r.Route("/api/v1", func(r chi.Router) {
			r.Post("/chat", chatHandler.HandleChat)
			r.Get("/search", chatHandler.HandleSearch)

			r.Get("/sessions/{id}", sessionHandler.HandleGet)
			r.Delete("/sessions/{id}", sessionHandler.HandleDelete)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
