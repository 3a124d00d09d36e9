package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/bitagora/paywatch/internal/api/handlers"
	"github.com/bitagora/paywatch/internal/api/middleware"
	"github.com/bitagora/paywatch/internal/config"
	"github.com/bitagora/paywatch/internal/monitor"
	"github.com/bitagora/paywatch/internal/price"
)

// Dependencies holds all service references needed by the API layer.
type Dependencies struct {
	Manager *monitor.Manager
	Price   *price.Service
	Config  *config.Config
}

// NewRouter creates and configures the chi router with all middleware and routes.
func NewRouter(deps *Dependencies) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogging)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: deps.Config.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler)

	slog.Info("router initialized",
		"middleware", []string{"realIP", "recoverer", "requestLogging", "cors"},
	)

	r.Get("/api/health", handlers.HealthHandler(deps.Config, deps.Manager))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/monitor", handlers.StartMonitoringHandler(deps.Manager, deps.Config))
		r.Get("/monitor/{address}", handlers.GetStatusHandler(deps.Manager))
		r.Delete("/monitor/{address}", handlers.StopMonitoringHandler(deps.Manager))
		r.Get("/monitors", handlers.ListSessionsHandler(deps.Manager))

		r.Get("/address/{address}", handlers.CheckAddressHandler(deps.Manager))

		r.Get("/price", handlers.GetPriceHandler(deps.Price))

		r.Get("/config", handlers.GetConfigHandler(deps.Manager))
		r.Put("/config", handlers.UpdateConfigHandler(deps.Manager))
	})

	return r
}
