package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ramonehamilton/commander-rater/internal/api/handlers"
	"github.com/ramonehamilton/commander-rater/internal/api/response"
	"github.com/ramonehamilton/commander-rater/internal/api/websocket"
	"github.com/ramonehamilton/commander-rater/internal/version"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.healthCheck)
	s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	s.router.Get("/ws", s.wsHub.ServeWs)

	cardHandler := handlers.NewCardHandler(s.service, websocket.NewSyncObserver(s.wsHub))
	maintenanceHandler := handlers.NewMaintenanceHandler(s.service)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/cards", func(r chi.Router) {
			r.With(middleware.Timeout(s.syncTimeout)).Post("/sync", cardHandler.Sync)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(requestTimeout))
				r.Get("/", cardHandler.GetOverview)
				r.Post("/init", cardHandler.Initialize)
				r.Get("/random", cardHandler.GetRandomCard)
				r.Get("/stats", cardHandler.GetStats)
				r.Get("/by-rating", cardHandler.GetByRating)
				r.Post("/{cardID}/rating", cardHandler.RateCard)
			})
		})

		r.Route("/maintenance", func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))
			r.Post("/clear-database", maintenanceHandler.ClearDatabase)
			r.Post("/clear-progress", maintenanceHandler.ClearProgress)
			r.Get("/export-ratings", maintenanceHandler.ExportRatings)
			r.Post("/import-ratings", maintenanceHandler.ImportRatings)
		})
	})
}

// healthCheck returns the server health status.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]any{
		"status":    "healthy",
		"version":   version.GetVersion(),
		"wsClients": s.wsHub.ClientCount(),
	})
}
