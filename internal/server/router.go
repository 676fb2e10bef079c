package server

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/arandaschimpf/claude-review/internal/config"
	"github.com/arandaschimpf/claude-review/internal/core"
	"github.com/arandaschimpf/claude-review/internal/server/handler"
)

// NewRouter creates and configures a new HTTP router with middleware and API routes.
func NewRouter(cfg *config.Config, submitter core.ReviewSubmitter, deployer core.Deployer, keys core.KeyStore, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Configure middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", handler.Health)

	auth := handler.NewAuth(keys, logger)
	reviewHandler := handler.NewReviewHandler(submitter, logger)
	keysHandler := handler.NewKeysHandler(keys, logger)
	deployHandler := handler.NewDeployHandler(deployer, logger)
	webhookHandler := handler.NewWebhookHandler(cfg, submitter, logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/webhook/github", webhookHandler.Handle)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Post("/review", reviewHandler.Handle)

			r.Group(func(r chi.Router) {
				r.Use(handler.RequireAdmin)
				r.Post("/deploy", deployHandler.Deploy)
				r.Get("/deploy/status", deployHandler.Status)

				r.Post("/keys", keysHandler.Create)
				r.Get("/keys", keysHandler.List)
				r.Delete("/keys/{key}", keysHandler.Delete)
			})
		})
	})

	return r
}
