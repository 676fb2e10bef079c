// Package app initializes and orchestrates the main components of the review
// service. It wires together the configuration, server, and background jobs.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arandaschimpf/claude-review/internal/config"
	"github.com/arandaschimpf/claude-review/internal/core"
	"github.com/arandaschimpf/claude-review/internal/github"
	"github.com/arandaschimpf/claude-review/internal/jobs"
	"github.com/arandaschimpf/claude-review/internal/server"
)

const (
	// serverShutdownTimeout bounds draining in-flight HTTP requests.
	serverShutdownTimeout = 30 * time.Second
	// jobShutdownTimeout is how long running agents may keep going after a
	// shutdown signal before they are terminated.
	jobShutdownTimeout = 30 * time.Second
)

// App holds the main application components.
type App struct {
	Keys    core.KeyStore
	Reviews *jobs.ReviewService

	cfg     *config.Config
	server  *server.Server
	tracker *jobs.Tracker
	tokens  *github.TokenProvider
	logger  *slog.Logger
}

// NewApp sets up the application and makes sure the master key exists.
func NewApp(
	ctx context.Context,
	cfg *config.Config,
	srv *server.Server,
	tracker *jobs.Tracker,
	reviews *jobs.ReviewService,
	keys core.KeyStore,
	tokens *github.TokenProvider,
	logger *slog.Logger,
) (*App, error) {
	a := &App{
		Keys:    keys,
		Reviews: reviews,
		cfg:     cfg,
		server:  srv,
		tracker: tracker,
		tokens:  tokens,
		logger:  logger,
	}
	if err := a.ensureMasterKey(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) ensureMasterKey(ctx context.Context) error {
	if a.cfg.Auth.MasterAPIKey == "" {
		a.logger.Warn("MASTER_API_KEY is not set, only existing keys can authenticate")
		return nil
	}
	created, err := a.Keys.EnsureMasterKey(ctx, a.cfg.Auth.MasterAPIKey)
	if err != nil {
		return fmt.Errorf("failed to initialize master key: %w", err)
	}
	if created {
		a.logger.Info("master API key created")
	}
	return nil
}

// Start runs the HTTP server. It blocks until the server stops.
func (a *App) Start() error {
	a.logger.Info("starting claude-review",
		"server_port", a.cfg.Server.Port,
		"agent_timeout", a.cfg.Agent.Timeout,
		"github_credentials", a.tokens.Mode(),
		"webhook_enabled", a.cfg.GitHub.WebhookSecret != "",
		"deploy_enabled", a.cfg.Deploy.Script != "",
	)

	if err := a.server.Start(); err != nil {
		a.logger.Error("failed to start HTTP server", "error", err)
		return err
	}
	return nil
}

// Stop shuts down the application cleanly.
func (a *App) Stop() error {
	a.logger.Info("shutting down claude-review services")

	// Stop the HTTP server first to prevent new incoming requests.
	serverCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()
	serverErr := a.server.Stop(serverCtx)
	if serverErr != nil {
		a.logger.Error("error during HTTP server shutdown", "error", serverErr)
		// Continue to stop other components even if the server failed.
	}

	jobsCtx, cancelJobs := context.WithTimeout(context.Background(), jobShutdownTimeout)
	defer cancelJobs()
	if err := a.tracker.Stop(jobsCtx); err != nil {
		a.logger.Warn("running agents were terminated during shutdown", "error", err)
	}

	if serverErr != nil {
		a.logger.Error("claude-review stopped with errors", "error", serverErr)
		return serverErr
	}

	a.logger.Info("claude-review stopped successfully")
	return nil
}
