package wire

import (
	"io"
	"log/slog"

	"github.com/google/wire"

	"github.com/arandaschimpf/claude-review/internal/agent"
	"github.com/arandaschimpf/claude-review/internal/app"
	"github.com/arandaschimpf/claude-review/internal/config"
	"github.com/arandaschimpf/claude-review/internal/core"
	"github.com/arandaschimpf/claude-review/internal/db"
	"github.com/arandaschimpf/claude-review/internal/environment"
	"github.com/arandaschimpf/claude-review/internal/github"
	"github.com/arandaschimpf/claude-review/internal/jobs"
	"github.com/arandaschimpf/claude-review/internal/logger"
	"github.com/arandaschimpf/claude-review/internal/prompt"
	"github.com/arandaschimpf/claude-review/internal/server"
	"github.com/arandaschimpf/claude-review/internal/storage"
)

// AppSet provides every component of the review service.
var AppSet = wire.NewSet(
	app.NewApp,
	server.NewServer,
	config.LoadConfig,
	db.NewDatabase,
	environment.NewResolver,
	jobs.NewTracker,
	jobs.NewReviewService,
	jobs.NewDeployService,
	provideLogWriter,
	provideSlogLogger,
	provideKeyStore,
	providePromptLoader,
	provideLauncher,
	provideTokenProvider,
	wire.Bind(new(jobs.ProfileResolver), new(*environment.Resolver)),
	wire.Bind(new(core.PromptLoader), new(*prompt.Loader)),
	wire.Bind(new(jobs.Launcher), new(*agent.Launcher)),
	wire.Bind(new(jobs.TokenProvider), new(*github.TokenProvider)),
	wire.Bind(new(core.ReviewSubmitter), new(*jobs.ReviewService)),
	wire.Bind(new(core.Deployer), new(*jobs.DeployService)),
)

func provideLogWriter(cfg *config.Config) (io.Writer, func(), error) {
	return logger.OpenOutput(cfg.Logging)
}

func provideSlogLogger(cfg *config.Config, writer io.Writer) *slog.Logger {
	l := logger.NewLogger(cfg.Logging, writer)
	slog.SetDefault(l)
	return l
}

func provideKeyStore(conn *db.DB) core.KeyStore {
	return storage.NewKeyStore(conn.DB)
}

func providePromptLoader(logger *slog.Logger) *prompt.Loader {
	return prompt.NewLoader(logger)
}

func provideLauncher(cfg *config.Config, logger *slog.Logger) *agent.Launcher {
	return agent.NewLauncher(cfg, logger)
}

func provideTokenProvider(cfg *config.Config, logger *slog.Logger) *github.TokenProvider {
	return github.NewTokenProvider(cfg, logger)
}
