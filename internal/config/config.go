// Package config loads the service configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/arandaschimpf/claude-review/internal/logger"
)

// DefaultEnvFile is read when present; its absence is not an error.
const DefaultEnvFile = ".env"

// Config holds the application's configuration values.
type Config struct {
	Server   ServerConfig
	Logging  logger.Config
	Database DBConfig
	Agent    AgentConfig
	GitHub   GitHubConfig
	Auth     AuthConfig
	Deploy   DeployConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port string
}

// DBConfig configures the API key database.
type DBConfig struct {
	Driver          string
	Path            string
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	SSLMode         string
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// AgentConfig bounds the review agent process.
type AgentConfig struct {
	// Timeout is the wall-clock limit for one agent run.
	Timeout time.Duration
	// KillGrace is how long a timed-out agent gets between SIGTERM and SIGKILL.
	KillGrace time.Duration
}

// GitHubConfig holds credentials used for webhooks and for the agent's
// GitHub access.
type GitHubConfig struct {
	WebhookSecret  string
	AppID          int64
	PrivateKeyPath string
	Token          string
	// AllowedAssociations lists the comment author associations (OWNER,
	// MEMBER, ...) whose "/review" comments start a review.
	AllowedAssociations []string
}

// AuthConfig configures the API key gate.
type AuthConfig struct {
	MasterAPIKey string
}

// DeployConfig configures the self-update endpoint.
type DeployConfig struct {
	Script string
}

// LoadConfig reads configuration from environment variables and the default
// .env file.
func LoadConfig() (*Config, error) {
	return Load(DefaultEnvFile)
}

// Load reads configuration from environment variables and envFile, sets
// sensible defaults, and validates the result. Environment variables take
// precedence over the file.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_OUTPUT", "stdout")
	v.SetDefault("DB_DRIVER", "sqlite3")
	v.SetDefault("DB_PATH", "data/apikeys.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "claude_review")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", 5*time.Minute)
	v.SetDefault("AGENT_TIMEOUT", 30*time.Minute)
	v.SetDefault("AGENT_KILL_GRACE", 10*time.Second)
	v.SetDefault("GITHUB_PRIVATE_KEY_PATH", "keys/claude-review.private-key.pem")
	v.SetDefault("GITHUB_ALLOWED_ASSOCIATIONS", "OWNER,MEMBER,COLLABORATOR")
	v.SetDefault("DEPLOY_SCRIPT", "/usr/local/bin/update.sh")

	v.AutomaticEnv()
	// PORT is what most process supervisors set.
	if err := v.BindEnv("SERVER_PORT", "SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("failed to bind SERVER_PORT: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("SERVER_PORT"),
		},
		Logging: logger.Config{
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
			Output: strings.ToLower(v.GetString("LOG_OUTPUT")),
		},
		Database: DBConfig{
			Driver:          strings.ToLower(v.GetString("DB_DRIVER")),
			Path:            v.GetString("DB_PATH"),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			Username:        v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Database:        v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: v.GetDuration("DB_CONN_MAX_IDLE_TIME"),
		},
		Agent: AgentConfig{
			Timeout:   v.GetDuration("AGENT_TIMEOUT"),
			KillGrace: v.GetDuration("AGENT_KILL_GRACE"),
		},
		GitHub: GitHubConfig{
			WebhookSecret:  v.GetString("GITHUB_WEBHOOK_SECRET"),
			AppID:          v.GetInt64("GITHUB_APP_ID"),
			PrivateKeyPath: v.GetString("GITHUB_PRIVATE_KEY_PATH"),
			Token:          v.GetString("GITHUB_TOKEN"),

			AllowedAssociations: splitList(v.GetString("GITHUB_ALLOWED_ASSOCIATIONS")),
		},
		Auth: AuthConfig{
			MasterAPIKey: v.GetString("MASTER_API_KEY"),
		},
		Deploy: DeployConfig{
			Script: v.GetString("DEPLOY_SCRIPT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitList parses a comma separated env value into upper-cased entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.ToUpper(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT must be set")
	}

	switch c.Database.Driver {
	case "sqlite3":
		if c.Database.Path == "" {
			return fmt.Errorf("DB_PATH must be set for the sqlite3 driver")
		}
	case "postgres":
		if c.Database.Host == "" || c.Database.Database == "" {
			return fmt.Errorf("DB_HOST and DB_NAME must be set for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want sqlite3 or postgres)", c.Database.Driver)
	}

	if c.Agent.Timeout <= 0 {
		return fmt.Errorf("AGENT_TIMEOUT must be positive, got %s", c.Agent.Timeout)
	}
	if c.Agent.KillGrace < 0 {
		return fmt.Errorf("AGENT_KILL_GRACE must not be negative, got %s", c.Agent.KillGrace)
	}

	if c.GitHub.AppID != 0 && c.GitHub.PrivateKeyPath == "" {
		return fmt.Errorf("GITHUB_PRIVATE_KEY_PATH must be set when GITHUB_APP_ID is set")
	}

	if c.GitHub.WebhookSecret != "" && len(c.GitHub.AllowedAssociations) == 0 {
		return fmt.Errorf("GITHUB_ALLOWED_ASSOCIATIONS must list at least one association when the webhook is enabled")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		slog.Warn("unrecognized log level, defaulting to info", "provided", c.Logging.Level)
		c.Logging.Level = "info"
	}
	return nil
}
