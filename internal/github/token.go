// Package github provides GitHub credentials for the review agent.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"

	"github.com/arandaschimpf/claude-review/internal/config"
)

// refreshTimeout bounds a token refresh that happens outside any request.
const refreshTimeout = 30 * time.Second

// TokenProvider hands out GitHub tokens for the agent. With a GitHub App it
// mints installation tokens scoped to the reviewed repository and reuses them
// until they expire. Otherwise it falls back to a static token, or to none.
type TokenProvider struct {
	appID          int64
	privateKeyPath string
	static         oauth2.TokenSource
	transport      http.RoundTripper
	baseURL        *url.URL
	logger         *slog.Logger

	mu      sync.Mutex
	sources map[string]oauth2.TokenSource
}

// TokenProviderOption configures a TokenProvider.
type TokenProviderOption func(*TokenProvider)

// WithBaseURL points the provider at another GitHub API endpoint.
func WithBaseURL(u *url.URL) TokenProviderOption {
	return func(p *TokenProvider) {
		p.baseURL = u
	}
}

// WithTransport sets the transport used underneath the App authentication.
func WithTransport(rt http.RoundTripper) TokenProviderOption {
	return func(p *TokenProvider) {
		p.transport = rt
	}
}

// NewTokenProvider creates a TokenProvider from cfg.GitHub.
func NewTokenProvider(cfg *config.Config, logger *slog.Logger, opts ...TokenProviderOption) *TokenProvider {
	p := &TokenProvider{
		appID:          cfg.GitHub.AppID,
		privateKeyPath: cfg.GitHub.PrivateKeyPath,
		transport:      http.DefaultTransport,
		logger:         logger,
		sources:        make(map[string]oauth2.TokenSource),
	}
	if cfg.GitHub.Token != "" {
		p.static = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GitHub.Token})
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Mode names the credential source for logs.
func (p *TokenProvider) Mode() string {
	switch {
	case p.appID != 0:
		return "app"
	case p.static != nil:
		return "token"
	default:
		return "none"
	}
}

// Token returns a token for owner/repo, or "" when no credential is
// configured. installationID may be zero, in which case the installation is
// looked up from the repository.
func (p *TokenProvider) Token(ctx context.Context, owner, repo string, installationID int64) (string, error) {
	switch p.Mode() {
	case "none":
		return "", nil
	case "token":
		t, err := p.static.Token()
		if err != nil {
			return "", err
		}
		return t.AccessToken, nil
	}

	key := strings.ToLower(owner + "/" + repo)

	p.mu.Lock()
	src, ok := p.sources[key]
	p.mu.Unlock()
	if ok {
		t, err := src.Token()
		if err != nil {
			return "", fmt.Errorf("failed to refresh installation token for %s: %w", key, err)
		}
		return t.AccessToken, nil
	}

	client, err := p.appClient()
	if err != nil {
		return "", err
	}
	minter := &installationTokenSource{client: client, owner: owner, repo: repo, installationID: installationID}
	t, err := minter.mint(ctx)
	if err != nil {
		return "", err
	}
	p.logger.Info("minted installation token for agent",
		"repo", owner+"/"+repo,
		"installation_id", minter.installationID,
		"expires_at", t.Expiry,
	)

	p.mu.Lock()
	p.sources[key] = oauth2.ReuseTokenSource(t, minter)
	p.mu.Unlock()
	return t.AccessToken, nil
}

func (p *TokenProvider) appClient() (*github.Client, error) {
	privateKey, err := os.ReadFile(p.privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key from %s: %w", p.privateKeyPath, err)
	}

	appTransport, err := ghinstallation.NewAppsTransport(p.transport, p.appID, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub App transport: %w", err)
	}

	client := github.NewClient(&http.Client{Transport: appTransport})
	if p.baseURL != nil {
		client.BaseURL = p.baseURL
	}
	return client, nil
}

// installationTokenSource mints installation tokens that can only access one
// repository.
type installationTokenSource struct {
	client         *github.Client
	owner          string
	repo           string
	installationID int64
}

// Token implements oauth2.TokenSource for refreshes.
func (s *installationTokenSource) Token() (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	return s.mint(ctx)
}

func (s *installationTokenSource) mint(ctx context.Context) (*oauth2.Token, error) {
	if s.installationID == 0 {
		inst, _, err := s.client.Apps.FindRepositoryInstallation(ctx, s.owner, s.repo)
		if err != nil {
			return nil, fmt.Errorf("failed to find installation for %s/%s: %w", s.owner, s.repo, err)
		}
		s.installationID = inst.GetID()
	}

	token, _, err := s.client.Apps.CreateInstallationToken(ctx, s.installationID, &github.InstallationTokenOptions{
		Repositories: []string{s.repo},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create installation token for installation ID %d: %w", s.installationID, err)
	}
	if token.GetToken() == "" {
		return nil, fmt.Errorf("received an empty installation token")
	}
	return &oauth2.Token{AccessToken: token.GetToken(), Expiry: token.GetExpiresAt().Time}, nil
}
