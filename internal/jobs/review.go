package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/arandaschimpf/claude-review/internal/agent"
	"github.com/arandaschimpf/claude-review/internal/core"
	"github.com/arandaschimpf/claude-review/internal/environment"
	"github.com/arandaschimpf/claude-review/internal/gitutil"
)

// Launcher starts agent processes.
type Launcher interface {
	Launch(ctx context.Context, spec agent.Spec) (*agent.Job, error)
}

// ProfileResolver decides the runtime profile for a launch.
type ProfileResolver interface {
	Resolve() core.RuntimeProfile
}

// TokenProvider supplies a GitHub credential for the agent. An empty token
// means none is configured.
type TokenProvider interface {
	Token(ctx context.Context, owner, repo string, installationID int64) (string, error)
}

// GitHubTokenEnv is the variable the agent reads its GitHub credential from.
const GitHubTokenEnv = "GH_TOKEN"

// ReviewService validates review requests and launches the review agent.
type ReviewService struct {
	resolver ProfileResolver
	prompts  core.PromptLoader
	launcher Launcher
	tokens   TokenProvider
	tracker  *Tracker
	environ  func() []string
	now      func() time.Time
	logger   *slog.Logger
}

// NewReviewService creates a ReviewService.
func NewReviewService(
	resolver ProfileResolver,
	prompts core.PromptLoader,
	launcher Launcher,
	tokens TokenProvider,
	tracker *Tracker,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		resolver: resolver,
		prompts:  prompts,
		launcher: launcher,
		tokens:   tokens,
		tracker:  tracker,
		environ:  os.Environ,
		now:      time.Now,
		logger:   logger,
	}
}

// BuildReviewSpec assembles the agent invocation for one pull request. The
// instruction is a single argument: the prompt text, a space and the URL.
func BuildReviewSpec(profile core.RuntimeProfile, promptText, url string, env []string) agent.Spec {
	return agent.Spec{
		Name:       "review",
		Executable: profile.AgentExecutable,
		Args:       []string{"-p", "--dangerously-skip-permissions", promptText + " " + url},
		Dir:        profile.WorkingDir,
		Env:        env,
	}
}

// preparedReview is everything resolved before the agent is launched.
type preparedReview struct {
	req        core.ReviewRequest
	profile    core.RuntimeProfile
	promptText string
}

func (s *ReviewService) prepare(req core.ReviewRequest) (*preparedReview, error) {
	if result := gitutil.ValidatePullRequestURL(req.URL); !result.Accepted {
		s.logger.Debug("review request rejected", "reason", result.Reason, "requested_by", req.RequestedBy)
		return nil, result.Err()
	}

	profile := s.resolver.Resolve()
	promptText, err := s.prompts.Load(profile.PromptPath)
	if err != nil {
		s.logger.Error("failed to load review prompt", "path", profile.PromptPath, "error", err)
		return nil, fmt.Errorf("failed to prepare review: %w", err)
	}

	return &preparedReview{req: req, profile: profile, promptText: promptText}, nil
}

// Submit validates req and schedules the agent launch. It returns as soon as
// the launch is scheduled.
func (s *ReviewService) Submit(_ context.Context, req core.ReviewRequest) (*core.ReviewAck, error) {
	p, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	err = s.tracker.Go("review", func(ctx context.Context) {
		job, err := s.launch(ctx, p)
		if err != nil {
			// The launcher already logged the spawn failure.
			return
		}
		<-job.Done()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule review: %w", err)
	}

	s.logger.Info("review request accepted",
		"url", req.URL,
		"environment", p.profile.Environment(),
		"requested_by", req.RequestedBy,
	)
	return &core.ReviewAck{URL: req.URL, AcceptedAt: s.now()}, nil
}

// Run validates req, launches the agent and waits for it to exit.
func (s *ReviewService) Run(ctx context.Context, req core.ReviewRequest) (agent.Outcome, error) {
	p, err := s.prepare(req)
	if err != nil {
		return agent.Outcome{}, err
	}
	job, err := s.launch(ctx, p)
	if err != nil {
		return agent.Outcome{}, err
	}
	return job.Outcome(), nil
}

func (s *ReviewService) launch(ctx context.Context, p *preparedReview) (*agent.Job, error) {
	extra := map[string]string{}
	if token := s.githubToken(ctx, p.req); token != "" {
		extra[GitHubTokenEnv] = token
	}

	spec := BuildReviewSpec(p.profile, p.promptText, p.req.URL, environment.ChildEnv(p.profile, s.environ(), extra))
	spec.LogAttrs = []any{
		"url", p.req.URL,
		"environment", p.profile.Environment(),
		"requested_by", p.req.RequestedBy,
	}
	return s.launcher.Launch(ctx, spec)
}

// githubToken never fails the review: without a token the agent falls back to
// whatever credentials its environment has.
func (s *ReviewService) githubToken(ctx context.Context, req core.ReviewRequest) string {
	owner, repo, _, err := gitutil.ParsePullRequestURL(req.URL)
	if err != nil {
		s.logger.Warn("could not parse repository from URL", "url", req.URL, "error", err)
		return ""
	}
	token, err := s.tokens.Token(ctx, owner, repo, req.InstallationID)
	if err != nil {
		s.logger.Warn("failed to obtain GitHub token for agent", "repo", owner+"/"+repo, "error", err)
		return ""
	}
	return token
}
