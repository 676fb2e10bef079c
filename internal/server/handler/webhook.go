package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v73/github"

	"github.com/arandaschimpf/claude-review/internal/config"
	"github.com/arandaschimpf/claude-review/internal/core"
	"github.com/arandaschimpf/claude-review/internal/gitutil"
)

// WebhookHandler turns "/review" comments on pull requests into reviews.
type WebhookHandler struct {
	secret    []byte
	allowed   []string
	submitter core.ReviewSubmitter
	logger    *slog.Logger
}

// NewWebhookHandler creates a new webhook handler with the given configuration and submitter.
func NewWebhookHandler(cfg *config.Config, submitter core.ReviewSubmitter, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		secret:    []byte(cfg.GitHub.WebhookSecret),
		allowed:   cfg.GitHub.AllowedAssociations,
		submitter: submitter,
		logger:    logger,
	}
}

// Handle processes GitHub webhook requests.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if len(h.secret) == 0 {
		http.NotFound(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 10*maxBodyBytes)
	payload, err := github.ValidatePayload(r, h.secret)
	if err != nil {
		h.logger.Error("invalid webhook payload signature", "error", err)
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	event, err := github.ParseWebHook(github.WebHookType(r), payload)
	if err != nil {
		h.logger.Error("could not parse webhook", "error", err)
		http.Error(w, "Could not parse webhook", http.StatusBadRequest)
		return
	}

	switch e := event.(type) {
	case *github.IssueCommentEvent:
		h.handleIssueComment(r.Context(), w, e)
	default:
		h.logger.Debug("ignoring unhandled webhook event type", "type", github.WebHookType(r))
		_, _ = fmt.Fprint(w, "Event type not handled")
	}
}

// handleIssueComment processes issue comment events from GitHub.
func (h *WebhookHandler) handleIssueComment(ctx context.Context, w http.ResponseWriter, event *github.IssueCommentEvent) {
	reviewEvent, err := core.EventFromIssueComment(event, h.allowed)
	if err != nil {
		h.logger.Debug("ignoring issue comment",
			"reason", err.Error(),
			"repo", event.GetRepo().GetFullName(),
			"commenter", event.GetComment().GetUser().GetLogin(),
		)
		_, _ = fmt.Fprint(w, "Comment ignored")
		return
	}

	req := core.ReviewRequest{
		URL:            gitutil.PullRequestURL(reviewEvent.RepoOwner, reviewEvent.RepoName, reviewEvent.PRNumber),
		InstallationID: reviewEvent.InstallationID,
		RequestedBy:    "github:" + reviewEvent.Commenter,
	}
	if _, err := h.submitter.Submit(ctx, req); err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			h.logger.Warn("webhook produced an unacceptable pull request URL", "url", req.URL, "reason", verr.Reason)
			http.Error(w, verr.Reason, http.StatusBadRequest)
			return
		}
		if errors.Is(err, core.ErrShuttingDown) {
			h.logger.Warn("rejecting webhook review during shutdown", "repo", reviewEvent.RepoFullName)
			http.Error(w, "Service is shutting down", http.StatusServiceUnavailable)
			return
		}
		h.logger.Error("failed to start review job", "error", err, "repo", reviewEvent.RepoFullName)
		http.Error(w, "Failed to start review job", http.StatusInternalServerError)
		return
	}

	h.logger.Info("review job accepted from webhook", "repo", reviewEvent.RepoFullName, "pr", reviewEvent.PRNumber, "commenter", reviewEvent.Commenter)
	w.WriteHeader(http.StatusAccepted)
	_, _ = fmt.Fprint(w, "Review job accepted")
}
