package core

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/go-github/v73/github"
)

// GitHubEvent represents a simplified, internal view of a GitHub webhook event
// that asked for a review.
type GitHubEvent struct {
	RepoOwner    string
	RepoName     string
	RepoFullName string

	PRNumber int

	Commenter      string
	InstallationID int64
}

// DefaultReviewerAssociations are the comment author associations allowed to
// request a review when none are configured.
var DefaultReviewerAssociations = []string{"OWNER", "MEMBER", "COLLABORATOR"}

// EventFromIssueComment transforms a raw GitHub IssueCommentEvent into the application's
// internal GitHubEvent representation. It acts as an anti-corruption layer, ensuring
// that the incoming webhook payload contains all necessary data before a review is
// requested. It specifically filters for comments that are a "/review" command
// on a pull request, written by an author whose association with the repository
// is in allowed. An empty allowed falls back to DefaultReviewerAssociations.
func EventFromIssueComment(event *github.IssueCommentEvent, allowed []string) (*GitHubEvent, error) {
	if event.GetAction() != "" && event.GetAction() != "created" {
		return nil, fmt.Errorf("comment action %q is not handled", event.GetAction())
	}

	if !event.GetIssue().IsPullRequest() {
		return nil, fmt.Errorf("comment is not on a pull request")
	}

	if !strings.EqualFold(strings.TrimSpace(event.GetComment().GetBody()), "/review") {
		return nil, fmt.Errorf("comment is not a review command")
	}

	repo := event.GetRepo()
	if repo == nil || repo.GetOwner() == nil || repo.GetOwner().GetLogin() == "" || repo.GetName() == "" {
		return nil, fmt.Errorf("repository or owner information is missing from the event")
	}

	prNumber := event.GetIssue().GetNumber()
	if prNumber <= 0 {
		return nil, fmt.Errorf("invalid pull request number: %d", prNumber)
	}

	if event.GetComment().GetUser() == nil || event.GetComment().GetUser().GetLogin() == "" {
		return nil, fmt.Errorf("commenter information is missing from the event")
	}

	// A valid signature only proves the event came from GitHub, not that the
	// commenter may run the agent.
	association := event.GetComment().GetAuthorAssociation()
	if len(allowed) == 0 {
		allowed = DefaultReviewerAssociations
	}
	if !slices.ContainsFunc(allowed, func(a string) bool { return strings.EqualFold(a, association) }) {
		return nil, fmt.Errorf("commenter association %q may not request reviews", association)
	}

	return &GitHubEvent{
		RepoOwner:      repo.GetOwner().GetLogin(),
		RepoName:       repo.GetName(),
		RepoFullName:   repo.GetFullName(),
		PRNumber:       prNumber,
		Commenter:      event.GetComment().GetUser().GetLogin(),
		InstallationID: event.GetInstallation().GetID(),
	}, nil
}
