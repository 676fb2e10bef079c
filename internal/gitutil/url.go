// Package gitutil validates and parses GitHub pull request URLs.
package gitutil

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/arandaschimpf/claude-review/internal/core"
)

const (
	// AllowedHost is the only host a review may point at.
	AllowedHost = "github.com"

	// MaxURLLength bounds the URL, and with it the size of the agent's
	// argument vector.
	MaxURLLength = 500
)

// Rejection reasons returned to callers.
const (
	ReasonInvalidCharacters = "URL contains invalid characters"
	ReasonInvalidURL        = "Invalid URL format"
	ReasonInsecureScheme    = "Only HTTPS URLs are allowed"
	ReasonForeignHost       = "Only GitHub URLs are allowed"
	ReasonBadPath           = "Invalid GitHub pull request URL format"
	ReasonTooLong           = "URL too long"
)

// DangerousChars are shell metacharacters that are never accepted, no matter
// how the URL is later passed to a process.
const DangerousChars = ";&|`$(){}[]\\'\"<>"

var (
	prPathRegex = regexp.MustCompile(`^/([A-Za-z0-9._-]+)/([A-Za-z0-9._-]+)/pull/(\d+)/?$`)
	prURLRegex  = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)/pull/(\d+)$`)
)

// ValidatePullRequestURL checks that raw is an https GitHub pull request URL
// that is safe to hand to the review agent. Rules are applied in order and the
// first failure wins. It performs no I/O and never panics.
func ValidatePullRequestURL(raw string) core.ValidationResult {
	if strings.ContainsAny(raw, DangerousChars) {
		return core.Reject(ReasonInvalidCharacters)
	}

	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return core.Reject(ReasonInvalidURL)
	}

	if u.Scheme != "https" {
		return core.Reject(ReasonInsecureScheme)
	}

	// https URLs must be hierarchical with a bare host.
	if u.Opaque != "" || u.Host == "" || u.User != nil {
		return core.Reject(ReasonInvalidURL)
	}

	if strings.ToLower(u.Host) != AllowedHost {
		return core.Reject(ReasonForeignHost)
	}

	m := prPathRegex.FindStringSubmatch(u.EscapedPath())
	if m == nil || isDotSegment(m[1]) || isDotSegment(m[2]) {
		return core.Reject(ReasonBadPath)
	}

	if utf8.RuneCountInString(raw) > MaxURLLength {
		return core.Reject(ReasonTooLong)
	}

	return core.Accept()
}

// A URL parser resolves "." and ".." segments, which would move the path
// somewhere other than what was validated.
func isDotSegment(s string) bool {
	return s == "." || s == ".."
}

// ParsePullRequestURL parses a GitHub Pull Request URL and extracts the owner, repo, and PR number.
// Supported format: https://github.com/{owner}/{repo}/pull/{number}
func ParsePullRequestURL(rawURL string) (owner, repo string, prNumber int, err error) {
	// Query strings and fragments are not part of the coordinates.
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		rawURL = rawURL[:i]
	}
	rawURL = strings.TrimSuffix(rawURL, "/")

	matches := prURLRegex.FindStringSubmatch(rawURL)
	if len(matches) != 4 {
		return "", "", 0, fmt.Errorf("invalid pull request URL format: %s", rawURL)
	}

	owner = matches[1]
	repo = matches[2]
	prNumberStr := matches[3]

	prNumber, err = strconv.Atoi(prNumberStr)
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid PR number '%s': %w", prNumberStr, err)
	}

	return owner, repo, prNumber, nil
}

// PullRequestURL builds the canonical https URL of a pull request.
func PullRequestURL(owner, repo string, prNumber int) string {
	return fmt.Sprintf("https://%s/%s/%s/pull/%d", AllowedHost, owner, repo, prNumber)
}
