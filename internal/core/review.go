package core

// ReviewRequest is a single inbound request to review a pull request.
// It is created per call and never persisted.
type ReviewRequest struct {
	URL string

	// InstallationID is the GitHub App installation the request came from,
	// or zero when unknown (for example, requests made over the REST API).
	InstallationID int64

	// RequestedBy names the caller that asked for the review.
	RequestedBy string
}

// ValidationResult is the verdict of the input validator.
type ValidationResult struct {
	Accepted bool
	Reason   string
}

// Accept returns an accepting ValidationResult.
func Accept() ValidationResult {
	return ValidationResult{Accepted: true}
}

// Reject returns a rejecting ValidationResult with the given reason.
func Reject(reason string) ValidationResult {
	return ValidationResult{Reason: reason}
}

// Err converts a rejection into a *ValidationError. It returns nil when the
// result is accepting.
func (r ValidationResult) Err() error {
	if r.Accepted {
		return nil
	}
	return &ValidationError{Reason: r.Reason}
}

// RuntimeProfile describes where and as whom the review agent runs. All fields
// are chosen together from a single containerized/local decision.
type RuntimeProfile struct {
	Containerized   bool
	WorkingDir      string
	ShellPath       string
	PromptPath      string
	AgentExecutable string

	// Home and User are the sandbox identity. They are empty for the local
	// profile, which keeps the ambient values.
	Home string
	User string
}

// Environment returns a label for logs.
func (p RuntimeProfile) Environment() string {
	if p.Containerized {
		return "container"
	}
	return "local"
}
