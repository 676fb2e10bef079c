// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the application's logic.
package core

import (
	"context"
	"time"
)

// ReviewSubmitter defines the contract for a system that accepts review
// requests for asynchronous processing. This interface decouples the request
// source (the HTTP API or a webhook) from the process launching mechanism.
//
//go:generate mockgen -destination=../../mocks/mock_review_submitter.go -package=mocks . ReviewSubmitter
type ReviewSubmitter interface {
	// Submit validates the request, prepares everything the review agent needs
	// and schedules the agent launch. It returns once the request has been
	// accepted; it never waits for the agent to finish.
	//
	// A *ValidationError is returned for rejected input and an error wrapping
	// ErrConfiguration when the prompt template cannot be loaded.
	Submit(ctx context.Context, req ReviewRequest) (*ReviewAck, error)
}

// ReviewAck is the acknowledgment handed back to the caller once a review has
// been scheduled.
type ReviewAck struct {
	URL        string
	AcceptedAt time.Time
}

// PromptLoader returns the trimmed content of a prompt template file.
// Implementations may cache content by path.
type PromptLoader interface {
	Load(path string) (string, error)
}

// Deployer runs the self-update script and reports on the serving process.
//
//go:generate mockgen -destination=../../mocks/mock_deployer.go -package=mocks . Deployer
type Deployer interface {
	// Trigger starts the deploy script in the background. It returns
	// ErrDeployDisabled when no script is configured.
	Trigger(ctx context.Context, requestedBy string) error
	Status() DeployStatus
}

// DeployStatus describes the serving process and its most recent deploy.
type DeployStatus struct {
	Status        string     `json:"status"`
	PID           int        `json:"pid"`
	StartedAt     time.Time  `json:"startedAt"`
	Uptime        string     `json:"uptime"`
	UptimeSeconds int64      `json:"uptimeSeconds"`
	Goroutines    int        `json:"goroutines"`
	HeapBytes     uint64     `json:"heapBytes"`
	SysBytes      uint64     `json:"sysBytes"`
	ActiveJobs    int        `json:"activeJobs"`
	LastDeploy    *DeployRun `json:"lastDeploy,omitempty"`
}

// DeployRun is the record of one deploy script execution.
type DeployRun struct {
	StartedAt   time.Time  `json:"startedAt"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
	ExitCode    *int       `json:"exitCode,omitempty"`
	TimedOut    bool       `json:"timedOut,omitempty"`
	RequestedBy string     `json:"requestedBy,omitempty"`
}
