package main

import (
	"errors"
	"log/slog"
	"os"
)

// Exit codes let scripts tell a rejected URL apart from a failed review.
const (
	exitFailure  = 1
	exitRejected = 2
	exitAgent    = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	err := Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errRejected):
		return exitRejected
	case errors.Is(err, errAgentFailed):
		slog.Error("review failed", "error", err)
		return exitAgent
	default:
		slog.Error("cli failed to run", "error", err)
		return exitFailure
	}
}
