package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arandaschimpf/claude-review/internal/agent"
	"github.com/arandaschimpf/claude-review/internal/core"
	"github.com/arandaschimpf/claude-review/internal/wire"
)

var quiet bool

var reviewCmd = &cobra.Command{
	Use:   "review [pr-url]",
	Short: "Run the review agent for a GitHub Pull Request in the foreground",
	Long: `Run the review agent for a GitHub Pull Request in the foreground.

The URL goes through the same validation as the HTTP endpoint. The agent is
launched with the cached prompt and the command waits until it exits. Its
output is logged as usual and, unless --quiet is set, printed at the end.

Examples:
  review-cli review https://github.com/owner/repo/pull/123
  review-cli review --quiet https://github.com/owner/repo/pull/123`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runReview,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	reviewCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the agent output")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := wire.InitializeApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w\n\nTip: Check your .env file and environment", err)
	}
	defer cleanup()

	start := time.Now()
	outcome, err := app.Reviews.Run(ctx, core.ReviewRequest{URL: args[0], RequestedBy: "cli"})
	if err != nil {
		return err
	}

	printOutcome(cmd, outcome, time.Since(start))
	if !outcome.Succeeded() {
		return errAgentFailed
	}
	return nil
}

func printOutcome(cmd *cobra.Command, o agent.Outcome, elapsed time.Duration) {
	w := cmd.OutOrStdout()
	if !quiet && strings.TrimSpace(o.Stdout) != "" {
		fmt.Fprintln(w, strings.TrimRight(o.Stdout, "\n"))
		fmt.Fprintln(w)
	}

	switch {
	case o.Succeeded():
		successColor.Fprintf(w, "✓ review finished")
	case o.TimedOut:
		errorColor.Fprintf(w, "✗ review timed out")
	default:
		errorColor.Fprintf(w, "✗ review failed")
	}
	o.ExitCode.WhenSome(func(code int) {
		dimColor.Fprintf(w, " (exit %d)", code)
	})
	o.Signal.WhenSome(func(sig string) {
		dimColor.Fprintf(w, " (signal %s)", sig)
	})
	dimColor.Fprintf(w, " in %s\n", elapsed.Round(time.Second))

	if o.Stderr != "" && !o.Succeeded() {
		excerpt, _ := agent.Truncate(o.Stderr, agent.MaxLoggedChars)
		warnColor.Fprintln(w, strings.TrimSpace(excerpt))
	}
}
