package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arandaschimpf/claude-review/internal/gitutil"
)

// Color definitions
var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	dimColor     = color.New(color.FgHiBlack)
	boldColor    = color.New(color.Bold)
)

var (
	errRejected    = errors.New("pull request URL rejected")
	errAgentFailed = errors.New("review agent did not complete successfully")
)

var validateCmd = &cobra.Command{
	Use:   "validate [pr-url]",
	Short: "Check a pull request URL the way the review endpoint does",
	Example: `  review-cli validate https://github.com/owner/repo/pull/123
  review-cli validate 'https://github.com/owner/repo/pull/1;id'`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateURL(cmd.OutOrStdout(), args[0])
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	rootCmd.AddCommand(validateCmd)
}

func validateURL(w io.Writer, raw string) error {
	result := gitutil.ValidatePullRequestURL(raw)
	if !result.Accepted {
		errorColor.Fprintf(w, "✗ rejected: %s\n", result.Reason)
		return errRejected
	}

	owner, repo, number, err := gitutil.ParsePullRequestURL(raw)
	if err != nil {
		return fmt.Errorf("failed to parse accepted URL: %w", err)
	}
	successColor.Fprint(w, "✓ accepted ")
	boldColor.Fprintf(w, "%s/%s", owner, repo)
	dimColor.Fprintf(w, " #%d\n", number)
	return nil
}
