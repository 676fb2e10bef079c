package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	githubToken string
)

var rootCmd = &cobra.Command{
	Use:   "review-cli",
	Short: "review-cli is the command-line interface for claude-review.",
	Long:  `A CLI for validating pull request URLs, running reviews in the foreground and managing API keys of the claude-review service.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&githubToken, "github-token", "t", "", "GitHub token handed to the agent")

	if err := viper.BindPFlag("GITHUB_TOKEN", rootCmd.PersistentFlags().Lookup("github-token")); err != nil {
		slog.Error("Error binding flag", "error", err)
		os.Exit(1)
	}
}

// initConfig reads ENV variables and forwards flag overrides to the service
// configuration, which is loaded from the environment.
func initConfig() {
	viper.SetEnvPrefix("REVIEW")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if token := viper.GetString("GITHUB_TOKEN"); token != "" {
		if err := os.Setenv("GITHUB_TOKEN", token); err != nil {
			slog.Error("Error applying github token", "error", err)
		}
	}
}
