package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/arandaschimpf/claude-review/internal/core"
	"github.com/arandaschimpf/claude-review/internal/wire"
)

var (
	keyAdmin     bool
	outputFormat string
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys",
}

var keysCreateCmd = &cobra.Command{
	Use:          "create [name]",
	Short:        "Create an API key",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withKeyStore(func(ctx context.Context, keys core.KeyStore) error {
			k, err := keys.CreateKey(ctx, args[0], keyAdmin, "cli")
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			successColor.Fprintf(w, "✓ created key %q\n", k.Name)
			boldColor.Fprintln(w, k.Key)
			return nil
		})
	},
}

var keysListCmd = &cobra.Command{
	Use:          "list",
	Short:        "List API keys",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withKeyStore(func(ctx context.Context, keys core.KeyStore) error {
			list, err := keys.ListKeys(ctx)
			if err != nil {
				return err
			}
			return renderKeys(cmd.OutOrStdout(), list, outputFormat)
		})
	},
}

var keysDeleteCmd = &cobra.Command{
	Use:          "delete [key]",
	Short:        "Delete an API key",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withKeyStore(func(ctx context.Context, keys core.KeyStore) error {
			deleted, err := keys.DeleteKey(ctx, args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return core.ErrKeyNotFound
			}
			successColor.Fprintln(cmd.OutOrStdout(), "✓ key deleted")
			return nil
		})
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	keysCreateCmd.Flags().BoolVar(&keyAdmin, "admin", false, "Grant admin privileges")
	keysListCmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json or yaml")

	keysCmd.AddCommand(keysCreateCmd, keysListCmd, keysDeleteCmd)
	rootCmd.AddCommand(keysCmd)
}

func withKeyStore(fn func(ctx context.Context, keys core.KeyStore) error) error {
	ctx := context.Background()

	app, cleanup, err := wire.InitializeApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize app services: %w", err)
	}
	defer cleanup()

	return fn(ctx, app.Keys)
}

func renderKeys(w io.Writer, keys []*core.APIKey, format string) error {
	if keys == nil {
		keys = []*core.APIKey{}
	}

	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(keys)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(keys); err != nil {
			return err
		}
		return encoder.Close()
	case "table":
		tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
		fmt.Fprintln(tw, "NAME\tKEY\tADMIN\tCREATED\tCREATED BY")
		for _, k := range keys {
			createdBy := "-"
			if k.CreatedBy != nil {
				createdBy = *k.CreatedBy
			}
			fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", k.Name, k.Key, k.IsAdmin, k.CreatedAt.Format(time.RFC822), createdBy)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}
