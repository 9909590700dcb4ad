package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/clippa-dev/cfctl/pkg/cfapi"
	"github.com/clippa-dev/cfctl/pkg/telemetry"
)

var (
	// Shared API client, built once from the environment
	api *cfapi.Client

	// Output format for read commands: table, json or yaml
	outputFormat string

	// Root command
	rootCmd = &cobra.Command{
		Use:   "cfctl",
		Short: "cfctl - Cloudflare account management from the command line",
		Long: `cfctl is a standalone CLI tool that manages Cloudflare zones, DNS records,
Pages projects, Workers, R2 buckets, KV storage, email routing and redirects
through the Cloudflare v4 API.

Credentials are read from the environment (or a .env file): set
CLOUDFLARE_API_TOKEN, or CLOUDFLARE_API_KEY together with CLOUDFLARE_EMAIL.
Account-scoped commands also need CLOUDFLARE_ACCOUNT_ID.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup structured logging
			logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}))
			slog.SetDefault(logger)
		},
	}
)

func init() {
	// Load .env file if it exists (silently ignore if not found)
	// This allows users to optionally use .env for local development
	_ = godotenv.Load()

	// Build the API client from the environment. Missing credentials are not
	// an error here; they surface as a ConfigurationError on first use.
	api = cfapi.NewClient(cfapi.LoadCredentials())

	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json or yaml")

	// Add subcommands
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(zonesCmd)
	rootCmd.AddCommand(dnsCmd)
	rootCmd.AddCommand(pagesCmd)
	rootCmd.AddCommand(r2Cmd)
	rootCmd.AddCommand(kvCmd)
	rootCmd.AddCommand(emailCmd)
	rootCmd.AddCommand(workersCmd)
	rootCmd.AddCommand(redirectsCmd)
	rootCmd.AddCommand(analyticsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx := context.Background()

	// Setup OpenTelemetry
	_, shutdown, err := telemetry.Setup(ctx)
	if err != nil {
		slog.Error("Failed to setup telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			slog.Error("Failed to shutdown telemetry", "error", err)
		}
	}()

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		renderError(err)
		slog.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}
