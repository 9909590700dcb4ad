package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clippa-dev/cfctl/pkg/cfapi"
)

var (
	workersDeployFile    string
	workersDeployR2      []string
	workersDeploySecrets []string
	workersMediaAPIKey   string
	workersDomainZone    string
	workersDomainEnv     string

	workersCmd = &cobra.Command{
		Use:   "workers",
		Short: "Manage Workers scripts",
		Long: `List, deploy and delete Workers scripts, manage the workers.dev
subdomain and attach custom domains.`,
	}

	workersListCmd = &cobra.Command{
		Use:   "list",
		Short: "List Workers scripts",
		RunE:  runWorkersList,
	}

	workersGetCmd = &cobra.Command{
		Use:   "get <name>",
		Short: "Show details for a script",
		Args:  cobra.ExactArgs(1),
		RunE:  runWorkersGet,
	}

	workersDeleteCmd = &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a script",
		Args:  cobra.ExactArgs(1),
		RunE:  runWorkersDelete,
	}

	workersDeployCmd = &cobra.Command{
		Use:   "deploy <name>",
		Short: "Deploy a script as an ES module",
		Args:  cobra.ExactArgs(1),
		RunE:  runWorkersDeploy,
	}

	workersDeployMediaCmd = &cobra.Command{
		Use:   "deploy-media <name> <bucket>",
		Short: "Deploy a media-serving worker backed by an R2 bucket",
		Long: `Deploy a generated worker that serves objects from the bucket with CORS
and long-lived caching. Writes require the API key, which is generated when
not supplied and printed once after deployment.`,
		Args: cobra.ExactArgs(2),
		RunE: runWorkersDeployMedia,
	}

	workersSubdomainCmd = &cobra.Command{
		Use:   "subdomain [name]",
		Short: "Show or set the workers.dev subdomain",
		Args:  cobra.RangeArgs(0, 1),
		RunE:  runWorkersSubdomain,
	}

	workersDomainsCmd = &cobra.Command{
		Use:   "domains",
		Short: "List custom domains attached to Workers",
		RunE:  runWorkersDomains,
	}

	workersDomainCmd = &cobra.Command{
		Use:   "domain",
		Short: "Attach a custom domain to a script",
	}

	workersDomainAddCmd = &cobra.Command{
		Use:   "add <hostname> <script>",
		Short: "Route a hostname to a script",
		Args:  cobra.ExactArgs(2),
		RunE:  runWorkersDomainAdd,
	}
)

func init() {
	workersDeployCmd.Flags().StringVarP(&workersDeployFile, "file", "f", "", "Path to the script file (required)")
	workersDeployCmd.Flags().StringArrayVar(&workersDeployR2, "r2", nil, "R2 bucket binding as NAME=bucket (repeatable)")
	workersDeployCmd.Flags().StringArrayVar(&workersDeploySecrets, "secret", nil, "Secret binding as NAME=value (repeatable)")
	// Panic is appropriate in init() since we cannot return errors and this indicates a programming error
	if err := workersDeployCmd.MarkFlagRequired("file"); err != nil {
		panic(err)
	}

	workersDeployMediaCmd.Flags().StringVar(&workersMediaAPIKey, "api-key", "", "API key protecting writes (generated when empty)")

	workersDomainAddCmd.Flags().StringVar(&workersDomainZone, "zone", "", "Zone the hostname belongs to (required)")
	workersDomainAddCmd.Flags().StringVar(&workersDomainEnv, "env", "production", "Script environment")
	if err := workersDomainAddCmd.MarkFlagRequired("zone"); err != nil {
		panic(err)
	}

	workersDomainCmd.AddCommand(workersDomainAddCmd)

	workersCmd.AddCommand(workersListCmd)
	workersCmd.AddCommand(workersGetCmd)
	workersCmd.AddCommand(workersDeleteCmd)
	workersCmd.AddCommand(workersDeployCmd)
	workersCmd.AddCommand(workersDeployMediaCmd)
	workersCmd.AddCommand(workersSubdomainCmd)
	workersCmd.AddCommand(workersDomainsCmd)
	workersCmd.AddCommand(workersDomainCmd)
}

// parseBindings turns the --r2 and --secret flag values into bindings.
func parseBindings(r2, secrets []string) ([]cfapi.WorkerBinding, error) {
	var bindings []cfapi.WorkerBinding
	for _, spec := range r2 {
		name, bucket, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("invalid R2 binding %q: want NAME=bucket", spec)
		}
		bindings = append(bindings, cfapi.WorkerBinding{Type: "r2_bucket", Name: name, BucketName: bucket})
	}
	for _, spec := range secrets {
		name, value, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("invalid secret binding %q: want NAME=value", spec)
		}
		bindings = append(bindings, cfapi.WorkerBinding{Type: "secret_text", Name: name, Text: value})
	}
	return bindings, nil
}

func runWorkersList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.workers.list")
	defer span.End()

	workers, err := api.ListWorkers(ctx)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to list Workers", "error", err)
		return err
	}

	if handled, err := emit(workers); handled {
		return err
	}
	rows := [][]string{{"NAME", "MODIFIED"}}
	for _, w := range workers {
		rows = append(rows, []string{w.ID, w.ModifiedOn})
	}
	table(rows)
	return nil
}

func runWorkersGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.workers.get")
	defer span.End()
	span.SetAttributes(attribute.String("worker.name", args[0]))

	worker, err := api.GetWorker(ctx, args[0])
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to get Worker", "error", err, "name", args[0])
		return err
	}

	if handled, err := emit(worker); handled {
		return err
	}
	fmt.Printf("Name:     %s\n", worker.ID)
	fmt.Printf("Created:  %s\n", worker.CreatedOn)
	fmt.Printf("Modified: %s\n", worker.ModifiedOn)
	return nil
}

func runWorkersDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.workers.delete")
	defer span.End()
	span.SetAttributes(attribute.String("worker.name", args[0]))

	if err := api.DeleteWorker(ctx, args[0]); err != nil {
		span.RecordError(err)
		slog.Error("Failed to delete Worker", "error", err, "name", args[0])
		return err
	}

	slog.Info("Worker deleted", "name", args[0])
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}

func runWorkersDeploy(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.workers.deploy")
	defer span.End()
	span.SetAttributes(
		attribute.String("worker.name", args[0]),
		attribute.String("worker.file", workersDeployFile),
	)

	script, err := os.ReadFile(workersDeployFile)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to read script file: %w", err)
	}

	bindings, err := parseBindings(workersDeployR2, workersDeploySecrets)
	if err != nil {
		span.RecordError(err)
		return err
	}

	slog.Info("Deploying Worker", "name", args[0], "bytes", len(script), "bindings", len(bindings))

	if err := api.DeployWorker(ctx, args[0], script, bindings); err != nil {
		span.RecordError(err)
		slog.Error("Failed to deploy Worker", "error", err, "name", args[0])
		return err
	}

	slog.Info("Worker deployed", "name", args[0])
	fmt.Printf("Deployed %s\n", args[0])
	return nil
}

// generateAPIKey generates a cryptographically secure random key from the
// given source, URL-safe for use in headers and curl examples.
func generateAPIKey(r io.Reader) (string, error) {
	bytes := make([]byte, 32)
	if _, err := io.ReadFull(r, bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func runWorkersDeployMedia(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.workers.deploy_media")
	defer span.End()
	span.SetAttributes(
		attribute.String("worker.name", args[0]),
		attribute.String("r2.bucket", args[1]),
	)

	apiKey := workersMediaAPIKey
	generated := apiKey == ""
	if generated {
		key, err := generateAPIKey(rand.Reader)
		if err != nil {
			span.RecordError(err)
			return err
		}
		apiKey = key
	}

	slog.Info("Deploying media worker", "name", args[0], "bucket", args[1])

	if err := api.DeployMediaWorker(ctx, args[0], args[1], apiKey); err != nil {
		span.RecordError(err)
		slog.Error("Failed to deploy media worker", "error", err, "name", args[0], "bucket", args[1])
		return err
	}

	slog.Info("Media worker deployed", "name", args[0], "bucket", args[1])
	fmt.Printf("Deployed %s backed by bucket %s\n", args[0], args[1])

	if subdomain, err := api.WorkersSubdomain(ctx); err == nil && subdomain != "" {
		workerURL := fmt.Sprintf("https://%s.%s.workers.dev", args[0], subdomain)
		fmt.Printf("URL: %s\n", workerURL)
		if generated {
			fmt.Printf("\nAPI key (save this, it is not shown again): %s\n", apiKey)
		}
		fmt.Printf("\nUpload: curl -X PUT '%s/file.mp4' -H 'X-API-Key: %s' --data-binary @file.mp4\n", workerURL, apiKey)
		fmt.Printf("Access: %s/file.mp4\n", workerURL)
	} else if generated {
		fmt.Printf("API key (save this, it is not shown again): %s\n", apiKey)
	}
	return nil
}

func runWorkersSubdomain(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.workers.subdomain")
	defer span.End()

	if len(args) == 1 {
		if err := api.SetWorkersSubdomain(ctx, args[0]); err != nil {
			span.RecordError(err)
			slog.Error("Failed to set workers.dev subdomain", "error", err, "subdomain", args[0])
			return err
		}
		slog.Info("Workers subdomain set", "subdomain", args[0])
		fmt.Printf("Subdomain set to %s.workers.dev\n", args[0])
		return nil
	}

	subdomain, err := api.WorkersSubdomain(ctx)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to get workers.dev subdomain", "error", err)
		return err
	}
	fmt.Printf("%s.workers.dev\n", subdomain)
	return nil
}

func runWorkersDomains(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.workers.domains")
	defer span.End()

	domains, err := api.ListWorkerDomains(ctx)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to list Worker domains", "error", err)
		return err
	}

	if handled, err := emit(domains); handled {
		return err
	}
	rows := [][]string{{"HOSTNAME", "SCRIPT", "ZONE"}}
	for _, d := range domains {
		rows = append(rows, []string{d.Hostname, d.Service, d.ZoneName})
	}
	table(rows)
	return nil
}

func runWorkersDomainAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.workers.domain.add")
	defer span.End()
	span.SetAttributes(
		attribute.String("worker.hostname", args[0]),
		attribute.String("worker.script", args[1]),
	)

	zone, err := resolveZone(cmd, workersDomainZone)
	if err != nil {
		span.RecordError(err)
		return err
	}

	if err := api.AttachWorkerDomain(ctx, args[0], zone.ID, args[1], workersDomainEnv); err != nil {
		span.RecordError(err)
		slog.Error("Failed to attach Worker domain", "error", err, "hostname", args[0], "script", args[1])
		return err
	}

	slog.Info("Worker domain attached", "hostname", args[0], "script", args[1])
	fmt.Printf("Routed %s to %s\n", args[0], args[1])
	return nil
}
