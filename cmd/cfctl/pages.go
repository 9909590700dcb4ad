package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clippa-dev/cfctl/pkg/cfapi"
)

var (
	pagesBranch       string
	pagesEnvironment  string
	pagesEnvSecret    bool
	pagesBuildCommand string
	pagesBuildDir     string
	pagesBuildRoot    string

	pagesCmd = &cobra.Command{
		Use:   "pages",
		Short: "Manage Pages projects",
		Long: `List and create Pages projects, attach custom domains and manage the
environment variables of their deployment configurations.`,
	}

	pagesListCmd = &cobra.Command{
		Use:   "list",
		Short: "List Pages projects",
		RunE:  runPagesList,
	}

	pagesGetCmd = &cobra.Command{
		Use:   "get <project>",
		Short: "Show details for a Pages project",
		Args:  cobra.ExactArgs(1),
		RunE:  runPagesGet,
	}

	pagesCreateCmd = &cobra.Command{
		Use:   "create <project>",
		Short: "Create a Pages project",
		Args:  cobra.ExactArgs(1),
		RunE:  runPagesCreate,
	}

	pagesConnectGitCmd = &cobra.Command{
		Use:   "connect-git <project> <owner> <repo>",
		Short: "Connect a GitHub repository to a project",
		Long: `Connect a GitHub repository as the project's deployment source. PR
comments and automatic deployments are enabled; adjust the build step with
'pages build' afterwards.`,
		Args: cobra.ExactArgs(3),
		RunE: runPagesConnectGit,
	}

	pagesBuildCmd = &cobra.Command{
		Use:   "build <project>",
		Short: "Update the build configuration of a project",
		Args:  cobra.ExactArgs(1),
		RunE:  runPagesBuild,
	}

	pagesDomainsCmd = &cobra.Command{
		Use:   "domains <project>",
		Short: "List custom domains of a project",
		Args:  cobra.ExactArgs(1),
		RunE:  runPagesDomains,
	}

	pagesDomainCmd = &cobra.Command{
		Use:   "domain",
		Short: "Attach or detach a custom domain",
	}

	pagesDomainAddCmd = &cobra.Command{
		Use:   "add <project> <domain>",
		Short: "Attach a custom domain to a project",
		Args:  cobra.ExactArgs(2),
		RunE:  runPagesDomainAdd,
	}

	pagesDomainDeleteCmd = &cobra.Command{
		Use:   "delete <project> <domain>",
		Short: "Detach a custom domain from a project",
		Args:  cobra.ExactArgs(2),
		RunE:  runPagesDomainDelete,
	}

	pagesEnvCmd = &cobra.Command{
		Use:   "env",
		Short: "Manage deployment environment variables",
	}

	pagesEnvListCmd = &cobra.Command{
		Use:   "list <project>",
		Short: "List environment variables",
		Args:  cobra.ExactArgs(1),
		RunE:  runPagesEnvList,
	}

	pagesEnvSetCmd = &cobra.Command{
		Use:   "set <project> <name> <value>",
		Short: "Set an environment variable",
		Args:  cobra.ExactArgs(3),
		RunE:  runPagesEnvSet,
	}

	pagesEnvDeleteCmd = &cobra.Command{
		Use:   "delete <project> <name>",
		Short: "Delete an environment variable",
		Args:  cobra.ExactArgs(2),
		RunE:  runPagesEnvDelete,
	}
)

func init() {
	pagesCreateCmd.Flags().StringVar(&pagesBranch, "branch", "main", "Production branch name")
	pagesConnectGitCmd.Flags().StringVar(&pagesBranch, "branch", "main", "Production branch name")

	pagesBuildCmd.Flags().StringVar(&pagesBuildCommand, "command", "", "Build command (required)")
	pagesBuildCmd.Flags().StringVar(&pagesBuildDir, "dir", "", "Build output directory (required)")
	pagesBuildCmd.Flags().StringVar(&pagesBuildRoot, "root", "", "Repository subdirectory to build from")
	// Panic is appropriate in init() since we cannot return errors and this indicates a programming error
	if err := pagesBuildCmd.MarkFlagRequired("command"); err != nil {
		panic(err)
	}
	if err := pagesBuildCmd.MarkFlagRequired("dir"); err != nil {
		panic(err)
	}

	for _, c := range []*cobra.Command{pagesEnvListCmd, pagesEnvSetCmd, pagesEnvDeleteCmd} {
		c.Flags().StringVar(&pagesEnvironment, "env", "production", "Deployment environment: production or preview")
	}
	pagesEnvSetCmd.Flags().BoolVar(&pagesEnvSecret, "secret", false, "Store the value as an encrypted secret")

	pagesDomainCmd.AddCommand(pagesDomainAddCmd)
	pagesDomainCmd.AddCommand(pagesDomainDeleteCmd)
	pagesEnvCmd.AddCommand(pagesEnvListCmd)
	pagesEnvCmd.AddCommand(pagesEnvSetCmd)
	pagesEnvCmd.AddCommand(pagesEnvDeleteCmd)

	pagesCmd.AddCommand(pagesListCmd)
	pagesCmd.AddCommand(pagesGetCmd)
	pagesCmd.AddCommand(pagesCreateCmd)
	pagesCmd.AddCommand(pagesConnectGitCmd)
	pagesCmd.AddCommand(pagesBuildCmd)
	pagesCmd.AddCommand(pagesDomainsCmd)
	pagesCmd.AddCommand(pagesDomainCmd)
	pagesCmd.AddCommand(pagesEnvCmd)
}

func runPagesList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.pages.list")
	defer span.End()

	projects, err := api.ListPagesProjects(ctx)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to list Pages projects", "error", err)
		return err
	}

	if handled, err := emit(projects); handled {
		return err
	}
	rows := [][]string{{"NAME", "SUBDOMAIN", "DOMAINS", "BRANCH"}}
	for _, p := range projects {
		rows = append(rows, []string{p.Name, p.Subdomain, strings.Join(p.Domains, ","), p.ProductionBranch})
	}
	table(rows)
	return nil
}

func runPagesGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.pages.get")
	defer span.End()
	span.SetAttributes(attribute.String("pages.project", args[0]))

	project, err := api.GetPagesProject(ctx, args[0])
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to get Pages project", "error", err, "project", args[0])
		return err
	}

	if handled, err := emit(project); handled {
		return err
	}
	fmt.Printf("Project:   %s\n", project.Name)
	fmt.Printf("Subdomain: %s\n", project.Subdomain)
	fmt.Printf("Branch:    %s\n", project.ProductionBranch)
	fmt.Printf("Domains:   %s\n", strings.Join(project.Domains, ", "))
	return nil
}

func runPagesCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.pages.create")
	defer span.End()
	span.SetAttributes(attribute.String("pages.project", args[0]))

	project, err := api.CreatePagesProject(ctx, args[0], pagesBranch)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to create Pages project", "error", err, "project", args[0])
		return err
	}

	slog.Info("Pages project created", "project", project.Name, "subdomain", project.Subdomain)
	fmt.Printf("Created project %s at https://%s\n", project.Name, project.Subdomain)
	return nil
}

func runPagesConnectGit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.pages.connect_git")
	defer span.End()
	span.SetAttributes(
		attribute.String("pages.project", args[0]),
		attribute.String("pages.repo", args[1]+"/"+args[2]),
	)

	project, err := api.ConnectPagesGit(ctx, args[0], args[1], args[2], pagesBranch)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to connect git source", "error", err, "project", args[0], "repo", args[1]+"/"+args[2])
		return err
	}

	slog.Info("Git source connected", "project", project.Name, "repo", args[1]+"/"+args[2], "branch", pagesBranch)
	fmt.Printf("Connected %s/%s (%s) to %s\n", args[1], args[2], pagesBranch, project.Name)
	fmt.Println("Pushes to the production branch now deploy automatically.")
	return nil
}

func runPagesBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.pages.build")
	defer span.End()
	span.SetAttributes(attribute.String("pages.project", args[0]))

	project, err := api.UpdatePagesBuild(ctx, args[0], cfapi.PagesBuildConfig{
		BuildCommand:   pagesBuildCommand,
		DestinationDir: pagesBuildDir,
		RootDir:        pagesBuildRoot,
	})
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to update build configuration", "error", err, "project", args[0])
		return err
	}

	slog.Info("Build configuration updated", "project", project.Name, "command", pagesBuildCommand, "dir", pagesBuildDir)
	fmt.Printf("Build for %s: %q -> %s\n", project.Name, pagesBuildCommand, pagesBuildDir)
	return nil
}

func runPagesDomains(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.pages.domains")
	defer span.End()
	span.SetAttributes(attribute.String("pages.project", args[0]))

	domains, err := api.ListPagesDomains(ctx, args[0])
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to list Pages domains", "error", err, "project", args[0])
		return err
	}

	if handled, err := emit(domains); handled {
		return err
	}
	rows := [][]string{{"DOMAIN", "STATUS"}}
	for _, d := range domains {
		rows = append(rows, []string{d.Name, d.Status})
	}
	table(rows)
	return nil
}

func runPagesDomainAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.pages.domain.add")
	defer span.End()
	span.SetAttributes(
		attribute.String("pages.project", args[0]),
		attribute.String("pages.domain", args[1]),
	)

	domain, err := api.AddPagesDomain(ctx, args[0], args[1])
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to attach Pages domain", "error", err, "project", args[0], "domain", args[1])
		return err
	}

	slog.Info("Pages domain attached", "project", args[0], "domain", domain.Name, "status", domain.Status)
	fmt.Printf("Attached %s to %s (status: %s)\n", domain.Name, args[0], domain.Status)
	fmt.Println("DNS and TLS provisioning start automatically; status becomes active once verified.")
	return nil
}

func runPagesDomainDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.pages.domain.delete")
	defer span.End()
	span.SetAttributes(
		attribute.String("pages.project", args[0]),
		attribute.String("pages.domain", args[1]),
	)

	if err := api.DeletePagesDomain(ctx, args[0], args[1]); err != nil {
		span.RecordError(err)
		slog.Error("Failed to detach Pages domain", "error", err, "project", args[0], "domain", args[1])
		return err
	}

	slog.Info("Pages domain detached", "project", args[0], "domain", args[1])
	fmt.Printf("Detached %s from %s\n", args[1], args[0])
	return nil
}

func runPagesEnvList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.pages.env.list")
	defer span.End()
	span.SetAttributes(
		attribute.String("pages.project", args[0]),
		attribute.String("pages.environment", pagesEnvironment),
	)

	vars, err := api.ListPagesEnv(ctx, args[0], pagesEnvironment)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to list Pages env vars", "error", err, "project", args[0])
		return err
	}

	if handled, err := emit(vars); handled {
		return err
	}
	rows := [][]string{{"NAME", "TYPE", "VALUE"}}
	for name, v := range vars {
		value := v.Value
		if v.Type == "secret_text" {
			value = "(secret)"
		}
		rows = append(rows, []string{name, v.Type, value})
	}
	table(rows)
	return nil
}

func runPagesEnvSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.pages.env.set")
	defer span.End()
	span.SetAttributes(
		attribute.String("pages.project", args[0]),
		attribute.String("pages.environment", pagesEnvironment),
		attribute.String("pages.env_var", args[1]),
	)

	if err := api.SetPagesEnv(ctx, args[0], pagesEnvironment, args[1], args[2], pagesEnvSecret); err != nil {
		span.RecordError(err)
		slog.Error("Failed to set Pages env var", "error", err, "project", args[0], "name", args[1])
		return err
	}

	slog.Info("Pages env var set", "project", args[0], "name", args[1], "secret", pagesEnvSecret)
	fmt.Printf("Set %s in %s (%s)\n", args[1], args[0], pagesEnvironment)
	return nil
}

func runPagesEnvDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.pages.env.delete")
	defer span.End()
	span.SetAttributes(
		attribute.String("pages.project", args[0]),
		attribute.String("pages.environment", pagesEnvironment),
		attribute.String("pages.env_var", args[1]),
	)

	if err := api.DeletePagesEnv(ctx, args[0], pagesEnvironment, args[1]); err != nil {
		span.RecordError(err)
		slog.Error("Failed to delete Pages env var", "error", err, "project", args[0], "name", args[1])
		return err
	}

	slog.Info("Pages env var deleted", "project", args[0], "name", args[1])
	fmt.Printf("Deleted %s from %s (%s)\n", args[1], args[0], pagesEnvironment)
	return nil
}
