package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var (
	redirectsCmd = &cobra.Command{
		Use:   "redirects",
		Short: "Manage page-rule redirects",
		Long:  `List page rules and manage the www-to-apex redirect of a zone.`,
	}

	redirectsListCmd = &cobra.Command{
		Use:   "list <domain>",
		Short: "List page rules of a zone",
		Args:  cobra.ExactArgs(1),
		RunE:  runRedirectsList,
	}

	redirectsWWWCmd = &cobra.Command{
		Use:   "www <domain>",
		Short: "Redirect www to the apex domain",
		Long: `Create a page rule that permanently redirects www.<domain>/* to
https://<domain>/$1. The www DNS record must exist and be proxied.`,
		Args: cobra.ExactArgs(1),
		RunE: runRedirectsWWW,
	}

	redirectsDeleteCmd = &cobra.Command{
		Use:   "delete <domain> <rule-id>",
		Short: "Delete a page rule",
		Args:  cobra.ExactArgs(2),
		RunE:  runRedirectsDelete,
	}
)

func init() {
	redirectsCmd.AddCommand(redirectsListCmd)
	redirectsCmd.AddCommand(redirectsWWWCmd)
	redirectsCmd.AddCommand(redirectsDeleteCmd)
}

func runRedirectsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.redirects.list")
	defer span.End()
	span.SetAttributes(attribute.String("zone.name", args[0]))

	zone, err := resolveZone(cmd, args[0])
	if err != nil {
		span.RecordError(err)
		return err
	}

	rules, err := api.ListPageRules(ctx, zone.ID)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to list page rules", "error", err, "zone_id", zone.ID)
		return err
	}

	if handled, err := emit(rules); handled {
		return err
	}
	rows := [][]string{{"ID", "STATUS", "PRIORITY"}}
	for _, r := range rules {
		rows = append(rows, []string{r.ID, r.Status, fmt.Sprintf("%d", r.Priority)})
	}
	table(rows)
	return nil
}

func runRedirectsWWW(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.redirects.www")
	defer span.End()
	span.SetAttributes(attribute.String("zone.name", args[0]))

	zone, err := resolveZone(cmd, args[0])
	if err != nil {
		span.RecordError(err)
		return err
	}

	rule, err := api.CreateWWWRedirect(ctx, zone.ID, zone.Name)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to create www redirect", "error", err, "zone_id", zone.ID)
		return err
	}

	slog.Info("WWW redirect created", "rule_id", rule.ID, "zone", zone.Name)
	fmt.Printf("Redirecting www.%s/* -> https://%s/$1 (%s)\n", zone.Name, zone.Name, rule.ID)
	return nil
}

func runRedirectsDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.redirects.delete")
	defer span.End()
	span.SetAttributes(
		attribute.String("zone.name", args[0]),
		attribute.String("rule.id", args[1]),
	)

	zone, err := resolveZone(cmd, args[0])
	if err != nil {
		span.RecordError(err)
		return err
	}

	if err := api.DeletePageRule(ctx, zone.ID, args[1]); err != nil {
		span.RecordError(err)
		slog.Error("Failed to delete page rule", "error", err, "zone_id", zone.ID, "rule_id", args[1])
		return err
	}

	slog.Info("Page rule deleted", "rule_id", args[1], "zone_id", zone.ID)
	fmt.Printf("Deleted rule %s\n", args[1])
	return nil
}
