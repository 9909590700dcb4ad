package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var (
	analyticsDays           int
	analyticsPathsLimit     int
	analyticsCountriesLimit int

	analyticsCmd = &cobra.Command{
		Use:   "analytics",
		Short: "Zone traffic analytics",
		Long: `Query zone analytics through the GraphQL endpoint: traffic over time,
top request paths, client countries and response status codes.`,
	}

	analyticsTrafficCmd = &cobra.Command{
		Use:   "traffic <domain>",
		Short: "Daily traffic summary",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyticsTraffic,
	}

	analyticsPathsCmd = &cobra.Command{
		Use:   "paths <domain>",
		Short: "Top request paths over the last 24 hours",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyticsPaths,
	}

	analyticsCountriesCmd = &cobra.Command{
		Use:   "countries <domain>",
		Short: "Requests by client country",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyticsCountries,
	}

	analyticsStatusCmd = &cobra.Command{
		Use:   "status <domain>",
		Short: "Requests by response status code",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyticsStatus,
	}
)

func init() {
	for _, c := range []*cobra.Command{analyticsTrafficCmd, analyticsCountriesCmd, analyticsStatusCmd} {
		c.Flags().IntVar(&analyticsDays, "days", 7, "Number of days to cover")
	}
	analyticsPathsCmd.Flags().IntVar(&analyticsPathsLimit, "limit", 20, "Maximum number of entries")
	analyticsCountriesCmd.Flags().IntVar(&analyticsCountriesLimit, "limit", 15, "Maximum number of entries")

	analyticsCmd.AddCommand(analyticsTrafficCmd)
	analyticsCmd.AddCommand(analyticsPathsCmd)
	analyticsCmd.AddCommand(analyticsCountriesCmd)
	analyticsCmd.AddCommand(analyticsStatusCmd)
}

func runAnalyticsTraffic(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.analytics.traffic")
	defer span.End()
	span.SetAttributes(
		attribute.String("zone.name", args[0]),
		attribute.Int("analytics.days", analyticsDays),
	)

	zone, err := resolveZone(cmd, args[0])
	if err != nil {
		span.RecordError(err)
		return err
	}

	summary, err := api.TrafficSummary(ctx, zone.ID, analyticsDays)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to query traffic summary", "error", err, "zone_id", zone.ID)
		return err
	}

	if handled, err := emit(summary); handled {
		return err
	}
	rows := [][]string{{"DATE", "REQUESTS", "PAGE VIEWS", "UNIQUES", "BANDWIDTH", "THREATS"}}
	for _, d := range summary.Days {
		rows = append(rows, []string{
			d.Date,
			fmt.Sprintf("%d", d.Requests),
			fmt.Sprintf("%d", d.PageViews),
			fmt.Sprintf("%d", d.Uniques),
			formatBytes(d.Bytes),
			fmt.Sprintf("%d", d.Threats),
		})
	}
	table(rows)
	fmt.Printf("\nTotal: %d requests, %s bandwidth, %.1f%% cached\n",
		summary.Requests, formatBytes(summary.Bytes), summary.CacheRate())
	return nil
}

func runAnalyticsPaths(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.analytics.paths")
	defer span.End()
	span.SetAttributes(attribute.String("zone.name", args[0]))

	zone, err := resolveZone(cmd, args[0])
	if err != nil {
		span.RecordError(err)
		return err
	}

	paths, err := api.TopPaths(ctx, zone.ID, analyticsPathsLimit)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to query top paths", "error", err, "zone_id", zone.ID)
		return err
	}

	if handled, err := emit(paths); handled {
		return err
	}
	rows := [][]string{{"PATH", "REQUESTS", "BANDWIDTH"}}
	for _, p := range paths {
		rows = append(rows, []string{p.Path, fmt.Sprintf("%d", p.Requests), formatBytes(p.Bytes)})
	}
	table(rows)
	return nil
}

func runAnalyticsCountries(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.analytics.countries")
	defer span.End()
	span.SetAttributes(
		attribute.String("zone.name", args[0]),
		attribute.Int("analytics.days", analyticsDays),
	)

	zone, err := resolveZone(cmd, args[0])
	if err != nil {
		span.RecordError(err)
		return err
	}

	countries, err := api.CountryBreakdown(ctx, zone.ID, analyticsDays, analyticsCountriesLimit)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to query country breakdown", "error", err, "zone_id", zone.ID)
		return err
	}

	if handled, err := emit(countries); handled {
		return err
	}
	rows := [][]string{{"COUNTRY", "REQUESTS", "BANDWIDTH"}}
	for _, c := range countries {
		rows = append(rows, []string{c.Country, fmt.Sprintf("%d", c.Requests), formatBytes(c.Bytes)})
	}
	table(rows)
	return nil
}

func runAnalyticsStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.analytics.status")
	defer span.End()
	span.SetAttributes(
		attribute.String("zone.name", args[0]),
		attribute.Int("analytics.days", analyticsDays),
	)

	zone, err := resolveZone(cmd, args[0])
	if err != nil {
		span.RecordError(err)
		return err
	}

	statuses, err := api.StatusCodeBreakdown(ctx, zone.ID, analyticsDays)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to query status breakdown", "error", err, "zone_id", zone.ID)
		return err
	}

	if handled, err := emit(statuses); handled {
		return err
	}
	rows := [][]string{{"STATUS", "REQUESTS"}}
	for _, s := range statuses {
		rows = append(rows, []string{fmt.Sprintf("%d", s.Status), fmt.Sprintf("%d", s.Requests)})
	}
	table(rows)
	return nil
}
