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
	zonesCreateType string

	zonesCmd = &cobra.Command{
		Use:   "zones",
		Short: "Manage zones",
		Long:  `List, inspect, create and delete zones (domains) in the account.`,
	}

	zonesListCmd = &cobra.Command{
		Use:   "list",
		Short: "List all zones",
		RunE:  runZonesList,
	}

	zonesGetCmd = &cobra.Command{
		Use:   "get <zone-id>",
		Short: "Show details for a zone",
		Args:  cobra.ExactArgs(1),
		RunE:  runZonesGet,
	}

	zonesFindCmd = &cobra.Command{
		Use:   "find <domain>",
		Short: "Find a zone by domain name",
		Args:  cobra.ExactArgs(1),
		RunE:  runZonesFind,
	}

	zonesCreateCmd = &cobra.Command{
		Use:   "create <domain>",
		Short: "Add a domain to the account",
		Args:  cobra.ExactArgs(1),
		RunE:  runZonesCreate,
	}

	zonesDeleteCmd = &cobra.Command{
		Use:   "delete <zone-id>",
		Short: "Remove a zone from the account",
		Args:  cobra.ExactArgs(1),
		RunE:  runZonesDelete,
	}
)

func init() {
	zonesCreateCmd.Flags().StringVar(&zonesCreateType, "type", "full", "Zone type: full or partial")

	zonesCmd.AddCommand(zonesListCmd)
	zonesCmd.AddCommand(zonesGetCmd)
	zonesCmd.AddCommand(zonesFindCmd)
	zonesCmd.AddCommand(zonesCreateCmd)
	zonesCmd.AddCommand(zonesDeleteCmd)
}

// resolveZone turns a domain name into its zone. Commands that operate on a
// zone accept the domain form everywhere.
func resolveZone(cmd *cobra.Command, domain string) (*cfapi.Zone, error) {
	zone, err := api.FindZone(cmd.Context(), domain)
	if err != nil {
		slog.Error("Failed to resolve zone", "error", err, "domain", domain)
		return nil, fmt.Errorf("failed to resolve zone %q: %w", domain, err)
	}
	return zone, nil
}

func runZonesList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.zones.list")
	defer span.End()

	zones, err := api.ListZones(ctx)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to list zones", "error", err)
		return err
	}

	if handled, err := emit(zones); handled {
		return err
	}
	rows := [][]string{{"ID", "NAME", "STATUS", "TYPE"}}
	for _, z := range zones {
		rows = append(rows, []string{z.ID, z.Name, z.Status, z.Type})
	}
	table(rows)
	return nil
}

func runZonesGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.zones.get")
	defer span.End()
	span.SetAttributes(attribute.String("zone.id", args[0]))

	zone, err := api.GetZone(ctx, args[0])
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to get zone", "error", err, "zone_id", args[0])
		return err
	}

	if handled, err := emit(zone); handled {
		return err
	}
	fmt.Printf("Zone:         %s\n", zone.Name)
	fmt.Printf("ID:           %s\n", zone.ID)
	fmt.Printf("Status:       %s\n", zone.Status)
	fmt.Printf("Type:         %s\n", zone.Type)
	fmt.Printf("Paused:       %s\n", boolMark(zone.Paused))
	fmt.Printf("Name servers: %s\n", strings.Join(zone.NameServers, ", "))
	return nil
}

func runZonesFind(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.zones.find")
	defer span.End()
	span.SetAttributes(attribute.String("zone.name", args[0]))

	zone, err := api.FindZone(ctx, args[0])
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to find zone", "error", err, "domain", args[0])
		return err
	}

	if handled, err := emit(zone); handled {
		return err
	}
	fmt.Printf("%s  %s  %s\n", zone.ID, zone.Name, zone.Status)
	return nil
}

func runZonesCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.zones.create")
	defer span.End()
	span.SetAttributes(attribute.String("zone.name", args[0]))

	slog.Info("Creating zone", "domain", args[0], "type", zonesCreateType)

	zone, err := api.CreateZone(ctx, args[0], zonesCreateType)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to create zone", "error", err, "domain", args[0])
		return err
	}

	slog.Info("Zone created", "zone_id", zone.ID, "status", zone.Status)
	fmt.Printf("Created zone %s (%s)\n", zone.Name, zone.ID)
	if len(zone.NameServers) > 0 {
		fmt.Printf("Point the domain at these name servers:\n")
		for _, ns := range zone.NameServers {
			fmt.Printf("  %s\n", ns)
		}
	}
	return nil
}

func runZonesDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.zones.delete")
	defer span.End()
	span.SetAttributes(attribute.String("zone.id", args[0]))

	if err := api.DeleteZone(ctx, args[0]); err != nil {
		span.RecordError(err)
		slog.Error("Failed to delete zone", "error", err, "zone_id", args[0])
		return err
	}

	slog.Info("Zone deleted", "zone_id", args[0])
	fmt.Printf("Deleted zone %s\n", args[0])
	return nil
}
