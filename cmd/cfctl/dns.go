package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clippa-dev/cfctl/pkg/cfapi"
)

var (
	dnsRecordType string
	dnsRecordName string
	dnsContent    string
	dnsTTL        int
	dnsProxied    bool
	dnsPriority   int

	dnsCmd = &cobra.Command{
		Use:   "dns",
		Short: "Manage DNS records",
		Long:  `List, create, update and delete DNS records of a zone.`,
	}

	dnsListCmd = &cobra.Command{
		Use:   "list <domain>",
		Short: "List DNS records of a zone",
		Args:  cobra.ExactArgs(1),
		RunE:  runDNSList,
	}

	dnsCreateCmd = &cobra.Command{
		Use:   "create <domain>",
		Short: "Create a DNS record",
		Args:  cobra.ExactArgs(1),
		RunE:  runDNSCreate,
	}

	dnsUpdateCmd = &cobra.Command{
		Use:   "update <domain> <record-id>",
		Short: "Update a DNS record",
		Args:  cobra.ExactArgs(2),
		RunE:  runDNSUpdate,
	}

	dnsDeleteCmd = &cobra.Command{
		Use:   "delete <domain> <record-id>",
		Short: "Delete a DNS record",
		Args:  cobra.ExactArgs(2),
		RunE:  runDNSDelete,
	}
)

func init() {
	for _, c := range []*cobra.Command{dnsCreateCmd, dnsUpdateCmd} {
		c.Flags().StringVar(&dnsRecordType, "type", "A", "Record type (A, AAAA, CNAME, TXT, MX, ...)")
		c.Flags().StringVar(&dnsRecordName, "name", "", "Record name, @ for the zone apex (required)")
		c.Flags().StringVar(&dnsContent, "content", "", "Record content (required)")
		c.Flags().IntVar(&dnsTTL, "ttl", 1, "TTL in seconds, 1 for automatic")
		c.Flags().BoolVar(&dnsProxied, "proxied", false, "Proxy traffic through Cloudflare")
		c.Flags().IntVar(&dnsPriority, "priority", -1, "Priority for MX and SRV records")
		// Panic is appropriate in init() since we cannot return errors and this indicates a programming error
		if err := c.MarkFlagRequired("name"); err != nil {
			panic(err)
		}
		if err := c.MarkFlagRequired("content"); err != nil {
			panic(err)
		}
	}

	dnsCmd.AddCommand(dnsListCmd)
	dnsCmd.AddCommand(dnsCreateCmd)
	dnsCmd.AddCommand(dnsUpdateCmd)
	dnsCmd.AddCommand(dnsDeleteCmd)
}

func dnsParams() cfapi.DNSRecordParams {
	params := cfapi.DNSRecordParams{
		Type:    dnsRecordType,
		Name:    dnsRecordName,
		Content: dnsContent,
		TTL:     dnsTTL,
		Proxied: dnsProxied,
	}
	if dnsPriority >= 0 {
		priority := dnsPriority
		params.Priority = &priority
	}
	return params
}

func runDNSList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.dns.list")
	defer span.End()
	span.SetAttributes(attribute.String("zone.name", args[0]))

	zone, err := resolveZone(cmd, args[0])
	if err != nil {
		span.RecordError(err)
		return err
	}

	records, err := api.ListDNSRecords(ctx, zone.ID)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to list DNS records", "error", err, "zone_id", zone.ID)
		return err
	}

	if handled, err := emit(records); handled {
		return err
	}
	rows := [][]string{{"ID", "TYPE", "NAME", "CONTENT", "TTL", "PROXIED"}}
	for _, r := range records {
		ttl := fmt.Sprintf("%d", r.TTL)
		if r.TTL == 1 {
			ttl = "auto"
		}
		rows = append(rows, []string{r.ID, r.Type, r.Name, r.Content, ttl, boolMark(r.Proxied)})
	}
	table(rows)
	return nil
}

func runDNSCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.dns.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("zone.name", args[0]),
		attribute.String("record.type", dnsRecordType),
		attribute.String("record.name", dnsRecordName),
	)

	zone, err := resolveZone(cmd, args[0])
	if err != nil {
		span.RecordError(err)
		return err
	}

	record, err := api.CreateDNSRecord(ctx, zone.ID, dnsParams())
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to create DNS record", "error", err, "zone_id", zone.ID, "name", dnsRecordName)
		return err
	}

	slog.Info("DNS record created", "record_id", record.ID, "type", record.Type, "name", record.Name)
	fmt.Printf("Created %s record %s -> %s (%s)\n", record.Type, record.Name, record.Content, record.ID)
	return nil
}

func runDNSUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.dns.update")
	defer span.End()
	span.SetAttributes(
		attribute.String("zone.name", args[0]),
		attribute.String("record.id", args[1]),
	)

	zone, err := resolveZone(cmd, args[0])
	if err != nil {
		span.RecordError(err)
		return err
	}

	record, err := api.UpdateDNSRecord(ctx, zone.ID, args[1], dnsParams())
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to update DNS record", "error", err, "zone_id", zone.ID, "record_id", args[1])
		return err
	}

	slog.Info("DNS record updated", "record_id", record.ID, "type", record.Type, "name", record.Name)
	fmt.Printf("Updated %s record %s -> %s\n", record.Type, record.Name, record.Content)
	return nil
}

func runDNSDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.dns.delete")
	defer span.End()
	span.SetAttributes(
		attribute.String("zone.name", args[0]),
		attribute.String("record.id", args[1]),
	)

	zone, err := resolveZone(cmd, args[0])
	if err != nil {
		span.RecordError(err)
		return err
	}

	if err := api.DeleteDNSRecord(ctx, zone.ID, args[1]); err != nil {
		span.RecordError(err)
		slog.Error("Failed to delete DNS record", "error", err, "zone_id", zone.ID, "record_id", args[1])
		return err
	}

	slog.Info("DNS record deleted", "record_id", args[1], "zone_id", zone.ID)
	fmt.Printf("Deleted record %s\n", args[1])
	return nil
}
