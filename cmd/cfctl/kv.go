package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var (
	kvKeysPrefix string
	kvPutTTL     int
	kvPutFile    string

	kvCmd = &cobra.Command{
		Use:   "kv",
		Short: "Manage Workers KV storage",
		Long: `List KV namespaces and keys, and read, write and delete values.

KV commands prefer the legacy API key pair when one is configured, since most
scoped tokens are not granted Workers KV Storage.`,
	}

	kvNamespacesCmd = &cobra.Command{
		Use:   "namespaces",
		Short: "List KV namespaces",
		RunE:  runKVNamespaces,
	}

	kvKeysCmd = &cobra.Command{
		Use:   "keys <namespace-id>",
		Short: "List keys in a namespace",
		Args:  cobra.ExactArgs(1),
		RunE:  runKVKeys,
	}

	kvGetCmd = &cobra.Command{
		Use:   "get <namespace-id> <key>",
		Short: "Read a value",
		Args:  cobra.ExactArgs(2),
		RunE:  runKVGet,
	}

	kvPutCmd = &cobra.Command{
		Use:   "put <namespace-id> <key> [value]",
		Short: "Write a value",
		Args:  cobra.RangeArgs(2, 3),
		RunE:  runKVPut,
	}

	kvDeleteCmd = &cobra.Command{
		Use:   "delete <namespace-id> <key>",
		Short: "Delete a key",
		Args:  cobra.ExactArgs(2),
		RunE:  runKVDelete,
	}
)

func init() {
	kvKeysCmd.Flags().StringVar(&kvKeysPrefix, "prefix", "", "Only list keys with this prefix")
	kvPutCmd.Flags().IntVar(&kvPutTTL, "ttl", 0, "Expiration TTL in seconds, 0 for no expiration")
	kvPutCmd.Flags().StringVar(&kvPutFile, "file", "", "Read the value from a file instead of the argument")

	kvCmd.AddCommand(kvNamespacesCmd)
	kvCmd.AddCommand(kvKeysCmd)
	kvCmd.AddCommand(kvGetCmd)
	kvCmd.AddCommand(kvPutCmd)
	kvCmd.AddCommand(kvDeleteCmd)
}

func runKVNamespaces(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.kv.namespaces")
	defer span.End()

	namespaces, err := api.ListKVNamespaces(ctx)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to list KV namespaces", "error", err)
		return err
	}

	if handled, err := emit(namespaces); handled {
		return err
	}
	rows := [][]string{{"ID", "TITLE"}}
	for _, ns := range namespaces {
		rows = append(rows, []string{ns.ID, ns.Title})
	}
	table(rows)
	return nil
}

func runKVKeys(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.kv.keys")
	defer span.End()
	span.SetAttributes(attribute.String("kv.namespace", args[0]))

	keys, err := api.ListKVKeys(ctx, args[0], kvKeysPrefix)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to list KV keys", "error", err, "namespace", args[0])
		return err
	}

	if handled, err := emit(keys); handled {
		return err
	}
	rows := [][]string{{"NAME", "EXPIRES"}}
	for _, k := range keys {
		expires := "-"
		if k.Expiration > 0 {
			expires = time.Unix(k.Expiration, 0).UTC().Format(time.RFC3339)
		}
		rows = append(rows, []string{k.Name, expires})
	}
	table(rows)
	return nil
}

func runKVGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.kv.get")
	defer span.End()
	span.SetAttributes(
		attribute.String("kv.namespace", args[0]),
		attribute.String("kv.key", args[1]),
	)

	value, err := api.ReadKVValue(ctx, args[0], args[1])
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to read KV value", "error", err, "namespace", args[0], "key", args[1])
		return err
	}

	// Values are opaque bytes; write them unmodified
	os.Stdout.Write(value)
	return nil
}

func runKVPut(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.kv.put")
	defer span.End()
	span.SetAttributes(
		attribute.String("kv.namespace", args[0]),
		attribute.String("kv.key", args[1]),
	)

	var value []byte
	switch {
	case kvPutFile != "":
		data, err := os.ReadFile(kvPutFile)
		if err != nil {
			return fmt.Errorf("failed to read value file: %w", err)
		}
		value = data
	case len(args) == 3:
		value = []byte(args[2])
	default:
		return fmt.Errorf("provide a value argument or --file")
	}

	if err := api.WriteKVValue(ctx, args[0], args[1], value, kvPutTTL); err != nil {
		span.RecordError(err)
		slog.Error("Failed to write KV value", "error", err, "namespace", args[0], "key", args[1])
		return err
	}

	slog.Info("KV value written", "namespace", args[0], "key", args[1], "bytes", len(value))
	fmt.Printf("Wrote %s (%d bytes)\n", args[1], len(value))
	return nil
}

func runKVDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.kv.delete")
	defer span.End()
	span.SetAttributes(
		attribute.String("kv.namespace", args[0]),
		attribute.String("kv.key", args[1]),
	)

	if err := api.DeleteKVKey(ctx, args[0], args[1]); err != nil {
		span.RecordError(err)
		slog.Error("Failed to delete KV key", "error", err, "namespace", args[0], "key", args[1])
		return err
	}

	slog.Info("KV key deleted", "namespace", args[0], "key", args[1])
	fmt.Printf("Deleted %s\n", args[1])
	return nil
}
