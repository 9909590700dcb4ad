package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var (
	r2Location      string
	r2ObjectsPrefix string
	r2ObjectsCursor string
	r2ObjectsLimit  int

	r2Cmd = &cobra.Command{
		Use:   "r2",
		Short: "Manage R2 buckets",
		Long:  `List, create and delete R2 object storage buckets, and list their objects.`,
	}

	r2ListCmd = &cobra.Command{
		Use:   "list",
		Short: "List R2 buckets",
		RunE:  runR2List,
	}

	r2CreateCmd = &cobra.Command{
		Use:   "create <bucket>",
		Short: "Create an R2 bucket",
		Args:  cobra.ExactArgs(1),
		RunE:  runR2Create,
	}

	r2GetCmd = &cobra.Command{
		Use:   "get <bucket>",
		Short: "Show details for a bucket",
		Args:  cobra.ExactArgs(1),
		RunE:  runR2Get,
	}

	r2DeleteCmd = &cobra.Command{
		Use:   "delete <bucket>",
		Short: "Delete an R2 bucket",
		Args:  cobra.ExactArgs(1),
		RunE:  runR2Delete,
	}

	r2ObjectsCmd = &cobra.Command{
		Use:   "objects <bucket>",
		Short: "List objects in a bucket",
		Args:  cobra.ExactArgs(1),
		RunE:  runR2Objects,
	}
)

func init() {
	r2CreateCmd.Flags().StringVar(&r2Location, "location", "", "Location hint: wnam, enam, weur, eeur or apac")
	r2ObjectsCmd.Flags().StringVar(&r2ObjectsPrefix, "prefix", "", "Only list keys with this prefix")
	r2ObjectsCmd.Flags().StringVar(&r2ObjectsCursor, "cursor", "", "Continuation cursor from a previous listing")
	r2ObjectsCmd.Flags().IntVar(&r2ObjectsLimit, "limit", 0, "Maximum number of objects to return")

	r2Cmd.AddCommand(r2ListCmd)
	r2Cmd.AddCommand(r2CreateCmd)
	r2Cmd.AddCommand(r2GetCmd)
	r2Cmd.AddCommand(r2DeleteCmd)
	r2Cmd.AddCommand(r2ObjectsCmd)
}

func runR2List(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.r2.list")
	defer span.End()

	buckets, err := api.ListR2Buckets(ctx)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to list R2 buckets", "error", err)
		return err
	}

	if handled, err := emit(buckets); handled {
		return err
	}
	rows := [][]string{{"NAME", "LOCATION", "CREATED"}}
	for _, b := range buckets {
		rows = append(rows, []string{b.Name, b.Location, b.CreationDate})
	}
	table(rows)
	return nil
}

func runR2Create(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.r2.create")
	defer span.End()
	span.SetAttributes(attribute.String("r2.bucket", args[0]))

	if err := api.CreateR2Bucket(ctx, args[0], r2Location); err != nil {
		span.RecordError(err)
		slog.Error("Failed to create R2 bucket", "error", err, "bucket", args[0])
		return err
	}

	slog.Info("R2 bucket created", "bucket", args[0], "location", r2Location)
	fmt.Printf("Created bucket %s\n", args[0])
	return nil
}

func runR2Get(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.r2.get")
	defer span.End()
	span.SetAttributes(attribute.String("r2.bucket", args[0]))

	bucket, err := api.GetR2Bucket(ctx, args[0])
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to get R2 bucket", "error", err, "bucket", args[0])
		return err
	}

	if handled, err := emit(bucket); handled {
		return err
	}
	fmt.Printf("Bucket:   %s\n", bucket.Name)
	fmt.Printf("Location: %s\n", bucket.Location)
	fmt.Printf("Created:  %s\n", bucket.CreationDate)
	return nil
}

func runR2Delete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.r2.delete")
	defer span.End()
	span.SetAttributes(attribute.String("r2.bucket", args[0]))

	if err := api.DeleteR2Bucket(ctx, args[0]); err != nil {
		span.RecordError(err)
		slog.Error("Failed to delete R2 bucket", "error", err, "bucket", args[0])
		return err
	}

	slog.Info("R2 bucket deleted", "bucket", args[0])
	fmt.Printf("Deleted bucket %s\n", args[0])
	return nil
}

func runR2Objects(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.r2.objects")
	defer span.End()
	span.SetAttributes(attribute.String("r2.bucket", args[0]))

	objects, err := api.ListR2Objects(ctx, args[0], r2ObjectsPrefix, r2ObjectsCursor, r2ObjectsLimit)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to list R2 objects", "error", err, "bucket", args[0])
		return err
	}

	if handled, err := emit(objects); handled {
		return err
	}
	rows := [][]string{{"KEY", "SIZE", "MODIFIED"}}
	for _, o := range objects {
		rows = append(rows, []string{o.Key, formatBytes(o.Size), o.LastModified})
	}
	table(rows)
	return nil
}
