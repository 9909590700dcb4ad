package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/clippa-dev/cfctl/pkg/cfapi"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify that the configured credentials are accepted",
	Long: `Verify calls the token verification endpoint with the configured
credentials and reports whether they are accepted.`,
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.verify")
	defer span.End()

	status, err := api.VerifyToken(ctx)
	if err != nil {
		span.RecordError(err)
		slog.Error("Token verification failed", "error", err)
		return err
	}

	slog.Info("Token verified", "token_id", status.ID, "status", status.Status)

	if handled, err := emit(status); handled {
		return err
	}
	fmt.Printf("Token %s is %s\n", status.ID, status.Status)
	if accountID := api.AccountID(); accountID != "" {
		fmt.Printf("Account: %s\n", accountID)
	} else {
		fmt.Printf("Account: not set (%s)\n", cfapi.EnvAccountID)
	}
	return nil
}
