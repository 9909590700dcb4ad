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
	emailRuleName string

	emailCmd = &cobra.Command{
		Use:   "email",
		Short: "Manage email routing",
		Long: `Enable email routing on a zone, manage destination addresses and
forwarding rules, and configure the catch-all behavior.`,
	}

	emailSettingsCmd = &cobra.Command{
		Use:   "settings <domain>",
		Short: "Show email routing settings for a zone",
		Args:  cobra.ExactArgs(1),
		RunE:  runEmailSettings,
	}

	emailEnableCmd = &cobra.Command{
		Use:   "enable <domain>",
		Short: "Enable email routing on a zone",
		Args:  cobra.ExactArgs(1),
		RunE:  runEmailEnable,
	}

	emailDisableCmd = &cobra.Command{
		Use:   "disable <domain>",
		Short: "Disable email routing on a zone",
		Args:  cobra.ExactArgs(1),
		RunE:  runEmailDisable,
	}

	emailAddressesCmd = &cobra.Command{
		Use:   "addresses",
		Short: "List destination addresses",
		RunE:  runEmailAddresses,
	}

	emailAddressCmd = &cobra.Command{
		Use:   "address",
		Short: "Add or remove a destination address",
	}

	emailAddressAddCmd = &cobra.Command{
		Use:   "add <email>",
		Short: "Add a destination address (sends a verification email)",
		Args:  cobra.ExactArgs(1),
		RunE:  runEmailAddressAdd,
	}

	emailAddressDeleteCmd = &cobra.Command{
		Use:   "delete <address-id>",
		Short: "Remove a destination address",
		Args:  cobra.ExactArgs(1),
		RunE:  runEmailAddressDelete,
	}

	emailRulesCmd = &cobra.Command{
		Use:   "rules <domain>",
		Short: "List forwarding rules of a zone",
		Args:  cobra.ExactArgs(1),
		RunE:  runEmailRules,
	}

	emailRuleCmd = &cobra.Command{
		Use:   "rule",
		Short: "Add or remove a forwarding rule",
	}

	emailRuleAddCmd = &cobra.Command{
		Use:   "add <domain> <from> <to>",
		Short: "Forward mail for an address to a destination",
		Long: `Add a forwarding rule. <from> may be a bare local part (it is expanded
to an address under the zone) or a full address; the local part always applies
to the zone. <to> must be a verified destination address.`,
		Args: cobra.ExactArgs(3),
		RunE: runEmailRuleAdd,
	}

	emailRuleDeleteCmd = &cobra.Command{
		Use:   "delete <domain> <rule-id>",
		Short: "Remove a forwarding rule",
		Args:  cobra.ExactArgs(2),
		RunE:  runEmailRuleDelete,
	}

	emailCatchallCmd = &cobra.Command{
		Use:   "catchall <domain> [destination]",
		Short: "Show or set the catch-all rule",
		Long: `Without a destination, show the current catch-all rule. With a
destination address, forward unmatched mail there. Use --drop to discard
unmatched mail instead.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runEmailCatchall,
	}

	emailCatchallDrop bool
)

func init() {
	emailRuleAddCmd.Flags().StringVar(&emailRuleName, "name", "", "Rule name (defaults to a description of the forward)")
	emailCatchallCmd.Flags().BoolVar(&emailCatchallDrop, "drop", false, "Discard unmatched mail")

	emailAddressCmd.AddCommand(emailAddressAddCmd)
	emailAddressCmd.AddCommand(emailAddressDeleteCmd)
	emailRuleCmd.AddCommand(emailRuleAddCmd)
	emailRuleCmd.AddCommand(emailRuleDeleteCmd)

	emailCmd.AddCommand(emailSettingsCmd)
	emailCmd.AddCommand(emailEnableCmd)
	emailCmd.AddCommand(emailDisableCmd)
	emailCmd.AddCommand(emailAddressesCmd)
	emailCmd.AddCommand(emailAddressCmd)
	emailCmd.AddCommand(emailRulesCmd)
	emailCmd.AddCommand(emailRuleCmd)
	emailCmd.AddCommand(emailCatchallCmd)
}

func runEmailSettings(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.email.settings")
	defer span.End()
	span.SetAttributes(attribute.String("zone.name", args[0]))

	zone, err := resolveZone(cmd, args[0])
	if err != nil {
		span.RecordError(err)
		return err
	}

	settings, err := api.GetEmailRouting(ctx, zone.ID)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to get email routing settings", "error", err, "zone_id", zone.ID)
		return err
	}

	if handled, err := emit(settings); handled {
		return err
	}
	fmt.Printf("Zone:    %s\n", settings.Name)
	fmt.Printf("Enabled: %s\n", boolMark(settings.Enabled))
	fmt.Printf("Status:  %s\n", settings.Status)
	return nil
}

func runEmailEnable(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.email.enable")
	defer span.End()
	span.SetAttributes(attribute.String("zone.name", args[0]))

	zone, err := resolveZone(cmd, args[0])
	if err != nil {
		span.RecordError(err)
		return err
	}

	if err := api.EnableEmailRouting(ctx, zone.ID); err != nil {
		span.RecordError(err)
		slog.Error("Failed to enable email routing", "error", err, "zone_id", zone.ID)
		return err
	}

	slog.Info("Email routing enabled", "zone", args[0])
	fmt.Printf("Email routing enabled for %s\n", args[0])
	return nil
}

func runEmailDisable(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.email.disable")
	defer span.End()
	span.SetAttributes(attribute.String("zone.name", args[0]))

	zone, err := resolveZone(cmd, args[0])
	if err != nil {
		span.RecordError(err)
		return err
	}

	if err := api.DisableEmailRouting(ctx, zone.ID); err != nil {
		span.RecordError(err)
		slog.Error("Failed to disable email routing", "error", err, "zone_id", zone.ID)
		return err
	}

	slog.Info("Email routing disabled", "zone", args[0])
	fmt.Printf("Email routing disabled for %s\n", args[0])
	return nil
}

func runEmailAddresses(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.email.addresses")
	defer span.End()

	addresses, err := api.ListEmailAddresses(ctx)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to list destination addresses", "error", err)
		return err
	}

	if handled, err := emit(addresses); handled {
		return err
	}
	rows := [][]string{{"ID", "EMAIL", "VERIFIED"}}
	for _, a := range addresses {
		verified := "pending"
		if a.Verified != "" {
			verified = a.Verified
		}
		rows = append(rows, []string{a.ID, a.Email, verified})
	}
	table(rows)
	return nil
}

func runEmailAddressAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.email.address.add")
	defer span.End()

	address, err := api.AddEmailAddress(ctx, args[0])
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to add destination address", "error", err, "email", args[0])
		return err
	}

	slog.Info("Destination address added", "email", address.Email, "address_id", address.ID)
	fmt.Printf("Added %s (%s)\n", address.Email, address.ID)
	fmt.Println("A verification email has been sent; the address becomes usable once verified.")
	return nil
}

func runEmailAddressDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.email.address.delete")
	defer span.End()

	if err := api.DeleteEmailAddress(ctx, args[0]); err != nil {
		span.RecordError(err)
		slog.Error("Failed to delete destination address", "error", err, "address_id", args[0])
		return err
	}

	slog.Info("Destination address deleted", "address_id", args[0])
	fmt.Printf("Deleted address %s\n", args[0])
	return nil
}

func emailRuleSummary(rule cfapi.EmailRule) (from, to string) {
	for _, m := range rule.Matchers {
		if m.Type == "all" {
			from = "(catch-all)"
		} else if m.Value != "" {
			from = m.Value
		}
	}
	for _, a := range rule.Actions {
		switch a.Type {
		case "forward":
			to = strings.Join(a.Value, ",")
		case "drop":
			to = "(drop)"
		}
	}
	return from, to
}

func runEmailRules(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.email.rules")
	defer span.End()
	span.SetAttributes(attribute.String("zone.name", args[0]))

	zone, err := resolveZone(cmd, args[0])
	if err != nil {
		span.RecordError(err)
		return err
	}

	rules, err := api.ListEmailRules(ctx, zone.ID)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to list email rules", "error", err, "zone_id", zone.ID)
		return err
	}

	if handled, err := emit(rules); handled {
		return err
	}
	rows := [][]string{{"ID", "FROM", "TO", "ENABLED"}}
	for _, r := range rules {
		from, to := emailRuleSummary(r)
		rows = append(rows, []string{r.ID, from, to, boolMark(r.Enabled)})
	}
	table(rows)
	return nil
}

func runEmailRuleAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.email.rule.add")
	defer span.End()
	span.SetAttributes(attribute.String("zone.name", args[0]))

	zone, err := resolveZone(cmd, args[0])
	if err != nil {
		span.RecordError(err)
		return err
	}

	rule, err := api.AddEmailRule(ctx, zone.ID, zone.Name, args[1], args[2], emailRuleName)
	if err != nil {
		span.RecordError(err)
		slog.Error("Failed to add email rule", "error", err, "zone_id", zone.ID, "from", args[1])
		return err
	}

	from, to := emailRuleSummary(*rule)
	slog.Info("Email rule added", "rule_id", rule.ID, "from", from, "to", to)
	fmt.Printf("Forwarding %s -> %s (%s)\n", from, to, rule.ID)
	return nil
}

func runEmailRuleDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.email.rule.delete")
	defer span.End()
	span.SetAttributes(attribute.String("zone.name", args[0]))

	zone, err := resolveZone(cmd, args[0])
	if err != nil {
		span.RecordError(err)
		return err
	}

	if err := api.DeleteEmailRule(ctx, zone.ID, args[1]); err != nil {
		span.RecordError(err)
		slog.Error("Failed to delete email rule", "error", err, "zone_id", zone.ID, "rule_id", args[1])
		return err
	}

	slog.Info("Email rule deleted", "rule_id", args[1], "zone_id", zone.ID)
	fmt.Printf("Deleted rule %s\n", args[1])
	return nil
}

func runEmailCatchall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tracer := otel.Tracer("cfctl")
	ctx, span := tracer.Start(ctx, "cmd.email.catchall")
	defer span.End()
	span.SetAttributes(attribute.String("zone.name", args[0]))

	zone, err := resolveZone(cmd, args[0])
	if err != nil {
		span.RecordError(err)
		return err
	}

	// Show the current rule when neither a destination nor --drop was given
	if len(args) == 1 && !emailCatchallDrop {
		rule, err := api.GetCatchAll(ctx, zone.ID)
		if err != nil {
			span.RecordError(err)
			slog.Error("Failed to get catch-all rule", "error", err, "zone_id", zone.ID)
			return err
		}
		if handled, err := emit(rule); handled {
			return err
		}
		_, to := emailRuleSummary(*rule)
		fmt.Printf("Catch-all: %s (enabled: %s)\n", to, boolMark(rule.Enabled))
		return nil
	}

	forwardTo := ""
	if len(args) == 2 {
		forwardTo = args[1]
	}
	if err := api.SetCatchAll(ctx, zone.ID, forwardTo); err != nil {
		span.RecordError(err)
		slog.Error("Failed to set catch-all rule", "error", err, "zone_id", zone.ID)
		return err
	}

	if forwardTo == "" {
		slog.Info("Catch-all set to drop", "zone", args[0])
		fmt.Printf("Unmatched mail for %s is now discarded\n", args[0])
	} else {
		slog.Info("Catch-all forward set", "zone", args[0], "to", forwardTo)
		fmt.Printf("Unmatched mail for %s now forwards to %s\n", args[0], forwardTo)
	}
	return nil
}
