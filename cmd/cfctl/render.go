package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/goccy/go-yaml"

	"github.com/clippa-dev/cfctl/pkg/cfapi"
)

const tokenDashboardURL = "https://dash.cloudflare.com/profile/api-tokens"

// emit renders v as JSON or YAML when --output asks for it. Returns true when
// it handled the output, false when the caller should print its table.
func emit(v any) (bool, error) {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return true, fmt.Errorf("failed to encode output: %w", err)
		}
		return true, nil
	case "yaml":
		out, err := yaml.Marshal(v)
		if err != nil {
			return true, fmt.Errorf("failed to encode output: %w", err)
		}
		fmt.Print(string(out))
		return true, nil
	default:
		return false, nil
	}
}

// table prints rows with aligned columns. The first row is the header.
func table(rows [][]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
}

// renderError prints remediation guidance for classified errors before the
// command exits non-zero. Unclassified errors are left to the structured log.
func renderError(err error) {
	var confErr *cfapi.ConfigurationError
	if errors.As(err, &confErr) {
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, color.RedString("  Missing configuration"))
		fmt.Fprintln(os.Stderr)
		for _, name := range confErr.Missing {
			fmt.Fprintf(os.Stderr, "  Set %s in the environment or a .env file.\n", name)
		}
		if confErr.Hint != "" {
			fmt.Fprintf(os.Stderr, "  %s\n", confErr.Hint)
		}
		fmt.Fprintf(os.Stderr, "\n  Get a token at: %s\n\n", tokenDashboardURL)
		return
	}

	var apiErr *cfapi.APIError
	if !errors.As(err, &apiErr) {
		return
	}

	switch apiErr.Kind {
	case cfapi.KindMissingPermission:
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, color.RedString("  API token permission error"))
		fmt.Fprintln(os.Stderr)
		if feature := cfapi.FeatureForEndpoint(apiErr.Endpoint); feature != "" {
			fmt.Fprintf(os.Stderr, "  Feature:  %s\n", feature)
		}
		if apiErr.Permission != "" {
			fmt.Fprintf(os.Stderr, "  Required: %s\n", apiErr.Permission)
		}
		fmt.Fprintf(os.Stderr, "\n  Fix: edit your token at %s,\n", tokenDashboardURL)
		fmt.Fprintln(os.Stderr, "  add the required permission under 'Permissions', and save.")
		fmt.Fprintln(os.Stderr)
	case cfapi.KindInvalidAuth:
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, color.RedString("  API token not found or invalid"))
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "  Check that CLOUDFLARE_API_TOKEN is set correctly.")
		fmt.Fprintf(os.Stderr, "  Get a token at: %s\n\n", tokenDashboardURL)
	case cfapi.KindNotFound:
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, color.YellowString("  Resource not found"))
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "  The zone or resource does not exist, or your credentials")
		fmt.Fprintln(os.Stderr, "  do not have access to it.")
		fmt.Fprintln(os.Stderr)
	default:
		fmt.Fprintln(os.Stderr)
		fmt.Fprintf(os.Stderr, "%s %s\n\n", color.RedString("  API error:"), apiErr.Message())
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

func boolMark(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
