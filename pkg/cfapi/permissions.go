package cfapi

import (
	"regexp"
	"strings"
)

// The vendor does not return the missing permission as a structured field, so
// we pull it out of the human message where possible and fall back to a table
// of known endpoints. Both live in this file so a message-format change only
// touches here, not the classification logic.

// authorizationPattern distinguishes "you lack a scope" messages from "your
// credentials are wrong" messages on 401/403 responses.
var authorizationPattern = regexp.MustCompile(`(?i)unauthorized to access|not authorized|not entitled|lacks? (?:the )?(?:required )?permission|requires? (?:the )?.+ permission`)

// permissionFromMessage extracts an explicit permission name from a vendor
// message, e.g. `requires the "Zone > DNS > Edit" permission`.
var permissionFromMessage = regexp.MustCompile(`(?i)requires? (?:the )?["']([^"']+)["'] permission`)

func matchesAuthorization(message string) bool {
	return authorizationPattern.MatchString(message)
}

// permissionHint maps an endpoint path fragment to the token permission that
// gates it. Order matters: more specific fragments first.
type permissionHint struct {
	fragment   string
	feature    string
	permission string
}

var permissionHints = []permissionHint{
	{"email/routing/rules", "Email Routing Rules", "Zone > Email Routing Rules > Edit"},
	{"email/routing/addresses", "Email Routing Addresses", "Account > Email Routing Addresses > Edit"},
	{"email/routing/enable", "Email Routing Settings", "Zone > Email Routing Rules > Edit"},
	{"email/routing", "Email Routing", "Zone > Email Routing Rules > Read"},
	{"dns_records", "DNS Records", "Zone > DNS > Edit"},
	{"pages/projects", "Cloudflare Pages", "Account > Cloudflare Pages > Edit"},
	{"workers/scripts", "Workers", "Account > Worker Scripts > Edit"},
	{"r2/buckets", "R2 Storage", "Account > R2 Storage > Edit"},
	{"storage/kv", "Workers KV Storage", "Account > Workers KV Storage > Edit"},
	{"pagerules", "Page Rules", "Zone > Page Rules > Edit"},
	{"zones", "Zones", "Zone > Zone > Read"},
}

// requiredPermission determines the permission string to surface on a
// missing-permission error: the one named in the vendor message when present,
// otherwise the table entry for the endpoint, otherwise empty.
func requiredPermission(endpoint, message string) string {
	if m := permissionFromMessage.FindStringSubmatch(message); m != nil {
		return m[1]
	}
	for _, hint := range permissionHints {
		if strings.Contains(endpoint, hint.fragment) {
			return hint.permission
		}
	}
	return ""
}

// FeatureForEndpoint names the product area gated by an endpoint, for
// user-facing guidance. Empty when unknown.
func FeatureForEndpoint(endpoint string) string {
	for _, hint := range permissionHints {
		if strings.Contains(endpoint, hint.fragment) {
			return hint.feature
		}
	}
	return ""
}
