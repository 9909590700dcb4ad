package cfapi

import (
	"fmt"
	"net/http"
	"os"
	"strings"
)

// DefaultBaseURL is the Cloudflare v4 REST API endpoint.
const DefaultBaseURL = "https://api.cloudflare.com/client/v4"

// Environment variables recognized by LoadCredentials. A .env file in the
// working directory is folded into the environment at CLI startup via godotenv,
// so these are the only configuration source the package reads.
const (
	EnvAccountID = "CLOUDFLARE_ACCOUNT_ID"
	EnvAPIToken  = "CLOUDFLARE_API_TOKEN"
	EnvAPIKey    = "CLOUDFLARE_API_KEY"
	EnvEmail     = "CLOUDFLARE_EMAIL"
	EnvBaseURL   = "CLOUDFLARE_BASE_URL"
)

// Credentials holds everything needed to authenticate against the API.
// Constructed once at process start and passed explicitly -- nothing in this
// package reads the environment after that.
type Credentials struct {
	// AccountID is required for account-scoped endpoints (Pages, Workers,
	// R2, KV, destination addresses). Zone-scoped endpoints don't need it.
	AccountID string

	// APIToken is a scoped bearer token. Preferred when set.
	APIToken string

	// APIKey and Email form the legacy full-privilege key pair. Used as a
	// fallback when the token is absent or rejected.
	APIKey string
	Email  string

	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string
}

// LoadCredentials reads credentials from the process environment.
func LoadCredentials() Credentials {
	c := Credentials{
		AccountID: os.Getenv(EnvAccountID),
		APIToken:  os.Getenv(EnvAPIToken),
		APIKey:    os.Getenv(EnvAPIKey),
		Email:     os.Getenv(EnvEmail),
		BaseURL:   os.Getenv(EnvBaseURL),
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	return c
}

// AuthScheme is one way of authenticating a single request. The two schemes
// are mutually exclusive within a request; a fallback re-issues the request
// with the other scheme rather than mixing headers.
type AuthScheme struct {
	// Name is "token" or "key". Surfaced on classified errors so callers
	// know which credentials were in effect when a failure happened.
	Name string

	headers map[string]string
}

// Apply sets the scheme's authentication headers on h.
func (s AuthScheme) Apply(h http.Header) {
	for k, v := range s.headers {
		h.Set(k, v)
	}
}

func tokenScheme(token string) AuthScheme {
	return AuthScheme{
		Name:    "token",
		headers: map[string]string{"Authorization": "Bearer " + token},
	}
}

func keyScheme(key, email string) AuthScheme {
	return AuthScheme{
		Name: "key",
		headers: map[string]string{
			"X-Auth-Key":   key,
			"X-Auth-Email": email,
		},
	}
}

// Schemes returns the configured authentication schemes in attempt order:
// token first, then key+email. With preferKey the order is reversed, which the
// KV endpoints use because the legacy key pair carries broader permissions
// than most scoped tokens. A token-only configuration never yields a key
// scheme, and vice versa.
func (c Credentials) Schemes(preferKey bool) []AuthScheme {
	var schemes []AuthScheme
	if c.APIToken != "" {
		schemes = append(schemes, tokenScheme(c.APIToken))
	}
	if c.APIKey != "" && c.Email != "" {
		schemes = append(schemes, keyScheme(c.APIKey, c.Email))
	}
	if preferKey && len(schemes) == 2 {
		schemes[0], schemes[1] = schemes[1], schemes[0]
	}
	return schemes
}

// ConfigurationError reports missing or incomplete credentials. It is produced
// before any network I/O and is never retried.
type ConfigurationError struct {
	// Missing lists the environment variables that need to be set.
	Missing []string

	// Hint is extra remediation guidance for the user.
	Hint string
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("missing configuration: set %s", strings.Join(e.Missing, ", "))
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

// checkRequest validates that the credentials can serve the given request.
// Returns a ConfigurationError before any network call when they cannot.
func (c Credentials) checkRequest(req Request) error {
	if len(c.Schemes(false)) == 0 {
		return &ConfigurationError{
			Missing: []string{EnvAPIToken},
			Hint:    fmt.Sprintf("or the %s + %s pair; create a token at https://dash.cloudflare.com/profile/api-tokens", EnvAPIKey, EnvEmail),
		}
	}
	if req.AccountScoped && c.AccountID == "" {
		return &ConfigurationError{
			Missing: []string{EnvAccountID},
			Hint:    "this command operates on account-scoped resources",
		}
	}
	return nil
}
