package cfapi

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
)

func TestSchemesOrdering(t *testing.T) {
	tests := []struct {
		name      string
		creds     Credentials
		preferKey bool
		want      []string
	}{
		{
			name:  "token only",
			creds: Credentials{APIToken: "tok"},
			want:  []string{"token"},
		},
		{
			name:  "key pair only",
			creds: Credentials{APIKey: "key", Email: "a@b.com"},
			want:  []string{"key"},
		},
		{
			name:  "both prefers token",
			creds: Credentials{APIToken: "tok", APIKey: "key", Email: "a@b.com"},
			want:  []string{"token", "key"},
		},
		{
			name:      "both with preferKey reverses",
			creds:     Credentials{APIToken: "tok", APIKey: "key", Email: "a@b.com"},
			preferKey: true,
			want:      []string{"key", "token"},
		},
		{
			name:  "key without email is incomplete",
			creds: Credentials{APIKey: "key"},
			want:  nil,
		},
		{
			name:  "nothing configured",
			creds: Credentials{},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schemes := tt.creds.Schemes(tt.preferKey)
			if len(schemes) != len(tt.want) {
				t.Fatalf("Schemes() returned %d schemes, want %d", len(schemes), len(tt.want))
			}
			for i, scheme := range schemes {
				if scheme.Name != tt.want[i] {
					t.Fatalf("Schemes()[%d] = %q, want %q", i, scheme.Name, tt.want[i])
				}
			}
		})
	}
}

func TestTokenOnlyNeverEmitsKeyHeaders(t *testing.T) {
	creds := Credentials{APIToken: "tok"}
	for _, preferKey := range []bool{false, true} {
		for _, scheme := range creds.Schemes(preferKey) {
			h := http.Header{}
			scheme.Apply(h)
			if h.Get("X-Auth-Key") != "" || h.Get("X-Auth-Email") != "" {
				t.Fatalf("token-only credentials emitted key headers: %v", h)
			}
			if h.Get("Authorization") != "Bearer tok" {
				t.Fatalf("Authorization = %q, want %q", h.Get("Authorization"), "Bearer tok")
			}
		}
	}
}

func TestKeySchemeHeaders(t *testing.T) {
	creds := Credentials{APIKey: "secret", Email: "ops@example.com"}
	schemes := creds.Schemes(false)
	if len(schemes) != 1 {
		t.Fatalf("Schemes() returned %d schemes, want 1", len(schemes))
	}
	h := http.Header{}
	schemes[0].Apply(h)
	if h.Get("X-Auth-Key") != "secret" {
		t.Fatalf("X-Auth-Key = %q, want %q", h.Get("X-Auth-Key"), "secret")
	}
	if h.Get("X-Auth-Email") != "ops@example.com" {
		t.Fatalf("X-Auth-Email = %q, want %q", h.Get("X-Auth-Email"), "ops@example.com")
	}
	if h.Get("Authorization") != "" {
		t.Fatalf("key scheme emitted Authorization header: %q", h.Get("Authorization"))
	}
}

func TestCheckRequest(t *testing.T) {
	tests := []struct {
		name        string
		creds       Credentials
		req         Request
		wantMissing string
	}{
		{
			name:        "no scheme configured",
			creds:       Credentials{AccountID: "acct"},
			req:         Request{Method: http.MethodGet, Path: "/zones"},
			wantMissing: EnvAPIToken,
		},
		{
			name:        "account scoped without account id",
			creds:       Credentials{APIToken: "tok"},
			req:         Request{Method: http.MethodGet, Path: "/accounts/x/pages/projects", AccountScoped: true},
			wantMissing: EnvAccountID,
		},
		{
			name:  "zone scoped with token is fine",
			creds: Credentials{APIToken: "tok"},
			req:   Request{Method: http.MethodGet, Path: "/zones"},
		},
		{
			name:  "account scoped fully configured",
			creds: Credentials{APIToken: "tok", AccountID: "acct"},
			req:   Request{Method: http.MethodGet, Path: "/accounts/acct/r2/buckets", AccountScoped: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.checkRequest(tt.req)
			if tt.wantMissing == "" {
				if err != nil {
					t.Fatalf("checkRequest() error = %v, want nil", err)
				}
				return
			}
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("checkRequest() error = %v, want ConfigurationError", err)
			}
			found := false
			for _, missing := range cfgErr.Missing {
				if missing == tt.wantMissing {
					found = true
				}
			}
			if !found {
				t.Fatalf("ConfigurationError.Missing = %v, want it to contain %q", cfgErr.Missing, tt.wantMissing)
			}
		})
	}
}

func TestLoadCredentialsDefaults(t *testing.T) {
	t.Setenv(EnvAccountID, "acct123")
	t.Setenv(EnvAPIToken, "tok123")
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvEmail, "")
	t.Setenv(EnvBaseURL, "")

	creds := LoadCredentials()
	if creds.AccountID != "acct123" {
		t.Fatalf("AccountID = %q, want %q", creds.AccountID, "acct123")
	}
	if creds.APIToken != "tok123" {
		t.Fatalf("APIToken = %q, want %q", creds.APIToken, "tok123")
	}
	if creds.BaseURL != DefaultBaseURL {
		t.Fatalf("BaseURL = %q, want default %q", creds.BaseURL, DefaultBaseURL)
	}
}

func TestLoadCredentialsFromDotEnv(t *testing.T) {
	// t.Setenv restores the originals; Unsetenv leaves the vars absent for
	// the test so the .env file is the only source.
	for _, name := range []string{EnvAccountID, EnvAPIToken, EnvAPIKey, EnvEmail, EnvBaseURL} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}

	envFile := filepath.Join(t.TempDir(), ".env")
	content := EnvAPIToken + "=dotenv-tok\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write .env file: %v", err)
	}
	if err := godotenv.Load(envFile); err != nil {
		t.Fatalf("godotenv.Load() error = %v, want nil", err)
	}

	creds := LoadCredentials()
	if creds.APIToken != "dotenv-tok" {
		t.Fatalf("APIToken = %q, want %q", creds.APIToken, "dotenv-tok")
	}

	// Token-only configuration from the file yields exactly one scheme and
	// never key headers
	schemes := creds.Schemes(false)
	if len(schemes) != 1 || schemes[0].Name != "token" {
		t.Fatalf("Schemes() = %d schemes, want single token scheme", len(schemes))
	}
	h := http.Header{}
	schemes[0].Apply(h)
	if h.Get("Authorization") != "Bearer dotenv-tok" {
		t.Fatalf("Authorization = %q, want %q", h.Get("Authorization"), "Bearer dotenv-tok")
	}
	if h.Get("X-Auth-Key") != "" || h.Get("X-Auth-Email") != "" {
		t.Fatalf("token-only .env emitted key headers: %v", h)
	}
}
