package cfapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// authServer simulates the API's auth behavior: requests carrying an
// acceptable scheme get the configured success payload, others get the
// configured rejection. It records every request's scheme for assertions.
type authServer struct {
	*httptest.Server

	acceptToken bool
	acceptKey   bool
	rejection   func(w http.ResponseWriter)

	calls []string // "token" or "key" per request, in order
}

func newAuthServer(t *testing.T, result string) *authServer {
	t.Helper()
	s := &authServer{
		rejection: func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"success":false,"result":null,"errors":[{"code":10001,"message":"Invalid API Token"}],"messages":[]}`)
		},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme := "token"
		if r.Header.Get("X-Auth-Key") != "" {
			scheme = "key"
		}
		s.calls = append(s.calls, scheme)

		ok := (scheme == "token" && s.acceptToken) || (scheme == "key" && s.acceptKey)
		if !ok {
			s.rejection(w)
			return
		}
		fmt.Fprintf(w, `{"success":true,"result":%s,"errors":[],"messages":[]}`, result)
	}))
	t.Cleanup(s.Close)
	return s
}

func testClient(baseURL string, creds Credentials) *Client {
	creds.BaseURL = baseURL
	return NewClient(creds)
}

func TestDoTokenSuccess(t *testing.T) {
	srv := newAuthServer(t, `{"id":"z1"}`)
	srv.acceptToken = true

	client := testClient(srv.URL, Credentials{APIToken: "tok"})
	result, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/zones/z1"})
	if err != nil {
		t.Fatalf("Do() error = %v, want nil", err)
	}
	var zone struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(result, &zone); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if zone.ID != "z1" {
		t.Fatalf("result id = %q, want %q", zone.ID, "z1")
	}
	if len(srv.calls) != 1 || srv.calls[0] != "token" {
		t.Fatalf("server calls = %v, want exactly one token call", srv.calls)
	}
}

func TestDoFallsBackToKeyExactlyOnce(t *testing.T) {
	srv := newAuthServer(t, `{"id":"z1"}`)
	srv.acceptKey = true // token rejected, key accepted

	client := testClient(srv.URL, Credentials{
		APIToken: "bad-token",
		APIKey:   "key",
		Email:    "ops@example.com",
	})
	_, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/zones/z1"})
	if err != nil {
		t.Fatalf("Do() error = %v, want fallback success", err)
	}
	if len(srv.calls) != 2 {
		t.Fatalf("server saw %d calls, want 2 (token then key)", len(srv.calls))
	}
	if srv.calls[0] != "token" || srv.calls[1] != "key" {
		t.Fatalf("call order = %v, want [token key]", srv.calls)
	}
}

func TestDoFallbackFailureCarriesKeyContext(t *testing.T) {
	srv := newAuthServer(t, `{}`) // rejects both schemes

	client := testClient(srv.URL, Credentials{
		APIToken: "bad-token",
		APIKey:   "bad-key",
		Email:    "ops@example.com",
	})
	_, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/zones"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Do() error = %v, want APIError", err)
	}
	if apiErr.Kind != KindInvalidAuth {
		t.Fatalf("error kind = %q, want %q", apiErr.Kind, KindInvalidAuth)
	}
	if apiErr.AuthScheme != "key" {
		t.Fatalf("error scheme = %q, want %q (the fallback context, not the token's)", apiErr.AuthScheme, "key")
	}
	if len(srv.calls) != 2 {
		t.Fatalf("server saw %d calls, want exactly 2 (no further retries)", len(srv.calls))
	}
}

func TestDoNoFallbackForMissingPermission(t *testing.T) {
	srv := newAuthServer(t, `{}`)
	srv.rejection = func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"success":false,"result":null,"errors":[{"code":9109,"message":"Unauthorized to access requested resource"}],"messages":[]}`)
	}

	client := testClient(srv.URL, Credentials{
		APIToken: "tok",
		APIKey:   "key",
		Email:    "ops@example.com",
	})
	_, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/zones/z/dns_records"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Do() error = %v, want APIError", err)
	}
	if apiErr.Kind != KindMissingPermission {
		t.Fatalf("error kind = %q, want %q", apiErr.Kind, KindMissingPermission)
	}
	if apiErr.Permission != "Zone > DNS > Edit" {
		t.Fatalf("error permission = %q, want %q", apiErr.Permission, "Zone > DNS > Edit")
	}
	if len(srv.calls) != 1 {
		t.Fatalf("server saw %d calls, want 1 (permission errors never trigger a credential swap)", len(srv.calls))
	}
}

func TestDoPreferKeyAuthOrder(t *testing.T) {
	srv := newAuthServer(t, `[]`)
	srv.acceptKey = true
	srv.acceptToken = true

	client := testClient(srv.URL, Credentials{
		AccountID: "acct",
		APIToken:  "tok",
		APIKey:    "key",
		Email:     "ops@example.com",
	})
	_, err := client.Do(context.Background(), Request{
		Method:        http.MethodGet,
		Path:          "/accounts/acct/storage/kv/namespaces",
		AccountScoped: true,
		PreferKeyAuth: true,
	})
	if err != nil {
		t.Fatalf("Do() error = %v, want nil", err)
	}
	if len(srv.calls) != 1 || srv.calls[0] != "key" {
		t.Fatalf("server calls = %v, want exactly one key call", srv.calls)
	}
}

func TestDoConfigurationErrorBeforeNetwork(t *testing.T) {
	srv := newAuthServer(t, `{}`)

	tests := []struct {
		name  string
		creds Credentials
		req   Request
	}{
		{
			name:  "no credentials at all",
			creds: Credentials{},
			req:   Request{Method: http.MethodGet, Path: "/zones"},
		},
		{
			name:  "account scoped without account id",
			creds: Credentials{APIToken: "tok"},
			req:   Request{Method: http.MethodGet, Path: "/accounts/x/r2/buckets", AccountScoped: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv.calls = nil
			client := testClient(srv.URL, tt.creds)
			_, err := client.Do(context.Background(), tt.req)

			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Do() error = %v, want ConfigurationError", err)
			}
			if len(srv.calls) != 0 {
				t.Fatalf("server saw %d calls, want 0 (configuration errors must precede network I/O)", len(srv.calls))
			}
		})
	}
}

func TestDoNotFoundRegardlessOfBody(t *testing.T) {
	bodies := []string{
		`{"success":false,"result":null,"errors":[{"code":7003,"message":"Could not route to zone"}],"messages":[]}`,
		`plain text not an envelope`,
		``,
	}
	for _, body := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, body)
		}))
		client := testClient(srv.URL, Credentials{APIToken: "tok"})
		_, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/zones/missing"})
		srv.Close()

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("Do() error = %v, want APIError", err)
		}
		if apiErr.Kind != KindNotFound {
			t.Fatalf("error kind = %q for body %q, want %q", apiErr.Kind, body, KindNotFound)
		}
	}
}

func TestDoGenericPreservesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream unavailable")
	}))
	defer srv.Close()

	client := testClient(srv.URL, Credentials{APIToken: "tok"})
	_, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/zones"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Do() error = %v, want APIError", err)
	}
	if apiErr.Kind != KindGeneric {
		t.Fatalf("error kind = %q, want %q (5xx is never retried)", apiErr.Kind, KindGeneric)
	}
	if apiErr.Status != http.StatusBadGateway {
		t.Fatalf("error status = %d, want %d", apiErr.Status, http.StatusBadGateway)
	}
	if apiErr.Errors[0].Message != "upstream unavailable" {
		t.Fatalf("synthesized message = %q, want raw body text", apiErr.Errors[0].Message)
	}
}

func TestDoIdempotentClassification(t *testing.T) {
	srv := newAuthServer(t, `[{"id":"z1","name":"example.com"}]`)
	srv.acceptToken = true

	client := testClient(srv.URL, Credentials{APIToken: "tok"})
	req := Request{Method: http.MethodGet, Path: "/zones"}

	first, errFirst := client.Do(context.Background(), req)
	second, errSecond := client.Do(context.Background(), req)
	if errFirst != nil || errSecond != nil {
		t.Fatalf("Do() errors = %v, %v, want both nil", errFirst, errSecond)
	}
	if string(first) != string(second) {
		t.Fatalf("repeated read returned different payloads: %s vs %s", first, second)
	}

	// Same again for a failing request: identical kind both times.
	srv.acceptToken = false
	_, errFirst = client.Do(context.Background(), req)
	_, errSecond = client.Do(context.Background(), req)
	var firstErr, secondErr *APIError
	if !errors.As(errFirst, &firstErr) || !errors.As(errSecond, &secondErr) {
		t.Fatalf("Do() errors = %v, %v, want APIErrors", errFirst, errSecond)
	}
	if firstErr.Kind != secondErr.Kind {
		t.Fatalf("repeated request classified differently: %q vs %q", firstErr.Kind, secondErr.Kind)
	}
}

func TestDoSuccessFalseEnvelope(t *testing.T) {
	// Some endpoints report failure with a 200 status; the success flag and
	// error list still apply.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":false,"result":null,"errors":[{"code":2014,"message":"Rule already exists"}],"messages":[]}`)
	}))
	defer srv.Close()

	client := testClient(srv.URL, Credentials{APIToken: "tok"})
	_, err := client.Do(context.Background(), Request{Method: http.MethodPost, Path: "/zones/z/email/routing/rules"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Do() error = %v, want APIError", err)
	}
	if apiErr.Kind != KindGeneric {
		t.Fatalf("error kind = %q, want %q", apiErr.Kind, KindGeneric)
	}
	if apiErr.Errors[0].Code != 2014 {
		t.Fatalf("error code = %d, want 2014", apiErr.Errors[0].Code)
	}
}

func TestDoRawResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "opaque-value")
	}))
	defer srv.Close()

	client := testClient(srv.URL, Credentials{AccountID: "acct", APIToken: "tok"})
	payload, err := client.Do(context.Background(), Request{
		Method:        http.MethodGet,
		Path:          "/accounts/acct/storage/kv/namespaces/ns/values/k",
		AccountScoped: true,
		RawResponse:   true,
	})
	if err != nil {
		t.Fatalf("Do() error = %v, want nil", err)
	}
	if string(payload) != "opaque-value" {
		t.Fatalf("payload = %q, want %q", payload, "opaque-value")
	}
}
