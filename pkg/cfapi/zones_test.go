package cfapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFindZone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("name") {
		case "example.com":
			fmt.Fprint(w, `{"success":true,"result":[{"id":"z1","name":"example.com","status":"active","name_servers":["ns1.cloudflare.com","ns2.cloudflare.com"]}],"errors":[],"messages":[]}`)
		default:
			fmt.Fprint(w, `{"success":true,"result":[],"errors":[],"messages":[]}`)
		}
	}))
	defer srv.Close()

	client := testClient(srv.URL, Credentials{APIToken: "tok"})

	zone, err := client.FindZone(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("FindZone() error = %v, want nil", err)
	}
	if zone.ID != "z1" || zone.Status != "active" {
		t.Fatalf("FindZone() = %+v, want zone z1", zone)
	}

	_, err = client.FindZone(context.Background(), "nosuchzone.test")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("FindZone() error = %v, want APIError", err)
	}
	if apiErr.Kind != KindNotFound {
		t.Fatalf("error kind = %q, want %q (empty match list is not-found)", apiErr.Kind, KindNotFound)
	}
}

func TestCreateZoneRequiresAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be reached without an account id")
	}))
	defer srv.Close()

	client := testClient(srv.URL, Credentials{APIToken: "tok"})
	_, err := client.CreateZone(context.Background(), "example.com", "full")

	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("CreateZone() error = %v, want ConfigurationError", err)
	}
}
