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

// endToEndServer serves a fixed zone with two DNS records, token auth only,
// mirroring the API's routing behavior closely enough for full-path tests.
func endToEndServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"success":false,"result":null,"errors":[{"code":10000,"message":"Authentication error"}],"messages":[]}`)
			return
		}
		switch r.URL.Path {
		case "/zones/0023a0e48c6a5c0f32aa1c2b9b5e1f8d/dns_records":
			fmt.Fprint(w, `{"success":true,"result":[
				{"id":"r1","type":"A","name":"example.com","content":"198.51.100.4","ttl":1,"proxied":true},
				{"id":"r2","type":"MX","name":"example.com","content":"mx.example.com","ttl":300,"priority":10}
			],"errors":[],"messages":[]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"success":false,"result":null,"errors":[{"code":7003,"message":"Could not route to /zones/bogus, perhaps your object identifier is invalid?"}],"messages":[]}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestListDNSRecordsEndToEnd(t *testing.T) {
	srv := endToEndServer(t)
	client := testClient(srv.URL, Credentials{APIToken: "good-token"})

	records, err := client.ListDNSRecords(context.Background(), "0023a0e48c6a5c0f32aa1c2b9b5e1f8d")
	if err != nil {
		t.Fatalf("ListDNSRecords() error = %v, want nil", err)
	}
	if len(records) != 2 {
		t.Fatalf("ListDNSRecords() returned %d records, want 2", len(records))
	}
	if records[0].Type != "A" || records[0].Content != "198.51.100.4" {
		t.Fatalf("first record = %+v, want the A record", records[0])
	}
	if records[1].Priority == nil || *records[1].Priority != 10 {
		t.Fatalf("MX record priority = %v, want 10", records[1].Priority)
	}
}

func TestListDNSRecordsInvalidZone(t *testing.T) {
	srv := endToEndServer(t)
	client := testClient(srv.URL, Credentials{APIToken: "good-token"})

	_, err := client.ListDNSRecords(context.Background(), "bogus")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("ListDNSRecords() error = %v, want APIError", err)
	}
	if apiErr.Kind != KindNotFound {
		t.Fatalf("error kind = %q, want %q", apiErr.Kind, KindNotFound)
	}
}

func TestCreateDNSRecordDefaultsTTL(t *testing.T) {
	var got DNSRecordParams
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		fmt.Fprint(w, `{"success":true,"result":{"id":"r9","type":"CNAME","name":"www.example.com","content":"example.com","ttl":1},"errors":[],"messages":[]}`)
	}))
	defer srv.Close()

	client := testClient(srv.URL, Credentials{APIToken: "tok"})
	record, err := client.CreateDNSRecord(context.Background(), "z1", DNSRecordParams{
		Type:    "CNAME",
		Name:    "www.example.com",
		Content: "example.com",
	})
	if err != nil {
		t.Fatalf("CreateDNSRecord() error = %v, want nil", err)
	}
	if got.TTL != 1 {
		t.Fatalf("request TTL = %d, want 1 (automatic)", got.TTL)
	}
	if record.ID != "r9" {
		t.Fatalf("record ID = %q, want %q", record.ID, "r9")
	}
}
