package cfapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListR2BucketsAcceptsBothShapes(t *testing.T) {
	tests := []struct {
		name   string
		result string
	}{
		{
			name:   "nested buckets object",
			result: `{"buckets":[{"name":"media","creation_date":"2026-01-15T00:00:00Z","location":"wnam"},{"name":"backups"}]}`,
		},
		{
			name:   "flat bucket list",
			result: `[{"name":"media","location":"wnam"},{"name":"backups"}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintf(w, `{"success":true,"result":%s,"errors":[],"messages":[]}`, tt.result)
			}))
			defer srv.Close()

			client := testClient(srv.URL, Credentials{AccountID: "acct", APIToken: "tok"})
			buckets, err := client.ListR2Buckets(context.Background())
			if err != nil {
				t.Fatalf("ListR2Buckets() error = %v, want nil", err)
			}
			if len(buckets) != 2 {
				t.Fatalf("ListR2Buckets() returned %d buckets, want 2", len(buckets))
			}
			if buckets[0].Name != "media" {
				t.Fatalf("first bucket = %q, want %q", buckets[0].Name, "media")
			}
		})
	}
}

func TestListR2ObjectsQuery(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"prefix": r.URL.Query().Get("prefix"),
			"limit":  r.URL.Query().Get("limit"),
		}
		fmt.Fprint(w, `{"success":true,"result":[{"key":"videos/intro.mp4","size":1048576,"last_modified":"2026-08-01T10:00:00Z"}],"errors":[],"messages":[]}`)
	}))
	defer srv.Close()

	client := testClient(srv.URL, Credentials{AccountID: "acct", APIToken: "tok"})
	objects, err := client.ListR2Objects(context.Background(), "media", "videos/", "", 100)
	if err != nil {
		t.Fatalf("ListR2Objects() error = %v, want nil", err)
	}
	if gotQuery["prefix"] != "videos/" || gotQuery["limit"] != "100" {
		t.Fatalf("query = %v, want prefix videos/ and limit 100", gotQuery)
	}
	if len(objects) != 1 || objects[0].Size != 1048576 {
		t.Fatalf("objects = %+v, want the single 1MiB object", objects)
	}
}
