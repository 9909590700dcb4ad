package cfapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDeployMediaWorkerBindings(t *testing.T) {
	var gotMetadata map[string]any
	var gotScript string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("failed to parse multipart form: %v", err)
			return
		}
		if files := r.MultipartForm.File["metadata"]; len(files) == 1 {
			f, _ := files[0].Open()
			content, _ := io.ReadAll(f)
			f.Close()
			if err := json.Unmarshal(content, &gotMetadata); err != nil {
				t.Errorf("metadata part is not JSON: %v", err)
			}
		}
		if files := r.MultipartForm.File["worker.js"]; len(files) == 1 {
			f, _ := files[0].Open()
			content, _ := io.ReadAll(f)
			f.Close()
			gotScript = string(content)
		}
		fmt.Fprint(w, `{"success":true,"result":{"id":"media"},"errors":[],"messages":[]}`)
	}))
	defer srv.Close()

	client := testClient(srv.URL, Credentials{AccountID: "acct", APIToken: "tok"})
	err := client.DeployMediaWorker(context.Background(), "media", "site-media", "k3y")
	if err != nil {
		t.Fatalf("DeployMediaWorker() error = %v, want nil", err)
	}

	bindings, ok := gotMetadata["bindings"].([]any)
	if !ok || len(bindings) != 2 {
		t.Fatalf("metadata bindings = %v, want 2 entries", gotMetadata["bindings"])
	}
	bucket := bindings[0].(map[string]any)
	if bucket["type"] != "r2_bucket" || bucket["name"] != "BUCKET" || bucket["bucket_name"] != "site-media" {
		t.Fatalf("bucket binding = %v, want r2_bucket BUCKET site-media", bucket)
	}
	secret := bindings[1].(map[string]any)
	if secret["type"] != "secret_text" || secret["name"] != "API_KEY" || secret["text"] != "k3y" {
		t.Fatalf("secret binding = %v, want secret_text API_KEY k3y", secret)
	}

	// The generated script must use exactly the bound names
	for _, ref := range []string{"env.BUCKET", "env.API_KEY", "X-API-Key"} {
		if !strings.Contains(gotScript, ref) {
			t.Errorf("deployed script does not reference %s", ref)
		}
	}
}

func TestDeployMediaWorkerRequiresKey(t *testing.T) {
	client := testClient("http://unused.invalid", Credentials{AccountID: "acct", APIToken: "tok"})
	err := client.DeployMediaWorker(context.Background(), "media", "site-media", "")
	if err == nil {
		t.Fatal("DeployMediaWorker() with empty key expected error, got nil")
	}
}
