package cfapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAddEmailRuleExpandsLocalPart(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		wantFrom string
	}{
		{"bare local part", "dave", "dave@example.com"},
		{"full address keeps local part", "dave@elsewhere.org", "dave@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body struct {
				Matchers []EmailRuleMatcher `json:"matchers"`
				Actions  []EmailRuleAction  `json:"actions"`
				Name     string             `json:"name"`
				Enabled  bool               `json:"enabled"`
			}
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Errorf("failed to decode rule body: %v", err)
				}
				fmt.Fprint(w, `{"success":true,"result":{"id":"rule1","enabled":true},"errors":[],"messages":[]}`)
			}))
			defer srv.Close()

			client := testClient(srv.URL, Credentials{APIToken: "tok"})
			_, err := client.AddEmailRule(context.Background(), "z1", "example.com", tt.from, "dest@gmail.com", "")
			if err != nil {
				t.Fatalf("AddEmailRule() error = %v, want nil", err)
			}
			if len(body.Matchers) != 1 || body.Matchers[0].Value != tt.wantFrom {
				t.Fatalf("matcher = %+v, want literal to=%q", body.Matchers, tt.wantFrom)
			}
			if len(body.Actions) != 1 || body.Actions[0].Type != "forward" || body.Actions[0].Value[0] != "dest@gmail.com" {
				t.Fatalf("action = %+v, want forward to dest@gmail.com", body.Actions)
			}
			if !body.Enabled {
				t.Fatal("rule should be created enabled")
			}
		})
	}
}

func TestSetCatchAll(t *testing.T) {
	tests := []struct {
		name       string
		forwardTo  string
		wantAction string
	}{
		{"forward", "dest@gmail.com", "forward"},
		{"drop when no destination", "", "drop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body struct {
				Matchers []EmailRuleMatcher `json:"matchers"`
				Actions  []EmailRuleAction  `json:"actions"`
			}
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPut {
					t.Errorf("catch-all update method = %s, want PUT", r.Method)
				}
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Errorf("failed to decode catch-all body: %v", err)
				}
				fmt.Fprint(w, `{"success":true,"result":{"id":"catch_all"},"errors":[],"messages":[]}`)
			}))
			defer srv.Close()

			client := testClient(srv.URL, Credentials{APIToken: "tok"})
			if err := client.SetCatchAll(context.Background(), "z1", tt.forwardTo); err != nil {
				t.Fatalf("SetCatchAll() error = %v, want nil", err)
			}
			if len(body.Matchers) != 1 || body.Matchers[0].Type != "all" {
				t.Fatalf("matcher = %+v, want type all", body.Matchers)
			}
			if len(body.Actions) != 1 || body.Actions[0].Type != tt.wantAction {
				t.Fatalf("action = %+v, want %q", body.Actions, tt.wantAction)
			}
		})
	}
}
