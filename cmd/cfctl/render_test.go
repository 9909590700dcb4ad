package main

import (
	"bytes"
	"testing"

	"github.com/clippa-dev/cfctl/pkg/cfapi"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name     string
		input    int64
		expected string
	}{
		{"bytes", 512, "512 B"},
		{"kilobytes", 2048, "2.0 KB"},
		{"megabytes", 5 * 1024 * 1024, "5.0 MB"},
		{"gigabytes", 3 * 1024 * 1024 * 1024, "3.0 GB"},
		{"fractional", 1536, "1.5 KB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatBytes(tt.input)
			if result != tt.expected {
				t.Errorf("formatBytes(%d) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseBindings(t *testing.T) {
	tests := []struct {
		name    string
		r2      []string
		secrets []string
		want    []cfapi.WorkerBinding
		wantErr bool
	}{
		{
			name: "r2 binding",
			r2:   []string{"ASSETS=site-assets"},
			want: []cfapi.WorkerBinding{{Type: "r2_bucket", Name: "ASSETS", BucketName: "site-assets"}},
		},
		{
			name:    "secret binding",
			secrets: []string{"API_KEY=hunter2"},
			want:    []cfapi.WorkerBinding{{Type: "secret_text", Name: "API_KEY", Text: "hunter2"}},
		},
		{
			name:    "secret value may contain equals",
			secrets: []string{"TOKEN=abc=def"},
			want:    []cfapi.WorkerBinding{{Type: "secret_text", Name: "TOKEN", Text: "abc=def"}},
		},
		{
			name:    "malformed r2 binding",
			r2:      []string{"no-separator"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseBindings(tt.r2, tt.secrets)
			if tt.wantErr {
				if err == nil {
					t.Fatal("parseBindings() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseBindings() error = %v, want nil", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseBindings() returned %d bindings, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("binding[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestGenerateAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "deterministic output with known bytes",
			input:    bytes.Repeat([]byte{0x00}, 32),
			expected: "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		},
		{
			name:     "deterministic output with different bytes",
			input:    bytes.Repeat([]byte{0xFF}, 32),
			expected: "__________________________________________8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := generateAPIKey(bytes.NewReader(tt.input))
			if err != nil {
				t.Fatalf("generateAPIKey() error = %v, want nil", err)
			}
			if result != tt.expected {
				t.Errorf("generateAPIKey() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestGenerateAPIKeyShortSource(t *testing.T) {
	_, err := generateAPIKey(bytes.NewReader([]byte{0x01, 0x02}))
	if err == nil {
		t.Fatal("generateAPIKey() with short source expected error, got nil")
	}
}

func TestEmailRuleSummary(t *testing.T) {
	tests := []struct {
		name     string
		rule     cfapi.EmailRule
		wantFrom string
		wantTo   string
	}{
		{
			name: "literal forward",
			rule: cfapi.EmailRule{
				Matchers: []cfapi.EmailRuleMatcher{{Type: "literal", Field: "to", Value: "dave@example.com"}},
				Actions:  []cfapi.EmailRuleAction{{Type: "forward", Value: []string{"dest@gmail.com"}}},
			},
			wantFrom: "dave@example.com",
			wantTo:   "dest@gmail.com",
		},
		{
			name: "catch-all drop",
			rule: cfapi.EmailRule{
				Matchers: []cfapi.EmailRuleMatcher{{Type: "all"}},
				Actions:  []cfapi.EmailRuleAction{{Type: "drop"}},
			},
			wantFrom: "(catch-all)",
			wantTo:   "(drop)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := emailRuleSummary(tt.rule)
			if from != tt.wantFrom || to != tt.wantTo {
				t.Errorf("emailRuleSummary() = (%q, %q), want (%q, %q)", from, to, tt.wantFrom, tt.wantTo)
			}
		})
	}
}
