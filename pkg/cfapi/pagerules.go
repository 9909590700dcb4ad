package cfapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// PageRule is a zone page rule. Targets and actions are kept loose: the rule
// schema varies per action and the CLI only constructs forwarding rules.
type PageRule struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Priority int               `json:"priority"`
	Targets  []json.RawMessage `json:"targets"`
	Actions  []json.RawMessage `json:"actions"`
}

// ListPageRules returns the page rules of a zone.
func (c *Client) ListPageRules(ctx context.Context, zoneID string) ([]PageRule, error) {
	result, err := c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/zones/%s/pagerules", zoneID),
	})
	if err != nil {
		return nil, err
	}
	var rules []PageRule
	if err := json.Unmarshal(result, &rules); err != nil {
		return nil, fmt.Errorf("failed to decode page rules: %w", err)
	}
	return rules, nil
}

// CreateWWWRedirect creates a 301 forwarding rule from www.<domain>/* to
// https://<domain>/$1.
func (c *Client) CreateWWWRedirect(ctx context.Context, zoneID, domain string) (*PageRule, error) {
	body := map[string]any{
		"targets": []map[string]any{
			{
				"target": "url",
				"constraint": map[string]string{
					"operator": "matches",
					"value":    fmt.Sprintf("www.%s/*", domain),
				},
			},
		},
		"actions": []map[string]any{
			{
				"id": "forwarding_url",
				"value": map[string]any{
					"url":         fmt.Sprintf("https://%s/$1", domain),
					"status_code": 301,
				},
			},
		},
		"priority": 1,
		"status":   "active",
	}
	result, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/zones/%s/pagerules", zoneID),
		Body:   body,
	})
	if err != nil {
		return nil, err
	}
	var rule PageRule
	if err := json.Unmarshal(result, &rule); err != nil {
		return nil, fmt.Errorf("failed to decode page rule: %w", err)
	}
	return &rule, nil
}

// DeletePageRule removes a page rule by ID.
func (c *Client) DeletePageRule(ctx context.Context, zoneID, ruleID string) error {
	_, err := c.Do(ctx, Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("/zones/%s/pagerules/%s", zoneID, ruleID),
	})
	return err
}
