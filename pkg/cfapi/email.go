package cfapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// EmailRoutingSettings is the routing state of a zone.
type EmailRoutingSettings struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Status  string `json:"status"`
}

// EmailAddress is a verified (or pending) destination address, account-wide.
type EmailAddress struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Verified string `json:"verified"` // verification timestamp, empty while pending
	Created  string `json:"created"`
}

// EmailRuleMatcher matches incoming mail. Type "literal" matches a field
// exactly; type "all" matches everything (catch-all).
type EmailRuleMatcher struct {
	Type  string `json:"type"`
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`
}

// EmailRuleAction is what happens to matched mail: forward to destination
// addresses, drop, or hand to a worker.
type EmailRuleAction struct {
	Type  string   `json:"type"`
	Value []string `json:"value,omitempty"`
}

// EmailRule is one routing rule of a zone.
type EmailRule struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Enabled  bool               `json:"enabled"`
	Priority int                `json:"priority"`
	Matchers []EmailRuleMatcher `json:"matchers"`
	Actions  []EmailRuleAction  `json:"actions"`
}

// GetEmailRouting returns the email routing settings of a zone.
func (c *Client) GetEmailRouting(ctx context.Context, zoneID string) (*EmailRoutingSettings, error) {
	result, err := c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/zones/%s/email/routing", zoneID),
	})
	if err != nil {
		return nil, err
	}
	var settings EmailRoutingSettings
	if err := json.Unmarshal(result, &settings); err != nil {
		return nil, fmt.Errorf("failed to decode email routing settings: %w", err)
	}
	return &settings, nil
}

// EnableEmailRouting enables routing for a zone. Cloudflare adds and locks
// the required MX and SPF records.
func (c *Client) EnableEmailRouting(ctx context.Context, zoneID string) error {
	_, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/zones/%s/email/routing/enable", zoneID),
	})
	return err
}

// DisableEmailRouting disables routing for a zone.
func (c *Client) DisableEmailRouting(ctx context.Context, zoneID string) error {
	_, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/zones/%s/email/routing/disable", zoneID),
	})
	return err
}

func (c *Client) emailAddressPath(parts string) string {
	return fmt.Sprintf("/accounts/%s/email/routing/addresses%s", c.creds.AccountID, parts)
}

// ListEmailAddresses returns the account's destination addresses.
func (c *Client) ListEmailAddresses(ctx context.Context) ([]EmailAddress, error) {
	result, err := c.Do(ctx, Request{
		Method:        http.MethodGet,
		Path:          c.emailAddressPath(""),
		AccountScoped: true,
	})
	if err != nil {
		return nil, err
	}
	var addresses []EmailAddress
	if err := json.Unmarshal(result, &addresses); err != nil {
		return nil, fmt.Errorf("failed to decode destination addresses: %w", err)
	}
	return addresses, nil
}

// AddEmailAddress registers a destination address. Cloudflare sends a
// verification mail before the address becomes usable.
func (c *Client) AddEmailAddress(ctx context.Context, email string) (*EmailAddress, error) {
	result, err := c.Do(ctx, Request{
		Method:        http.MethodPost,
		Path:          c.emailAddressPath(""),
		Body:          map[string]string{"email": email},
		AccountScoped: true,
	})
	if err != nil {
		return nil, err
	}
	var address EmailAddress
	if err := json.Unmarshal(result, &address); err != nil {
		return nil, fmt.Errorf("failed to decode destination address: %w", err)
	}
	return &address, nil
}

// DeleteEmailAddress removes a destination address by ID.
func (c *Client) DeleteEmailAddress(ctx context.Context, addressID string) error {
	_, err := c.Do(ctx, Request{
		Method:        http.MethodDelete,
		Path:          c.emailAddressPath("/" + addressID),
		AccountScoped: true,
	})
	return err
}

// ListEmailRules returns the routing rules of a zone.
func (c *Client) ListEmailRules(ctx context.Context, zoneID string) ([]EmailRule, error) {
	result, err := c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/zones/%s/email/routing/rules", zoneID),
	})
	if err != nil {
		return nil, err
	}
	var rules []EmailRule
	if err := json.Unmarshal(result, &rules); err != nil {
		return nil, fmt.Errorf("failed to decode email rules: %w", err)
	}
	return rules, nil
}

// AddEmailRule creates a forwarding rule. from may be a bare local part
// ("dave") or a full address; a bare local part is expanded against
// zoneName. name defaults to a description of the forward.
func (c *Client) AddEmailRule(ctx context.Context, zoneID, zoneName, from, to, name string) (*EmailRule, error) {
	localPart := from
	if at := strings.Index(from, "@"); at >= 0 {
		localPart = from[:at]
	}
	fullFrom := localPart + "@" + zoneName
	if name == "" {
		name = fmt.Sprintf("Forward %s to %s", localPart, to)
	}

	body := map[string]any{
		"actions":  []EmailRuleAction{{Type: "forward", Value: []string{to}}},
		"matchers": []EmailRuleMatcher{{Type: "literal", Field: "to", Value: fullFrom}},
		"enabled":  true,
		"name":     name,
	}
	result, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/zones/%s/email/routing/rules", zoneID),
		Body:   body,
	})
	if err != nil {
		return nil, err
	}
	var rule EmailRule
	if err := json.Unmarshal(result, &rule); err != nil {
		return nil, fmt.Errorf("failed to decode email rule: %w", err)
	}
	return &rule, nil
}

// DeleteEmailRule removes a routing rule by ID.
func (c *Client) DeleteEmailRule(ctx context.Context, zoneID, ruleID string) error {
	_, err := c.Do(ctx, Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("/zones/%s/email/routing/rules/%s", zoneID, ruleID),
	})
	return err
}

// GetCatchAll returns the zone's catch-all rule, the fallback applied when no
// specific rule matches.
func (c *Client) GetCatchAll(ctx context.Context, zoneID string) (*EmailRule, error) {
	result, err := c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/zones/%s/email/routing/rules/catch_all", zoneID),
	})
	if err != nil {
		return nil, err
	}
	var rule EmailRule
	if err := json.Unmarshal(result, &rule); err != nil {
		return nil, fmt.Errorf("failed to decode catch-all rule: %w", err)
	}
	return &rule, nil
}

// SetCatchAll replaces the catch-all rule. A non-empty forwardTo forwards all
// unmatched mail there; empty forwardTo drops it.
func (c *Client) SetCatchAll(ctx context.Context, zoneID, forwardTo string) error {
	var actions []EmailRuleAction
	var name string
	if forwardTo != "" {
		actions = []EmailRuleAction{{Type: "forward", Value: []string{forwardTo}}}
		name = "Catch-all forward to " + forwardTo
	} else {
		actions = []EmailRuleAction{{Type: "drop"}}
		name = "Catch-all drop"
	}
	body := map[string]any{
		"actions":  actions,
		"matchers": []EmailRuleMatcher{{Type: "all"}},
		"enabled":  true,
		"name":     name,
	}
	_, err := c.Do(ctx, Request{
		Method: http.MethodPut,
		Path:   fmt.Sprintf("/zones/%s/email/routing/rules/catch_all", zoneID),
		Body:   body,
	})
	return err
}
