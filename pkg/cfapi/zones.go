package cfapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Zone is a managed domain within Cloudflare.
type Zone struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Status              string    `json:"status"`
	Paused              bool      `json:"paused"`
	Type                string    `json:"type"`
	NameServers         []string  `json:"name_servers"`
	OriginalNameServers []string  `json:"original_name_servers"`
	CreatedOn           time.Time `json:"created_on"`
	ModifiedOn          time.Time `json:"modified_on"`
}

// ListZones returns all zones visible to the credentials.
func (c *Client) ListZones(ctx context.Context) ([]Zone, error) {
	result, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/zones"})
	if err != nil {
		return nil, err
	}
	var zones []Zone
	if err := json.Unmarshal(result, &zones); err != nil {
		return nil, fmt.Errorf("failed to decode zone list: %w", err)
	}
	return zones, nil
}

// GetZone returns details for a single zone.
func (c *Client) GetZone(ctx context.Context, zoneID string) (*Zone, error) {
	result, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/zones/" + zoneID})
	if err != nil {
		return nil, err
	}
	var zone Zone
	if err := json.Unmarshal(result, &zone); err != nil {
		return nil, fmt.Errorf("failed to decode zone: %w", err)
	}
	return &zone, nil
}

// CreateZone creates a zone under the configured account. zoneType is "full"
// or "partial".
func (c *Client) CreateZone(ctx context.Context, domain, zoneType string) (*Zone, error) {
	if zoneType == "" {
		zoneType = "full"
	}
	body := map[string]any{
		"account": map[string]string{"id": c.creds.AccountID},
		"name":    domain,
		"type":    zoneType,
	}
	result, err := c.Do(ctx, Request{
		Method:        http.MethodPost,
		Path:          "/zones",
		Body:          body,
		AccountScoped: true,
	})
	if err != nil {
		return nil, err
	}
	var zone Zone
	if err := json.Unmarshal(result, &zone); err != nil {
		return nil, fmt.Errorf("failed to decode created zone: %w", err)
	}
	return &zone, nil
}

// DeleteZone deletes a zone by ID.
func (c *Client) DeleteZone(ctx context.Context, zoneID string) error {
	_, err := c.Do(ctx, Request{Method: http.MethodDelete, Path: "/zones/" + zoneID})
	return err
}

// FindZone looks up a zone by its domain name. Returns a not-found classified
// error when no zone matches.
func (c *Client) FindZone(ctx context.Context, domain string) (*Zone, error) {
	query := url.Values{}
	query.Set("name", domain)
	result, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/zones", Query: query})
	if err != nil {
		return nil, err
	}
	var zones []Zone
	if err := json.Unmarshal(result, &zones); err != nil {
		return nil, fmt.Errorf("failed to decode zone list: %w", err)
	}
	if len(zones) == 0 {
		return nil, &APIError{
			Status:   http.StatusNotFound,
			Kind:     KindNotFound,
			Errors:   []ErrorEntry{{Message: fmt.Sprintf("no zone found for %q", domain)}},
			Endpoint: "/zones",
		}
	}
	return &zones[0], nil
}
