package cfapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DNSRecord is a single DNS record within a zone.
type DNSRecord struct {
	ID         string    `json:"id"`
	ZoneID     string    `json:"zone_id"`
	ZoneName   string    `json:"zone_name"`
	Type       string    `json:"type"`
	Name       string    `json:"name"`
	Content    string    `json:"content"`
	TTL        int       `json:"ttl"`
	Proxied    bool      `json:"proxied"`
	Proxiable  bool      `json:"proxiable"`
	Priority   *int      `json:"priority,omitempty"`
	CreatedOn  time.Time `json:"created_on"`
	ModifiedOn time.Time `json:"modified_on"`
}

// DNSRecordParams are the writable fields of a DNS record. TTL 1 means
// automatic. Priority applies to MX and SRV records only.
type DNSRecordParams struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Content  string `json:"content"`
	TTL      int    `json:"ttl"`
	Proxied  bool   `json:"proxied"`
	Priority *int   `json:"priority,omitempty"`
}

// ListDNSRecords returns all DNS records for a zone.
func (c *Client) ListDNSRecords(ctx context.Context, zoneID string) ([]DNSRecord, error) {
	result, err := c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/zones/%s/dns_records", zoneID),
	})
	if err != nil {
		return nil, err
	}
	var records []DNSRecord
	if err := json.Unmarshal(result, &records); err != nil {
		return nil, fmt.Errorf("failed to decode DNS records: %w", err)
	}
	return records, nil
}

// CreateDNSRecord creates a record in the given zone.
func (c *Client) CreateDNSRecord(ctx context.Context, zoneID string, params DNSRecordParams) (*DNSRecord, error) {
	if params.TTL == 0 {
		params.TTL = 1
	}
	result, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/zones/%s/dns_records", zoneID),
		Body:   params,
	})
	if err != nil {
		return nil, err
	}
	var record DNSRecord
	if err := json.Unmarshal(result, &record); err != nil {
		return nil, fmt.Errorf("failed to decode created DNS record: %w", err)
	}
	return &record, nil
}

// UpdateDNSRecord replaces an existing record by ID.
func (c *Client) UpdateDNSRecord(ctx context.Context, zoneID, recordID string, params DNSRecordParams) (*DNSRecord, error) {
	if params.TTL == 0 {
		params.TTL = 1
	}
	result, err := c.Do(ctx, Request{
		Method: http.MethodPut,
		Path:   fmt.Sprintf("/zones/%s/dns_records/%s", zoneID, recordID),
		Body:   params,
	})
	if err != nil {
		return nil, err
	}
	var record DNSRecord
	if err := json.Unmarshal(result, &record); err != nil {
		return nil, fmt.Errorf("failed to decode updated DNS record: %w", err)
	}
	return &record, nil
}

// DeleteDNSRecord deletes a record by ID.
func (c *Client) DeleteDNSRecord(ctx context.Context, zoneID, recordID string) error {
	_, err := c.Do(ctx, Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("/zones/%s/dns_records/%s", zoneID, recordID),
	})
	return err
}
