package cfapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// R2Bucket is an object storage bucket.
type R2Bucket struct {
	Name         string `json:"name"`
	CreationDate string `json:"creation_date"`
	Location     string `json:"location"`
}

// R2Object is one object within a bucket.
type R2Object struct {
	Key          string `json:"key"`
	Size         int64  `json:"size"`
	Etag         string `json:"etag"`
	LastModified string `json:"last_modified"`
}

func (c *Client) r2Path(parts string) string {
	return fmt.Sprintf("/accounts/%s/r2/buckets%s", c.creds.AccountID, parts)
}

// ListR2Buckets returns all buckets in the account. The API has returned both
// a nested {"buckets": [...]} result and a flat list over time, so both
// shapes are accepted.
func (c *Client) ListR2Buckets(ctx context.Context) ([]R2Bucket, error) {
	result, err := c.Do(ctx, Request{
		Method:        http.MethodGet,
		Path:          c.r2Path(""),
		AccountScoped: true,
	})
	if err != nil {
		return nil, err
	}

	var nested struct {
		Buckets []R2Bucket `json:"buckets"`
	}
	if err := json.Unmarshal(result, &nested); err == nil && nested.Buckets != nil {
		return nested.Buckets, nil
	}
	var flat []R2Bucket
	if err := json.Unmarshal(result, &flat); err != nil {
		return nil, fmt.Errorf("failed to decode R2 bucket list: %w", err)
	}
	return flat, nil
}

// CreateR2Bucket creates a bucket. locationHint is one of wnam, enam, weur,
// eeur, apac; empty lets the provider choose.
func (c *Client) CreateR2Bucket(ctx context.Context, name, locationHint string) error {
	body := map[string]string{"name": name}
	if locationHint != "" {
		body["locationHint"] = locationHint
	}
	_, err := c.Do(ctx, Request{
		Method:        http.MethodPost,
		Path:          c.r2Path(""),
		Body:          body,
		AccountScoped: true,
	})
	return err
}

// GetR2Bucket returns details of one bucket.
func (c *Client) GetR2Bucket(ctx context.Context, name string) (*R2Bucket, error) {
	result, err := c.Do(ctx, Request{
		Method:        http.MethodGet,
		Path:          c.r2Path("/" + name),
		AccountScoped: true,
	})
	if err != nil {
		return nil, err
	}
	var bucket R2Bucket
	if err := json.Unmarshal(result, &bucket); err != nil {
		return nil, fmt.Errorf("failed to decode R2 bucket: %w", err)
	}
	return &bucket, nil
}

// DeleteR2Bucket deletes a bucket. The bucket must be empty.
func (c *Client) DeleteR2Bucket(ctx context.Context, name string) error {
	_, err := c.Do(ctx, Request{
		Method:        http.MethodDelete,
		Path:          c.r2Path("/" + name),
		AccountScoped: true,
	})
	return err
}

// ListR2Objects lists objects in a bucket, optionally below a key prefix.
// limit caps the page size; cursor continues a previous listing.
func (c *Client) ListR2Objects(ctx context.Context, bucket, prefix, cursor string, limit int) ([]R2Object, error) {
	query := url.Values{}
	if prefix != "" {
		query.Set("prefix", prefix)
	}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	result, err := c.Do(ctx, Request{
		Method:        http.MethodGet,
		Path:          c.r2Path("/" + bucket + "/objects"),
		Query:         query,
		AccountScoped: true,
	})
	if err != nil {
		return nil, err
	}

	// Same shape drift as the bucket list: nested or flat.
	var nested struct {
		Objects []R2Object `json:"objects"`
	}
	if err := json.Unmarshal(result, &nested); err == nil && nested.Objects != nil {
		return nested.Objects, nil
	}
	var flat []R2Object
	if err := json.Unmarshal(result, &flat); err != nil {
		return nil, fmt.Errorf("failed to decode R2 object list: %w", err)
	}
	return flat, nil
}
