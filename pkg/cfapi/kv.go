package cfapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// The KV endpoints set PreferKeyAuth: most scoped tokens are not granted
// Workers KV Storage, while the legacy key pair always has it. The token is
// still the fallback when no key pair is configured.

// KVNamespace is a key-value storage namespace.
type KVNamespace struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// KVKey is one key within a namespace. Expiration is a unix timestamp, zero
// when the key does not expire.
type KVKey struct {
	Name       string `json:"name"`
	Expiration int64  `json:"expiration,omitempty"`
}

func (c *Client) kvPath(parts string) string {
	return fmt.Sprintf("/accounts/%s/storage/kv/namespaces%s", c.creds.AccountID, parts)
}

// ListKVNamespaces returns all KV namespaces in the account.
func (c *Client) ListKVNamespaces(ctx context.Context) ([]KVNamespace, error) {
	result, err := c.Do(ctx, Request{
		Method:        http.MethodGet,
		Path:          c.kvPath(""),
		AccountScoped: true,
		PreferKeyAuth: true,
	})
	if err != nil {
		return nil, err
	}
	var namespaces []KVNamespace
	if err := json.Unmarshal(result, &namespaces); err != nil {
		return nil, fmt.Errorf("failed to decode KV namespaces: %w", err)
	}
	return namespaces, nil
}

// ListKVKeys lists the keys of a namespace, optionally below a prefix.
func (c *Client) ListKVKeys(ctx context.Context, namespaceID, prefix string) ([]KVKey, error) {
	query := url.Values{}
	if prefix != "" {
		query.Set("prefix", prefix)
	}
	result, err := c.Do(ctx, Request{
		Method:        http.MethodGet,
		Path:          c.kvPath("/" + namespaceID + "/keys"),
		Query:         query,
		AccountScoped: true,
		PreferKeyAuth: true,
	})
	if err != nil {
		return nil, err
	}
	var keys []KVKey
	if err := json.Unmarshal(result, &keys); err != nil {
		return nil, fmt.Errorf("failed to decode KV keys: %w", err)
	}
	return keys, nil
}

// ReadKVValue returns the raw stored value. Values are opaque bytes, not
// wrapped in the response envelope.
func (c *Client) ReadKVValue(ctx context.Context, namespaceID, key string) ([]byte, error) {
	return c.Do(ctx, Request{
		Method:        http.MethodGet,
		Path:          c.kvPath("/" + namespaceID + "/values/" + url.PathEscape(key)),
		AccountScoped: true,
		PreferKeyAuth: true,
		RawResponse:   true,
	})
}

// WriteKVValue stores value under key. expirationTTL, when positive, expires
// the key after that many seconds.
func (c *Client) WriteKVValue(ctx context.Context, namespaceID, key string, value []byte, expirationTTL int) error {
	query := url.Values{}
	if expirationTTL > 0 {
		query.Set("expiration_ttl", strconv.Itoa(expirationTTL))
	}
	_, err := c.Do(ctx, Request{
		Method:        http.MethodPut,
		Path:          c.kvPath("/" + namespaceID + "/values/" + url.PathEscape(key)),
		Query:         query,
		RawBody:       value,
		ContentType:   "text/plain",
		AccountScoped: true,
		PreferKeyAuth: true,
	})
	return err
}

// DeleteKVKey removes a key from a namespace.
func (c *Client) DeleteKVKey(ctx context.Context, namespaceID, key string) error {
	_, err := c.Do(ctx, Request{
		Method:        http.MethodDelete,
		Path:          c.kvPath("/" + namespaceID + "/values/" + url.PathEscape(key)),
		AccountScoped: true,
		PreferKeyAuth: true,
	})
	return err
}
