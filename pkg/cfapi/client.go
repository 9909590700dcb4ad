package cfapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "cfctl"

// Request describes one API call. Constructed per call, never persisted.
type Request struct {
	// Method is the HTTP method.
	Method string

	// Path is the endpoint path below the API base, already formatted
	// (e.g. "/zones/abc123/dns_records").
	Path string

	// Query holds optional query parameters.
	Query url.Values

	// Body is JSON-encoded when non-nil. Mutually exclusive with RawBody.
	Body any

	// RawBody is sent verbatim with ContentType. Used for KV plain-text
	// values and Workers multipart uploads.
	RawBody     []byte
	ContentType string

	// AccountScoped marks endpoints that require an account identifier.
	// Checked before any network call.
	AccountScoped bool

	// PreferKeyAuth reverses the scheme order so the legacy key pair is
	// tried before the token. Used by the KV endpoints.
	PreferKeyAuth bool

	// RawResponse skips envelope decoding and returns the body bytes
	// as-is. Used where the API returns a bare value, not an envelope.
	RawResponse bool
}

// Client dispatches authenticated requests against the Cloudflare API and
// classifies failures. It holds no mutable state; a single Client serves the
// whole process.
type Client struct {
	creds      Credentials
	httpClient *http.Client
}

// NewClient creates a client for the given credentials.
func NewClient(creds Credentials) *Client {
	if creds.BaseURL == "" {
		creds.BaseURL = DefaultBaseURL
	}
	return &Client{creds: creds, httpClient: http.DefaultClient}
}

// NewClientWithHTTP creates a client with an injected HTTP client, for tests.
func NewClientWithHTTP(creds Credentials, httpClient *http.Client) *Client {
	c := NewClient(creds)
	c.httpClient = httpClient
	return c
}

// AccountID exposes the configured account identifier for path construction
// by the typed operations.
func (c *Client) AccountID() string {
	return c.creds.AccountID
}

// Do performs one logical operation: validate configuration, attempt the
// request with the primary auth scheme, and on a rejected-credentials failure
// re-issue the identical request exactly once with the fallback scheme if one
// is configured. The swap fires only for invalid-auth; missing-permission,
// not-found and generic failures surface immediately. There is no other retry.
//
// On success the returned bytes are the envelope's result field (or the raw
// body for RawResponse requests).
func (c *Client) Do(ctx context.Context, req Request) ([]byte, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "cfapi.Do")
	defer span.End()

	span.SetAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("cf.path", req.Path),
	)

	if err := c.creds.checkRequest(req); err != nil {
		span.RecordError(err)
		return nil, err
	}

	schemes := c.creds.Schemes(req.PreferKeyAuth)
	span.SetAttributes(attribute.String("cf.auth_scheme", schemes[0].Name))

	result, err := c.attempt(ctx, req, schemes[0])
	if err == nil {
		return result, nil
	}

	// Single credential-swap fallback. Deliberately not a loop: the second
	// attempt's outcome is terminal whatever it is.
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Kind == KindInvalidAuth && len(schemes) > 1 {
		span.SetAttributes(attribute.String("cf.fallback_scheme", schemes[1].Name))
		result, err = c.attempt(ctx, req, schemes[1])
		if err == nil {
			return result, nil
		}
	}

	span.RecordError(err)
	return nil, err
}

// attempt issues the request once under a single auth scheme.
func (c *Client) attempt(ctx context.Context, req Request, scheme AuthScheme) ([]byte, error) {
	endpoint := c.creds.BaseURL + req.Path
	if len(req.Query) > 0 {
		endpoint += "?" + req.Query.Encode()
	}

	var body io.Reader
	contentType := "application/json"
	switch {
	case req.RawBody != nil:
		body = bytes.NewReader(req.RawBody)
		if req.ContentType != "" {
			contentType = req.ContentType
		}
	case req.Body != nil:
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	scheme.Apply(httpReq.Header)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", req.Path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", req.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classify(resp.StatusCode, decodeErrors(resp.StatusCode, payload), req.Path, scheme.Name)
	}

	if req.RawResponse {
		return payload, nil
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", req.Path, err)
	}
	if !env.Success {
		// A 2xx with success=false still carries the vendor error list.
		entries := env.Errors
		if len(entries) == 0 {
			entries = []ErrorEntry{{Message: "request was not successful"}}
		}
		return nil, classify(resp.StatusCode, entries, req.Path, scheme.Name)
	}
	return env.Result, nil
}

// envelope is the response shape every REST endpoint shares.
type envelope struct {
	Success  bool              `json:"success"`
	Result   json.RawMessage   `json:"result"`
	Errors   []ErrorEntry      `json:"errors"`
	Messages []json.RawMessage `json:"messages"`
}

// decodeErrors decodes the vendor error list from a non-2xx body, or
// synthesizes a single generic entry from the status and body text when the
// body is not a valid envelope.
func decodeErrors(status int, payload []byte) []ErrorEntry {
	var env envelope
	if err := json.Unmarshal(payload, &env); err == nil && len(env.Errors) > 0 {
		return env.Errors
	}
	return []ErrorEntry{{Code: status, Message: string(bytes.TrimSpace(payload))}}
}
