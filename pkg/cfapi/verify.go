package cfapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// TokenStatus is the result of the token verification endpoint.
type TokenStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// VerifyToken performs a no-op authenticated call to confirm the configured
// credentials are accepted.
func (c *Client) VerifyToken(ctx context.Context) (*TokenStatus, error) {
	result, err := c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   "/user/tokens/verify",
	})
	if err != nil {
		return nil, err
	}
	var status TokenStatus
	if err := json.Unmarshal(result, &status); err != nil {
		return nil, fmt.Errorf("failed to decode token status: %w", err)
	}
	return &status, nil
}
