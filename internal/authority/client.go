// Package authority implements the external tax authority integration: the
// HTTP client, the submission payload builder, and the classifier for the
// authority's irregularly shaped responses.
package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"taxlink/internal/config"
	"taxlink/internal/port"
)

// Client posts invoice data to the tax authority. One HTTP call per
// invocation; the submission service owns retry policy (there is none).
type Client struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewClient creates an authority client for the configured environment.
func NewClient(cfg *config.AuthorityConfig) *Client {
	return newClient(cfg, cfg.BaseURL())
}

// NewClientWithEndpoint creates a client pointing at a custom endpoint (for testing).
func NewClientWithEndpoint(cfg *config.AuthorityConfig, endpoint string) *Client {
	return newClient(cfg, endpoint)
}

func newClient(cfg *config.AuthorityConfig, endpoint string) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		token:    cfg.Token,
		client:   &http.Client{Timeout: timeout},
	}
}

// PostInvoice submits one invoice payload. Transport failures (including
// timeouts) surface as errors; any HTTP response, whatever its status, is
// returned for classification.
func (c *Client) PostInvoice(ctx context.Context, payload *port.InvoicePayload) (*port.AuthorityReply, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling authority: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading authority response: %w", err)
	}

	return &port.AuthorityReply{StatusCode: resp.StatusCode, Body: respBody}, nil
}
