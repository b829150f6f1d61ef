// Package awin issues the outbound conversion call to the Awin advertiser
// API.
package awin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const defaultBaseURL = "https://api.awin.com"

// Response captures the remote call outcome verbatim. The body is never
// parsed; it is carried through for audit logging only.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Success reports whether the status code falls in [200, 300).
func (r *Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client posts serialized orders. The zero timeout of the underlying
// transport applies; this pipeline sets none of its own.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client against the production API.
func NewClient() *Client {
	return &Client{baseURL: defaultBaseURL, httpClient: http.DefaultClient}
}

// NewClientWithBaseURL returns a client against a custom endpoint. Test use.
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{baseURL: baseURL, httpClient: http.DefaultClient}
}

// EndpointURL builds the order endpoint for an advertiser account, with the
// account identifier URL-escaped.
func (c *Client) EndpointURL(advertiserID string) string {
	return fmt.Sprintf("%s/s2s/advertiser/%s/orders", c.baseURL, url.QueryEscape(advertiserID))
}

// SendOrders posts the serialized order payload and returns the remote
// status, headers and body. Transport-level failures return an error.
func (c *Client) SendOrders(ctx context.Context, advertiserID, apiKey string, body []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.EndpointURL(advertiserID), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("conversion request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       responseBody,
	}, nil
}
