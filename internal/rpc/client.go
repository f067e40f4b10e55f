// ABOUTME: Versioned JSON-POST RPC client for the platform services
// ABOUTME: POSTs request bodies to <base>/<version>/<method> and decodes structured errors

// Package rpc implements the wire protocol the platform services speak: each
// operation is a JSON POST to a date-versioned path, with failures returned
// as a structured error record in the response body.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"
)

const userAgent = "minnow-client/1"

// Client executes RPC requests against a single service base URL.
type Client struct {
	base   *url.URL
	client *http.Client
}

// NewClient returns a client for the service rooted at baseURL, e.g.
// "http://conversation.minnow.local:4002/rpc". Pass nil to use a default
// HTTP client with a sane timeout.
func NewClient(baseURL string, c *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if c == nil {
		c = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{base: u, client: c}, nil
}

// Do executes an RPC request. src is marshaled as the request body (nil for
// bodyless operations); a non-nil dst receives the decoded response body.
func (c *Client) Do(ctx context.Context, method, version string, src, dst any) error {
	var body io.Reader
	if src != nil {
		data, err := json.Marshal(src)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", method, err)
		}
		body = bytes.NewReader(data)
	}

	u := *c.base
	u.Path = path.Join(u.Path, version, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), body)
	if err != nil {
		return fmt.Errorf("building %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s/%s: %w", version, method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp, method, version)
	}

	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	return nil
}
