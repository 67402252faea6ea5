package runtimeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Header names used by the control endpoint when delivering an
// invocation event.
const (
	HeaderInvocationID = "Ignis-Invocation-Id"
	HeaderDeadlineMs   = "Ignis-Invocation-Deadline-Ms"
)

// Invocation is one event pulled from the control endpoint: an opaque
// payload plus the correlation identifier the result must be posted
// under. Deadline is zero when the provider did not send one.
type Invocation struct {
	ID       string
	Payload  []byte
	Deadline time.Time
}

// InvocationError is the error document posted to the provider when a
// handler fails.
type InvocationError struct {
	Type    string `json:"errorType"`
	Message string `json:"errorMessage"`
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Client speaks the provider's pull-based invocation protocol.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the given control endpoint. The
// endpoint may be a bare host:port or a full base URL. Next must block
// until the provider has work, so the underlying http.Client carries
// no timeout.
func NewClient(endpoint string) *Client {
	base := endpoint
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	base = strings.TrimSuffix(base, "/")
	if !strings.HasSuffix(base, "/api/v1") {
		base += "/api/v1"
	}

	return &Client{
		baseURL: base,
		http:    &http.Client{},
	}
}

// Next blocks until the control endpoint delivers the next invocation
// event. A response without the correlation header is an error: the
// result could never be posted back.
func (c *Client) Next(ctx context.Context) (*Invocation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/runtime/invocation/next", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("next invocation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("next invocation: unexpected status %d", resp.StatusCode)
	}

	id := resp.Header.Get(HeaderInvocationID)
	if id == "" {
		return nil, fmt.Errorf("next invocation: missing %s header", HeaderInvocationID)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("next invocation: read body: %w", err)
	}

	inv := &Invocation{ID: id, Payload: payload}
	if ms := resp.Header.Get(HeaderDeadlineMs); ms != "" {
		if unixMs, err := strconv.ParseInt(ms, 10, 64); err == nil {
			inv.Deadline = time.UnixMilli(unixMs)
		}
	}

	return inv, nil
}

// PostResponse posts the handler's result under the invocation's
// correlation identifier.
func (c *Client) PostResponse(ctx context.Context, id string, payload []byte) error {
	url := fmt.Sprintf("%s/runtime/invocation/%s/response", c.baseURL, id)
	return c.post(ctx, url, "application/octet-stream", payload)
}

// PostError reports a handler failure for the given invocation.
func (c *Client) PostError(ctx context.Context, id string, invErr *InvocationError) error {
	url := fmt.Sprintf("%s/runtime/invocation/%s/error", c.baseURL, id)
	doc, err := json.Marshal(invErr)
	if err != nil {
		return err
	}
	return c.post(ctx, url, "application/json", doc)
}

// PostInitError reports a failure during handler resolution, before
// any invocation has been pulled.
func (c *Client) PostInitError(ctx context.Context, invErr *InvocationError) error {
	doc, err := json.Marshal(invErr)
	if err != nil {
		return err
	}
	return c.post(ctx, c.baseURL+"/runtime/init/error", "application/json", doc)
}

func (c *Client) post(ctx context.Context, url, contentType string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post %s: unexpected status %d", url, resp.StatusCode)
	}
	return nil
}
