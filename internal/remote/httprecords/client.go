// Package httprecords is a remote.RecordStore that talks to a record API
// over HTTP, such as the one served by recordserver.
package httprecords

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/roach88/cartsync/internal/recordserver"
	"github.com/roach88/cartsync/internal/remote"
)

// maxResponse bounds how much of a response body is read.
const maxResponse = 4 << 20

// Client implements remote.RecordStore over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client (default http.DefaultClient).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a client for the record API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetRecord implements remote.RecordStore.
func (c *Client) GetRecord(ctx context.Context, key remote.RecordKey) (remote.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+recordserver.RecordPath(key), nil)
	if err != nil {
		return remote.Record{}, fmt.Errorf("httprecords: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return remote.Record{}, fmt.Errorf("httprecords: get: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return remote.Record{}, fmt.Errorf("httprecords: read body: %w", err)
	}
	if err := statusError(resp.StatusCode, body); err != nil {
		return remote.Record{}, err
	}

	rec := remote.Record{Key: key, Payload: body}
	if v := resp.Header.Get(recordserver.HeaderUpdatedAt); v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			rec.UpdatedAt = t.UTC()
		}
	}
	return rec, nil
}

// PutRecord implements remote.RecordStore.
func (c *Client) PutRecord(ctx context.Context, rec remote.Record) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+recordserver.RecordPath(rec.Key), bytes.NewReader(rec.Payload))
	if err != nil {
		return fmt.Errorf("httprecords: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if !rec.UpdatedAt.IsZero() {
		req.Header.Set(recordserver.HeaderUpdatedAt, rec.UpdatedAt.UTC().Format(time.RFC3339Nano))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("httprecords: put: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	return statusError(resp.StatusCode, body)
}

// statusError maps a response status onto the remote error taxonomy:
// 404 is a missing record, other 4xx are rejections, and everything else
// non-2xx is treated as the backend being unreachable.
func statusError(code int, body []byte) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return fmt.Errorf("httprecords: %w", remote.ErrRecordNotFound)
	case code >= 400 && code < 500:
		return remote.Rejected(fmt.Errorf("httprecords: status %d: %s", code, bytes.TrimSpace(body)))
	default:
		return errors.New("httprecords: status " + http.StatusText(code))
	}
}
