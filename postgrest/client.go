// Package postgrest implements the syncbox Remote contract against a
// PostgREST-style HTTP endpoint. Rejected writes are decoded into structured
// RemoteError values (message, code, details, hint) so the error classifier
// can place them in its taxonomy.
package postgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tradewell/syncbox"
)

const defaultTimeout = 30 * time.Second

// Client talks to a PostgREST base URL, one collection per table.
type Client struct {
	http    *resty.Client
	baseURL string
}

var _ syncbox.Remote = (*Client)(nil)

// Config defines remote client behavior.
type Config struct {
	// Timeout bounds each request; zero means the default 30s.
	Timeout time.Duration
	// Token, when set, is sent as a bearer Authorization header.
	Token string
	// Headers are extra headers sent with every request (e.g., an apikey).
	Headers map[string]string
}

// New constructs a Client for the given base URL.
func New(baseURL string, cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.Token != "" {
		http.SetAuthToken(cfg.Token)
	}
	for key, value := range cfg.Headers {
		http.SetHeader(key, value)
	}

	return &Client{http: http, baseURL: baseURL}
}

// Upsert writes a row into a collection, resolving conflicts on conflictKey
// via PostgREST merge-duplicates semantics.
func (c *Client) Upsert(ctx context.Context, collection string, row map[string]any, conflictKey string) error {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Prefer", "resolution=merge-duplicates,return=minimal").
		SetBody(row)
	if conflictKey != "" {
		req.SetQueryParam("on_conflict", conflictKey)
	}

	resp, err := req.Post("/" + url.PathEscape(collection))
	if err != nil {
		return fmt.Errorf("postgrest: upsert %s: %w", collection, err)
	}

	return decodeFailure(resp)
}

// Delete removes rows from a collection where column equals value.
func (c *Client) Delete(ctx context.Context, collection, column, value string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam(column, "eq."+value).
		Delete("/" + url.PathEscape(collection))
	if err != nil {
		return fmt.Errorf("postgrest: delete %s: %w", collection, err)
	}

	return decodeFailure(resp)
}

// Ping reports whether the remote answers at all; used as a cheap online
// probe by connectivity sources.
func (c *Client) Ping(ctx context.Context) bool {
	resp, err := c.http.R().SetContext(ctx).Head("/")

	return err == nil && resp.StatusCode() < 500
}

func decodeFailure(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}

	remoteErr := &syncbox.RemoteError{}
	var body struct {
		Message string `json:"message"`
		Code    string `json:"code"`
		Details string `json:"details"`
		Hint    string `json:"hint"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Message != "" {
		remoteErr.Message = body.Message
		remoteErr.Code = body.Code
		remoteErr.Details = body.Details
		remoteErr.Hint = body.Hint
	} else {
		remoteErr.Message = fmt.Sprintf("unexpected status %d: %s", resp.StatusCode(), resp.Body())
	}

	return remoteErr
}
