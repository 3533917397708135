// Package api wraps the adoption REST backend behind a small authenticated
// JSON client. It is the single place where session expiry is detected.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/adoptly/adoptly/internal/errs"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultRetryBase = 300 * time.Millisecond

	// maxRetryAttempts bounds idempotent GET retries (total attempts).
	maxRetryAttempts = 3

	// defaultErrMessage is shown when the server body carries no message.
	defaultErrMessage = "something went wrong"
)

// TokenSource supplies the persisted bearer token and clears the session when
// the server reports it expired. Implemented by *statefile.File.
type TokenSource interface {
	Token() string
	ClearSession() error
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration // request timeout; default 10s

	// Tokens provides the bearer token; optional (anonymous client).
	Tokens TokenSource

	// OnSessionExpired is invoked after a 401 clears the stored session.
	// The composition root decides what "go to login" means; the HTTP layer
	// performs no navigation itself.
	OnSessionExpired func()

	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper

	// RetryBase overrides the first retry delay (tests).
	RetryBase time.Duration
}

// Client is an authenticated JSON client for the adoption API.
type Client struct {
	http      *http.Client
	baseURL   string
	tokens    TokenSource
	onExpired func()
	retryBase time.Duration
}

// New validates the base URL and constructs a Client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("api: empty base URL")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("api: invalid base URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retryBase := cfg.RetryBase
	if retryBase <= 0 {
		retryBase = defaultRetryBase
	}
	tr := cfg.Transport
	if tr == nil {
		tr = http.DefaultTransport
	}

	return &Client{
		http:      &http.Client{Timeout: timeout, Transport: tr},
		baseURL:   base,
		tokens:    cfg.Tokens,
		onExpired: cfg.OnSessionExpired,
		retryBase: retryBase,
	}, nil
}

// Error is a normalized API error. Status 0 means the request never produced
// an HTTP response (network failure, timeout).
type Error struct {
	Status   int
	Message  string
	sentinel error
}

// Error returns the human-readable message extracted from the response body.
func (e *Error) Error() string { return e.Message }

// Unwrap exposes the matching sentinel, if any, for errors.Is checks.
func (e *Error) Unwrap() error { return e.sentinel }

// Retryable reports whether the failure is transient: no response, a 5xx, or
// a 429. Other 4xx responses are final.
func (e *Error) Retryable() bool {
	return e.Status == 0 || e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// Get performs a single GET request with optional query parameters.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// GetRetry performs a GET with bounded retries: up to 3 total attempts with
// exponential backoff starting at 300ms. Only transient failures (network,
// 5xx, 429) are retried; mutations never go through this path.
func (c *Client) GetRetry(ctx context.Context, path string, query url.Values, out any) error {
	b := retry.WithMaxRetries(maxRetryAttempts-1, retry.NewExponential(c.retryBase))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := c.do(ctx, http.MethodGet, path, query, nil, out)
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Retryable() {
			return retry.RetryableError(err)
		}
		return err
	})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, in, out)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, in, out)
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, in, out)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// do executes one request: attach bearer, send, normalize errors, decode JSON.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	full := c.baseURL + path
	if len(query) > 0 {
		full += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, full, body)
	if err != nil {
		return fmt.Errorf("api: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Callers never see raw transport errors.
		return &Error{Status: 0, Message: "network error occurred"}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.asError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
		return nil
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return &Error{Status: 0, Message: "network error occurred"}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}

// asError converts a non-2xx response into a normalized *Error. A 401 clears
// the persisted session and fires the session-expired callback; this is the
// only place token expiry is detected.
func (c *Client) asError(resp *http.Response) error {
	msg := messageFrom(resp.Body)

	e := &Error{Status: resp.StatusCode, Message: msg}
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if c.tokens != nil {
			_ = c.tokens.ClearSession()
		}
		if c.onExpired != nil {
			c.onExpired()
		}
		e.sentinel = errs.ErrSessionExpired
	case http.StatusForbidden:
		e.sentinel = errs.ErrUnauthorized
	case http.StatusNotFound:
		e.sentinel = errs.ErrNotFound
	case http.StatusConflict:
		e.sentinel = errs.ErrConflict
	case http.StatusTooManyRequests:
		e.sentinel = errs.ErrRateLimited
	}
	return e
}

// messageFrom extracts {"message": "..."} from an error body, falling back to
// a fixed default.
func messageFrom(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil {
		return defaultErrMessage
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && strings.TrimSpace(payload.Message) != "" {
		return payload.Message
	}
	return defaultErrMessage
}
