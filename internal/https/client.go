// Package https provides a small JSON-over-HTTP client with optional bearer
// auth, status checking and debug logging.
package https

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/braintrustdata/prompteval-go/logger"
)

// ErrStatus is wrapped by StatusError.
var ErrStatus = errors.New("unexpected status code")

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d, body: %s", ErrStatus, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// Client is an HTTP client bound to one base URL.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the default client, which has a 30s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the debug logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		c.logger = logger.OrDiscard(l)
	}
}

// NewClient creates a client for baseURL, which is required.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GET makes a GET request with query parameters. The caller closes the body.
func (c *Client) GET(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.doRequest(req)
}

// GetJSON makes a GET request and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, out any) error {
	resp, err := c.GET(ctx, path, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	c.logger.Debug("http request",
		"method", req.Method,
		"url", req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("http request failed",
			"method", req.Method,
			"url", req.URL.String(),
			"error", err,
			"duration", time.Since(start))
		return nil, fmt.Errorf("error making request: %w", err)
	}

	c.logger.Debug("http response",
		"method", req.Method,
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	return resp, nil
}
