package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/trakhound/trakhound-core/internal/core/domain"
	"github.com/trakhound/trakhound-core/internal/core/ports/driven"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultBackoff is how long the client waits after a 429 or 503
	// without a Retry-After header.
	DefaultBackoff = 5 * time.Second

	maxErrorBody = 4096
)

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL string

	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration

	// RequestsPerSecond is the sustained rate. Zero disables limiting.
	RequestsPerSecond float64

	// Burst is the token bucket size. Zero means 1.
	Burst int

	// Auth is optional.
	Auth *AuthConfig
}

// Client talks JSON to a remote TrakHound HTTP API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	limiter *rate.Limiter

	mu      sync.Mutex
	retryAt time.Time
}

var _ driven.Client = (*Client)(nil)

// NewClient creates a client for cfg.BaseURL.
func NewClient(cfg ClientConfig) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: remote url: %v", domain.ErrInvalidConfig, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%w: remote url %q must be http or https", domain.ErrInvalidConfig, cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := max(cfg.Burst, 1)

	return &Client{
		baseURL: base,
		http:    cfg.Auth.httpClient(&http.Client{Timeout: timeout}),
		limiter: rate.NewLimiter(limit, burst),
	}, nil
}

// BaseURL returns the address of the remote instance.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// RetryAt returns the end of the current backoff window.
func (c *Client) RetryAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retryAt
}

// Get issues a GET for path and decodes the JSON reply into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post sends body as JSON to path and decodes the JSON reply into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, nil, raw, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, out any) error {
	if err := c.wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, u.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.apiError(resp, u.String())
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s reply: %w", u.Path, err)
	}
	return nil
}

// wait blocks for the backoff window and then for a token.
func (c *Client) wait(ctx context.Context) error {
	if d := time.Until(c.RetryAt()); d > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) apiError(resp *http.Response, rawURL string) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(msg)),
		URL:        rawURL,
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		apiErr.RetryAfter = DefaultBackoff
		if s := resp.Header.Get("Retry-After"); s != "" {
			if seconds, err := strconv.Atoi(s); err == nil {
				apiErr.RetryAfter = time.Duration(seconds) * time.Second
			}
		}
		c.mu.Lock()
		c.retryAt = time.Now().Add(apiErr.RetryAfter)
		c.mu.Unlock()
	}
	return apiErr
}
