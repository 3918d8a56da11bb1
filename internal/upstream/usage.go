package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

var (
	// ErrUnauthorized indicates the credential was rejected by the provider.
	ErrUnauthorized = errors.New("credential expired or rejected by provider")
	// ErrRateLimited indicates the provider throttled the request.
	ErrRateLimited = errors.New("provider rate limit exceeded")
	// ErrUnavailable indicates the provider could not be reached or failed.
	ErrUnavailable = errors.New("provider temporarily unavailable")
)

// Limits is the usage report returned by the provider for one credential.
type Limits struct {
	SubscriptionTitle string     `json:"subscriptionTitle"`
	CurrentUsage      float64    `json:"currentUsage"`
	UsageLimit        float64    `json:"usageLimit"`
	NextResetAt       *time.Time `json:"nextResetAt"`
}

// Fetcher retrieves usage limits for a credential by pool index.
type Fetcher interface {
	UsageLimits(ctx context.Context, credentialIndex int) (Limits, error)
}

// Client fetches usage limits over HTTP.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// ClientOption configures Client behaviour.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client (primarily for tests).
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient constructs a usage client for the given endpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UsageLimits queries the provider for the credential at the given index.
func (c *Client) UsageLimits(ctx context.Context, credentialIndex int) (Limits, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return Limits{}, fmt.Errorf("build usage request: %w", err)
	}
	q := req.URL.Query()
	q.Set("credential", strconv.Itoa(credentialIndex))
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Limits{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Limits{}, fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return Limits{}, fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode >= http.StatusInternalServerError:
		return Limits{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return Limits{}, fmt.Errorf("unexpected usage response status %d", resp.StatusCode)
	}

	var limits Limits
	if err := json.NewDecoder(resp.Body).Decode(&limits); err != nil {
		return Limits{}, fmt.Errorf("decode usage response: %w", err)
	}
	return limits, nil
}
