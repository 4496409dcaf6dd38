// Package apiclient is a minimal HTTP client for the Ridgeline backend API.
package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"
)

// Header names the backend accepts credentials under. Which one a request
// uses depends on how the token was obtained; see app.Config.AuthHeader.
const (
	HeaderAuth   = "X-Ridgeline-Auth"
	HeaderAPIKey = "X-Ridgeline-Api-Key"
)

// Client talks to the Ridgeline API rooted at a single base URL.
type Client struct {
	baseURL    *url.URL
	authHeader string
	http       *http.Client
	userAgent  string
}

type Option func(*Client) error

// New creates a Client for the API at domain, e.g. "https://app.ridgeline.dev".
func New(domain string, opts ...Option) (*Client, error) {
	if domain == "" {
		return nil, errors.New("domain is required")
	}
	parsed, err := url.Parse(domain)
	if err != nil {
		return nil, fmt.Errorf("invalid domain: %w", err)
	}

	c := &Client{
		baseURL:    parsed,
		authHeader: HeaderAuth,
		http:       &http.Client{Timeout: 30 * time.Second},
		userAgent:  "ridgeline-cli",
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// WithAuthHeader sets the header name credentials are sent under.
func WithAuthHeader(name string) Option {
	return func(c *Client) error {
		if name == "" {
			return errors.New("auth header name is required")
		}
		c.authHeader = name
		return nil
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) error {
		if httpClient == nil {
			return errors.New("http client cannot be nil")
		}
		c.http = httpClient
		return nil
	}
}

// WithTimeout sets the per-request timeout on the underlying HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		c.http.Timeout = timeout
		return nil
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) error {
		c.userAgent = userAgent
		return nil
	}
}

// endpoint resolves p against the base URL, preserving any base path prefix.
func (c *Client) endpoint(p string) string {
	full := *c.baseURL
	full.Path = path.Join(full.Path, p)
	return full.String()
}
