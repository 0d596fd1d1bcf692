package apiclient

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// DefaultPrefix is the versioned path prefix of every backend route.
const DefaultPrefix = "/v1"

// Client is a client for the dance studio REST backend.
type Client struct {
	BaseURL    string
	Prefix     string
	HTTPClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Jar is kept when
// set, so callers providing their own client are responsible for cookies.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithJar sets the cookie jar used to carry the session cookie.
func WithJar(jar http.CookieJar) Option {
	return func(c *Client) { c.HTTPClient.Jar = jar }
}

// WithTransport sets the round tripper, typically a chain of httpx
// middlewares.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.HTTPClient.Transport = rt }
}

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(c *Client) { c.Prefix = "/" + strings.Trim(prefix, "/") }
}

// New creates a client. Without WithJar an in-memory cookie jar is used.
//
// No request timeout is set on purpose: requests rely on transport defaults
// and on the caller's context.
func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		Prefix:     DefaultPrefix,
		HTTPClient: &http.Client{},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.HTTPClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		c.HTTPClient.Jar = jar
	}

	return c, nil
}
