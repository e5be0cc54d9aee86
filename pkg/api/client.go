package api

import (
	"crypto/tls"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Defaults mirror the server's expectations for slow links.
const (
	DefaultTimeout     = 15 * time.Second
	DefaultMaxAttempts = 3
	DefaultRetryWait   = 10 * time.Second
)

// Client talks to one NIG server.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	ipClient    *http.Client
	token       string
	maxAttempts int
	wait        time.Duration
	logger      *logrus.Entry

	cert    *tls.Certificate
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithCertificate authenticates every connection with cert.
func WithCertificate(cert tls.Certificate) Option {
	return func(c *Client) {
		c.cert = &cert
	}
}

// WithHTTPClient replaces the HTTP client used for API requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithIPClient replaces the HTTP client used to query the public IP service.
func WithIPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.ipClient = hc
	}
}

// WithTimeout sets the per request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRetry sets how many attempts a request gets and the pause between them.
func WithRetry(maxAttempts int, wait time.Duration) Option {
	return func(c *Client) {
		if maxAttempts < 1 {
			maxAttempts = 1
		}
		c.maxAttempts = maxAttempts
		c.wait = wait
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the server at baseURL (see NormalizeURL).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     NormalizeURL(baseURL),
		maxAttempts: DefaultMaxAttempts,
		wait:        DefaultRetryWait,
		timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		c.logger = logrus.NewEntry(logger)
	}
	if c.httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if c.cert != nil {
			transport.TLSClientConfig = &tls.Config{
				Certificates: []tls.Certificate{*c.cert},
				MinVersion:   tls.VersionTLS12,
			}
		}
		c.httpClient = &http.Client{Timeout: c.timeout, Transport: transport}
	}
	if c.ipClient == nil {
		c.ipClient = &http.Client{Timeout: c.timeout}
	}
	return c
}

// WithToken returns a copy of the client sending token as bearer credentials.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// BaseURL returns the normalized server URL, always ending in "/".
func (c *Client) BaseURL() string {
	return c.baseURL
}

// NormalizeURL prefixes https:// unless the URL already uses it and ensures a
// trailing slash.
func NormalizeURL(raw string) string {
	if !strings.HasPrefix(raw, "https:") {
		raw = "https://" + raw
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	return raw
}
