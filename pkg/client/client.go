// Package client is a small 3scale admin API client. It sends one request per
// call and hands back the response with its body still unread; the body is
// fetched on first use and cached.
//
// Auth: the provider access token is sent as the access_token query parameter.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ormasoftchile/sjsh/internal/logging"
)

const (
	// DefaultTimeout bounds a whole request including reading the body.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent identifies the shell to the API.
	DefaultUserAgent = "sjsh"

	tokenParam = "access_token"
)

// ErrNoResponse is returned when a response is needed but none was received yet.
var ErrNoResponse = errors.New("no response")

// Endpoint is the remote host a request goes to.
type Endpoint struct {
	URL   *url.URL
	Token string
}

// ParseEndpoint validates rawURL. It must be absolute with a scheme and host.
func ParseEndpoint(rawURL, token string) (Endpoint, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid host url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Endpoint{}, fmt.Errorf("invalid host url %q: scheme must be http or https", rawURL)
	}
	if u.Host == "" {
		return Endpoint{}, fmt.Errorf("invalid host url %q: missing host", rawURL)
	}
	return Endpoint{URL: u, Token: token}, nil
}

// Client sends calls to 3scale endpoints.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string

	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.HTTPClient = hc
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.UserAgent = ua
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client. A non-positive timeout selects DefaultTimeout.
func New(timeout time.Duration, opts ...Option) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		UserAgent:  DefaultUserAgent,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.HTTPClient == nil {
		return nil, errors.New("client: nil http client")
	}
	return c, nil
}

// Send performs call against ep. The returned response must be closed by the
// caller.
func (c *Client) Send(ctx context.Context, ep Endpoint, call Call) (*Response, error) {
	if ep.URL == nil {
		return nil, errors.New("no host selected")
	}
	req, err := c.newRequest(ctx, ep, call)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", call.Method, "path", call.Path, "request_id", requestID, "error", err)
		return nil, fmt.Errorf("request: %w", err)
	}
	c.logger.Debug("request done",
		"method", call.Method,
		"path", call.Path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"elapsed", time.Since(start))
	return newResponse(resp), nil
}

func (c *Client) newRequest(ctx context.Context, ep Endpoint, call Call) (*http.Request, error) {
	u := *ep.URL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(call.Path, "/")
	u.RawPath = ""

	q, err := url.ParseQuery(call.Query)
	if err != nil {
		return nil, fmt.Errorf("invalid query string %q: %w", call.Query, err)
	}
	if ep.Token != "" {
		q.Set(tokenParam, ep.Token)
	}
	u.RawQuery = q.Encode()

	var body io.Reader
	if call.Body != "" {
		body = strings.NewReader(call.Body)
	}
	req, err := http.NewRequestWithContext(ctx, string(call.Method), u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if call.Body != "" {
		req.Header.Set("Content-Type", contentType(call.Body))
	}
	return req, nil
}

// contentType guesses between a JSON document and form parameters.
func contentType(body string) string {
	trimmed := strings.TrimSpace(body)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return "application/json"
	}
	return "application/x-www-form-urlencoded"
}
