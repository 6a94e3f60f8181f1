package mcws

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"untethered/internal/logging"
	"untethered/internal/services"
)

const (
	apiPrefix      = "/MCWS/v1"
	connectTimeout = time.Second
	readTimeout    = 5 * time.Second
	maxBodyBytes   = 1 << 20
	statusOK       = "OK"
)

// ErrAuthenticationFailed is returned when the device rejects session setup.
var ErrAuthenticationFailed = errors.New("mcws authentication failed")

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Credentials is the optional basic-auth pair sent with every request.
type Credentials struct {
	Username string
	Password string
}

// Option customises Client construction.
type Option func(*Client)

// WithHTTPClient overrides the HTTP backend.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithBaseURL overrides the computed service URL (used in tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client talks to one device endpoint. The session is created lazily on the
// first call and reused for the lifetime of the client.
type Client struct {
	baseURL string
	creds   *Credentials
	client  HTTPDoer
	logger  *slog.Logger

	mu        sync.Mutex
	connected bool
	token     string
}

// NewClient builds a client for address (host or host:port).
func NewClient(address string, secure bool, creds *Credentials, opts ...Option) *Client {
	scheme := "http"
	if secure {
		scheme = "https"
	}
	c := &Client{
		baseURL: fmt.Sprintf("%s://%s%s", scheme, strings.TrimSpace(address), apiPrefix),
		creds:   creds,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = newHTTPClient()
	}
	c.logger = logging.NewComponentLogger(c.logger, "mcws")
	return c
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: connectTimeout + readTimeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: connectTimeout}).DialContext,
			TLSHandshakeTimeout:   readTimeout,
			ResponseHeaderTimeout: readTimeout,
		},
	}
}

// BaseURL returns the service root used for requests.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Connected reports whether a session has been established.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Token returns the session token issued by the device, if any.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Authenticate establishes the session. It is called lazily by Call and
// Search; an explicit call forces a new handshake.
func (c *Client) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	c.connected = false
	c.token = ""
	c.mu.Unlock()

	resp := c.get(ctx, "Authenticate", nil)
	switch resp.Outcome {
	case OutcomeTransport:
		return services.Wrap(services.ErrExternalTool, "mcws", "authenticate", "request failed", errors.Join(ErrAuthenticationFailed, resp.Err))
	case OutcomeFailed:
		return services.Wrap(services.ErrUnauthorized, "mcws", "authenticate", describe(resp), ErrAuthenticationFailed)
	}

	token, _ := resp.Field("Token")
	c.mu.Lock()
	c.connected = true
	c.token = token
	c.mu.Unlock()
	logging.WithContext(ctx, c.logger).Info("mcws session established", logging.String("endpoint", c.baseURL), logging.Bool("token_issued", token != ""))
	return nil
}

func (c *Client) ensureSession(ctx context.Context) error {
	if c.Connected() {
		return nil
	}
	return c.Authenticate(ctx)
}

// Call issues a command or query. The returned error is non-nil only when the
// session cannot be established; every other failure is reported through the
// Response outcome.
func (c *Client) Call(ctx context.Context, path string, params url.Values) (Response, error) {
	if err := c.ensureSession(ctx); err != nil {
		return Response{Outcome: OutcomeTransport, Err: err}, err
	}
	return c.get(ctx, path, params), nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) Response {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if encoded := encodeParams(params); encoded != "" {
		target += "?" + encoded
	}
	logging.WithContext(ctx, c.logger).Debug("mcws request", logging.String("path", path), logging.String("params", encodeParams(params)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return c.finish(ctx, path, Response{Outcome: OutcomeTransport, Err: fmt.Errorf("build request: %w", err)})
	}
	req.Header.Set("Accept", "application/xml")
	req.Header.Set("User-Agent", userAgent)
	if c.creds != nil {
		req.SetBasicAuth(c.creds.Username, c.creds.Password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return c.finish(ctx, path, Response{Outcome: OutcomeTransport, Err: fmt.Errorf("mcws request failed: %w", err)})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return c.finish(ctx, path, Response{Outcome: OutcomeTransport, Err: fmt.Errorf("read response: %w", err)})
	}
	if resp.StatusCode != http.StatusOK {
		return c.finish(ctx, path, Response{Outcome: OutcomeFailed, Err: fmt.Errorf("mcws %s returned %d", path, resp.StatusCode)})
	}

	var envelope xmlResponse
	if err := xml.Unmarshal(body, &envelope); err != nil {
		return c.finish(ctx, path, Response{Outcome: OutcomeFailed, Err: fmt.Errorf("decode response: %w", err)})
	}
	out := Response{Status: envelope.Status, Fields: envelope.fields()}
	if envelope.Status != statusOK {
		out.Outcome = OutcomeFailed
	}
	return c.finish(ctx, path, out)
}

func (c *Client) finish(ctx context.Context, path string, resp Response) Response {
	attrs := []logging.Attr{
		logging.String("path", path),
		logging.String("outcome", resp.Outcome.String()),
	}
	if resp.Status != "" {
		attrs = append(attrs, logging.String("status", resp.Status))
	}
	if resp.Err != nil {
		attrs = append(attrs, logging.Error(resp.Err))
	}
	logging.WithContext(ctx, c.logger).Debug("mcws response", logging.Args(attrs...)...)
	return resp
}

func describe(resp Response) string {
	if resp.Err != nil {
		return resp.Err.Error()
	}
	if resp.Status != "" {
		return "status " + resp.Status
	}
	return "rejected"
}

// encodeParams percent-encodes spaces as %20, which the device expects.
func encodeParams(params url.Values) string {
	if len(params) == 0 {
		return ""
	}
	return strings.ReplaceAll(params.Encode(), "+", "%20")
}

const userAgent = "untethered/0.1.0"
