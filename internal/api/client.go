// Package api is the outbound adapter to the ledger REST API.
//
// Every request carries the current session credential, if any, as a bearer
// token. Responses are classified into *Failure values; the client exposes
// status codes but never acts on them.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"financeflow/internal/log"
	"financeflow/internal/middleware/trace"
)

const (
	// maxBodyBytes bounds how much of a response body is read.
	maxBodyBytes   = 4 << 20
	defaultTimeout = 15 * time.Second
)

// TokenSource yields the credential to attach to outbound requests.
type TokenSource interface {
	Token() (token string, ok bool)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	tokens     TokenSource
	logger     *log.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the pooled default client. WithTimeout does not
// apply to it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l.WithComponent(log.ComponentAPI) }
}

// WithTimeout sets the overall per-request timeout. A request that never
// resolves fails with KindNetwork once it expires.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// NewClient builds a client for the API rooted at baseURL. tokens may be nil
// for an anonymous client.
func NewClient(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base URL %q: missing host", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		timeout: defaultTimeout,
		tokens:  tokens,
		logger:  log.New(log.Config{Component: log.ComponentAPI}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = newPooledHTTPClient(c.logger, c.timeout)
	}
	return c, nil
}

// newPooledHTTPClient creates an HTTP client with connection pooling, dial and
// handshake timeouts and request tracing.
func newPooledHTTPClient(logger *log.Logger, timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,

		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: trace.NewTransport(transport, logger),
		Timeout:   timeout,
	}
}

// Do sends one request. body, when non-nil, is sent as JSON. On a 2xx
// response the body is decoded into out, when out is non-nil; an empty body
// or "null" leaves out untouched.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	fail := func(kind Kind, status int, msg string, err error) error {
		return &Failure{Kind: kind, Method: method, Path: path, Status: status, Message: msg, Err: err}
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "Request got no response",
			log.FieldMethod, method,
			log.FieldPath, path,
			log.FieldError, err,
			log.FieldErrorType, networkErrorType(err))
		return fail(KindNetwork, 0, "", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fail(KindNetwork, resp.StatusCode, "", fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(KindHTTP, resp.StatusCode, serverMessage(data), nil)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fail(KindDecode, resp.StatusCode, "", err)
	}
	return nil
}

func networkErrorType(err error) string {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return log.ErrorTypeTimeout
	}
	return log.ErrorTypeNetwork
}
