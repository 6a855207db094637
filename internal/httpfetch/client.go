// Package httpfetch performs the polite, browser-like HTTP requests used to
// crawl the podcast site and download audio.
package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voxarchive/internal/services"
)

const maxPageBytes = 8 << 20

// StatusError reports an HTTP response with status >= 400.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: http %d", e.URL, e.StatusCode)
}

// Config controls request headers, timeouts and the retry delay.
type Config struct {
	UserAgent  string
	Timeout    time.Duration
	RetryDelay time.Duration
}

// Client fetches pages with one retry after a fixed delay.
type Client struct {
	cfg        Config
	httpClient *http.Client
	sleeper    func(context.Context, time.Duration) error
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSleeper overrides how delays are performed (useful for tests).
func WithSleeper(sleeper func(context.Context, time.Duration) error) Option {
	return func(c *Client) {
		if sleeper != nil {
			c.sleeper = sleeper
		}
	}
}

// New constructs a Client.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		sleeper:    Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches url and returns its body. A failed attempt is retried once
// after the configured retry delay.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	body, err := c.getOnce(ctx, url)
	if err == nil {
		return body, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if sleepErr := c.sleeper(ctx, c.cfg.RetryDelay); sleepErr != nil {
		return nil, sleepErr
	}
	body, err = c.getOnce(ctx, url)
	if err != nil {
		return nil, services.Wrap(classify(err), "", "fetch", url, err)
	}
	return body, nil
}

// GetOnce fetches url without retrying. Probes use it so a missing page costs
// a single request.
func (c *Client) GetOnce(ctx context.Context, url string) ([]byte, error) {
	body, err := c.getOnce(ctx, url)
	if err != nil {
		return nil, services.Wrap(classify(err), "", "fetch", url, err)
	}
	return body, nil
}

func (c *Client) getOnce(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	resp, err := c.do(ctx, url)
	if err != nil {
		return nil, err
	}
	defer drainAndClose(resp.Body)
	return io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
}

// Open starts a streaming GET for url. Only the wait for response headers is
// bounded by the timeout; the body may take as long as it needs. The caller
// must close the returned body.
func (c *Client) Open(ctx context.Context, url string, headerTimeout time.Duration) (io.ReadCloser, int64, error) {
	client := c.httpClient
	if headerTimeout > 0 {
		transport := http.DefaultTransport
		if c.httpClient.Transport != nil {
			transport = c.httpClient.Transport
		}
		if base, ok := transport.(*http.Transport); ok {
			clone := base.Clone()
			clone.ResponseHeaderTimeout = headerTimeout
			transport = clone
		}
		client = &http.Client{Transport: transport, CheckRedirect: c.httpClient.CheckRedirect, Jar: c.httpClient.Jar}
	}
	req, err := c.newRequest(ctx, url)
	if err != nil {
		return nil, 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, services.Wrap(classify(err), "", "download", url, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		drainAndClose(resp.Body)
		statusErr := &StatusError{URL: url, StatusCode: resp.StatusCode}
		return nil, 0, services.Wrap(classify(statusErr), "", "download", url, statusErr)
	}
	return resp.Body, resp.ContentLength, nil
}

func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := c.newRequest(ctx, url)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		drainAndClose(resp.Body)
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "", "build request", url, err)
	}
	if ua := strings.TrimSpace(c.cfg.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	return req, nil
}

// Pause waits d using the client's sleeper.
func (c *Client) Pause(ctx context.Context, d time.Duration) error {
	return c.sleeper(ctx, d)
}

// Sleep blocks for d or until ctx is cancelled.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func classify(err error) error {
	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound:
		return services.ErrNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return services.ErrTimeout
	default:
		return services.ErrTransient
	}
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}
