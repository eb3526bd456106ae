// Package gateway executes JSON requests against the identity and geo
// services and maps every failure onto a small error taxonomy.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"tracker-parent/internal/logger"
)

const DefaultTimeout = 120 * time.Second

// Requester is the capability services depend on; *Client is the real one.
type Requester interface {
	Get(ctx context.Context, rawURL string, headers map[string]string, out any, opts ...Option) error
	Post(ctx context.Context, rawURL string, headers map[string]string, body, out any, opts ...Option) error
	Delete(ctx context.Context, rawURL string, headers map[string]string, body, out any, opts ...Option) error
}

type Options struct {
	Platform   string
	AppVersion string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

type Client struct {
	http     *http.Client
	defaults map[string]string
	timeout  time.Duration
	log      *zap.Logger
}

func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	version := opts.AppVersion
	if version == "" {
		version = "1.0.0"
	}

	return &Client{
		http: httpClient,
		defaults: map[string]string{
			"Content-Type":  "application/json",
			"Accept":        "application/json",
			"x-app-os":      opts.Platform,
			"x-app-version": version,
		},
		timeout: timeout,
		log:     logger.OrNop(opts.Logger),
	}
}

type callOptions struct {
	timeout time.Duration
}

type Option func(*callOptions)

func WithTimeout(d time.Duration) Option {
	return func(o *callOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string, out any, opts ...Option) error {
	return c.perform(ctx, http.MethodGet, rawURL, headers, nil, out, opts)
}

func (c *Client) Post(ctx context.Context, rawURL string, headers map[string]string, body, out any, opts ...Option) error {
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}
	return c.perform(ctx, http.MethodPost, rawURL, headers, payload, out, opts)
}

func (c *Client) Delete(ctx context.Context, rawURL string, headers map[string]string, body, out any, opts ...Option) error {
	payload, err := encodeBody(body)
	if err != nil {
		return err
	}
	return c.perform(ctx, http.MethodDelete, rawURL, headers, payload, out, opts)
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, &EncodingError{Message: fmt.Sprintf("Failed to encode body: %v", err)}
	}
	return data, nil
}

func (c *Client) perform(ctx context.Context, method, rawURL string, headers map[string]string, body []byte, out any, opts []Option) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrInvalidURL
	}

	call := callOptions{timeout: c.timeout}
	for _, opt := range opts {
		opt(&call)
	}
	ctx, cancel := context.WithTimeout(ctx, call.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return ErrInvalidURL
	}
	c.applyHeaders(req, headers)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("gateway request failed", zap.String("method", method), zap.String("url", rawURL), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	c.log.Debug("gateway request",
		zap.String("method", method),
		zap.String("url", rawURL),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{StatusCode: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &DecodingError{Message: fmt.Sprintf("Failed to decode response data: %v", err)}
	}
	return nil
}

// applyHeaders sets the defaults, then the caller's headers; the caller
// wins on a collision regardless of key casing.
func (c *Client) applyHeaders(req *http.Request, headers map[string]string) {
	for k, v := range c.defaults {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
}
