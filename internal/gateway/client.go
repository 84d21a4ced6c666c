package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"events-portal/internal/logger"
)

// Client talks to the REST backend that owns events, categories and users.
// It never retries and never caches.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *logger.Logger
}

func NewClient(baseURL string, client *http.Client, log *logger.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
		logger:  log,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) endpoint(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return c.baseURL + "/" + strings.Join(escaped, "/")
}

// do sends one request and decodes the JSON response into out when out is
// not nil. Every failure comes back as a *NetworkError.
func (c *Client) do(ctx context.Context, operation, method, target string, body, out any) error {
	start := time.Now()
	err := c.send(ctx, operation, method, target, body, out)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		c.logger.Error("GATEWAY", err.Error())
	}
	requestsTotal.WithLabelValues(operation, outcome).Inc()
	requestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	c.logger.LogGateway(operation, target, outcome)
	return err
}

func (c *Client) send(ctx context.Context, operation, method, target string, body, out any) error {
	fail := func(status int, err error) error {
		return &NetworkError{Operation: operation, Method: method, URL: target, StatusCode: status, Err: err}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fail(0, fmt.Errorf("failed to encode request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fail(0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Warn("GATEWAY", fmt.Sprintf("Failed to close response body: %v", err))
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fail(resp.StatusCode, ErrUnexpectedStatus)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fail(resp.StatusCode, fmt.Errorf("%w: %v", ErrMalformedBody, err))
	}
	return nil
}
