// Package foundry is an HTTP client for a hosted agent platform: remote
// agents, threads, messages, and streaming runs. The platform's wire protocol
// is consumed here once, at the boundary; callers only see decoded types.
package foundry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cexll/foundrykit/pkg/telemetry"
)

const (
	defaultAPIVersion  = "v1"
	defaultHTTPTimeout = 60 * time.Second
)

// Client talks to one platform project endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	apiVersion string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client. Streaming runs need a
// client without a response timeout; the default only bounds non-streaming
// calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithAPIVersion overrides the api-version query parameter.
func WithAPIVersion(version string) Option {
	return func(c *Client) {
		if version != "" {
			c.apiVersion = version
		}
	}
}

// NewClient builds a Client for the project endpoint.
func NewClient(endpoint, apiKey string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if trimmed == "" {
		return nil, errors.New("foundry: endpoint is required")
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("foundry: invalid endpoint: %w", err)
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("foundry: api key is required")
	}
	c := &Client{
		endpoint:   trimmed,
		apiKey:     apiKey,
		apiVersion: defaultAPIVersion,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// APIError is a non-2xx platform response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("foundry: %s (%s, http %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("foundry: http %d: %s", e.Status, e.Message)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	u := c.endpoint + path
	if c.apiVersion != "" {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		u += sep + "api-version=" + url.QueryEscape(c.apiVersion)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("foundry: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// doJSON performs one request/response call, decoding into out when non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "foundry."+strings.ToLower(method),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("foundry.path", path),
		),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return fmt.Errorf("foundry: encode request: %w", err)
		}
		body = &buf
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("foundry: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return readAPIError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("foundry: decode response: %w", err)
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		apiErr.Message = "unreadable error body"
		return apiErr
	}
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if jsonErr := json.Unmarshal(data, &payload); jsonErr == nil && payload.Error.Message != "" {
		apiErr.Code = payload.Error.Code
		apiErr.Message = payload.Error.Message
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(data))
	return apiErr
}
