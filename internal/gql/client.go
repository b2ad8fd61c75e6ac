package gql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"framecheck/internal/logging"
	"framecheck/internal/metrics"
)

// Request is one named GraphQL operation.
type Request struct {
	OperationName string         `json:"operationName,omitempty"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Requester runs a GraphQL request and decodes its data object into out.
type Requester interface {
	Do(ctx context.Context, req Request, out any) error
}

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("graphql status %d", e.StatusCode)
}

// ResponseError carries the errors array of a response that has no data.
type ResponseError struct {
	Messages []string
}

func (e *ResponseError) Error() string {
	return "graphql errors: " + strings.Join(e.Messages, "; ")
}

// HTTPClient posts GraphQL requests to a single endpoint with a static key header.
type HTTPClient struct {
	endpoint    string
	apiKey      string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	baseBackoff time.Duration
}

type Option func(*HTTPClient)

// WithTimeout bounds each HTTP attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLimiter(rps float64, burst int) Option {
	return func(c *HTTPClient) { c.limiter = newLimiter(rps, burst) }
}

func WithRetry(maxAttempts int, baseBackoff time.Duration) Option {
	return func(c *HTTPClient) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
		if baseBackoff > 0 {
			c.baseBackoff = baseBackoff
		}
	}
}

func NewHTTPClient(endpoint, apiKey string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: 8 * time.Second},
		limiter:     newLimiter(0, 0),
		maxAttempts: 2,
		baseBackoff: 200 * time.Millisecond,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *HTTPClient) auth(req *http.Request) {
	// The key is sent as-is; the API does not expect a Bearer prefix.
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// Do posts req and decodes the response's data object into out.
func (c *HTTPClient) Do(ctx context.Context, req Request, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode %s: %w", req.OperationName, err)
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.auth(hreq)
	logging.Debug("graphql_request", map[string]any{"operation": req.OperationName, "variables": req.Variables})
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	resp, err := c.doWithRetry(ctx, hreq, req.OperationName)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logging.Warn("graphql_status", map[string]any{"operation": req.OperationName, "status": resp.StatusCode, "body": string(b)})
		return &StatusError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	var raw struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s response: %w", req.OperationName, err)
	}
	if len(raw.Errors) > 0 {
		msgs := make([]string, 0, len(raw.Errors))
		for _, e := range raw.Errors {
			msgs = append(msgs, e.Message)
		}
		if isNull(raw.Data) {
			return &ResponseError{Messages: msgs}
		}
		logging.Warn("graphql_partial_errors", map[string]any{"operation": req.OperationName, "errors": msgs})
	}
	if out == nil || isNull(raw.Data) {
		return nil
	}
	if err := json.Unmarshal(raw.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", req.OperationName, err)
	}
	return nil
}

func isNull(m json.RawMessage) bool {
	s := strings.TrimSpace(string(m))
	return s == "" || s == "null"
}

func (c *HTTPClient) doWithRetry(ctx context.Context, req *http.Request, operation string) (*http.Response, error) {
	backoff := c.baseBackoff
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			metrics.IncAPIRetry(operation)
		}
		resp, err := c.httpClient.Do(cloneWithBody(ctx, req))
		if err == nil {
			retryable := resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599)
			if !retryable || attempt == c.maxAttempts {
				return resp, nil
			}
			wait := retryAfter(resp.Header.Get("Retry-After"), backoff)
			_ = resp.Body.Close()
			lastErr = &StatusError{StatusCode: resp.StatusCode}
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
			backoff *= 2
			continue
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		if attempt == c.maxAttempts {
			break
		}
		if err := sleep(ctx, backoff); err != nil {
			return nil, err
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxAttempts, lastErr)
}

func cloneWithBody(ctx context.Context, req *http.Request) *http.Request {
	r := req.Clone(ctx)
	if req.GetBody != nil {
		if body, err := req.GetBody(); err == nil {
			r.Body = body
		}
	}
	return r
}

func retryAfter(header string, fallback time.Duration) time.Duration {
	if header == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(header); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
		return 0
	}
	return fallback
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsTimeout reports whether err came from a deadline or client timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
