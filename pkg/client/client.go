// Package client is the Go SDK for the AuthBridge API.
//
// It is a thin wrapper over net/http: one Request method carries every
// verb, JSON in and out, with the bearer token injected from a
// TokenStore. Errors are logged at the call site and propagated
// unchanged; the client never retries, since whether a failed call
// should be repeated is the caller's decision, not the transport's.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultTimeout = 30 * time.Second

// APIError is the error payload the API returns for non-2xx responses.
// It mirrors the server's HTTPError schema.
type APIError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Status   int    `json:"status"`
	Override bool   `json:"override"`

	Errors []FieldError `json:"errors,omitempty"`
}

// FieldError is a field-level validation error inside an APIError.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

// Client calls the AuthBridge API.
type Client struct {
	base   string
	http   *http.Client
	tokens TokenStore
	logger zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client, e.g. to change
// timeouts or inject a test transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTokenStore sets where the access token is read from and written
// to. Defaults to an in-memory store.
func WithTokenStore(store TokenStore) Option {
	return func(c *Client) {
		c.tokens = store
	}
}

// WithLogger sets the logger. Defaults to a no-op logger, so the SDK is
// silent unless the caller opts in.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for the API at base (e.g. "http://localhost:8080").
func New(base string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
				ForceAttemptHTTP2:   true,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		tokens: NewMemoryTokenStore(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request performs an API call and decodes the JSON response into out.
//
//   - method: one of GET, POST, PUT, PATCH, DELETE; anything else is an
//     error before a connection is ever opened
//   - path: API path starting with "/", e.g. "/api/v1/notes"
//   - payload: marshaled to JSON as the request body; nil sends no body
//   - out: pointer the response body is decoded into; nil discards it
//
// Non-2xx responses return *APIError. Every failure is logged here and
// then returned as-is, so callers see the same error that was logged.
func (c *Client) Request(ctx context.Context, method, path string, payload, out interface{}) error {
	logger := c.logger.With().
		Str("method", method).
		Str("path", path).
		Logger()

	var body io.Reader
	switch method {
	case http.MethodGet, http.MethodDelete:
		// No body for reads and deletes.
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		if payload != nil {
			raw, err := json.Marshal(payload)
			if err != nil {
				logger.Error().Err(err).Msg("failed to encode request payload")
				return fmt.Errorf("encoding request payload: %w", err)
			}
			body = bytes.NewReader(raw)
		}
	default:
		err := fmt.Errorf("unsupported HTTP method %q", method)
		logger.Error().Err(err).Msg("rejected request")
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build request")
		return err
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, err := c.tokens.Token(); err == nil && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("request failed")
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := c.decodeError(res)
		logger.Warn().
			Int("status", res.StatusCode).
			Str("code", apiErr.Code).
			Dur("duration", time.Since(start)).
			Msg("request rejected")
		return apiErr
	}

	if out != nil && res.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			logger.Error().Err(err).Msg("failed to decode response")
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	logger.Debug().
		Int("status", res.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("request completed")

	return nil
}

// decodeError turns an error response into an *APIError, falling back to
// status text when the body is not the expected JSON shape.
func (c *Client) decodeError(res *http.Response) *APIError {
	apiErr := &APIError{}

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err == nil && len(raw) > 0 {
		if json.Unmarshal(raw, apiErr) == nil && apiErr.Status != 0 {
			return apiErr
		}
	}

	return &APIError{
		Code:    strings.ToUpper(strings.ReplaceAll(http.StatusText(res.StatusCode), " ", "_")),
		Message: http.StatusText(res.StatusCode),
		Status:  res.StatusCode,
	}
}
