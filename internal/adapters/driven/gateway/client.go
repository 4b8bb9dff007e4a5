package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.Gateway = (*Client)(nil)

// Default configuration values.
const (
	DefaultTimeout         = time.Duration(domain.DefaultTimeoutSeconds) * time.Second
	DefaultRetryInterval   = 250 * time.Millisecond
	DefaultMaxRetryBackoff = 5 * time.Second

	// maxErrorBody bounds how much of a non-JSON error body is surfaced.
	maxErrorBody = 512
)

// Config holds configuration for the gateway client.
type Config struct {
	// BaseURL is the gateway base URL (default: http://localhost:8000).
	BaseURL string

	// Timeout bounds each request (default: 120s).
	Timeout time.Duration

	// MaxRetries is the retry budget for list, info and health calls.
	MaxRetries int

	// RetryInterval is the first backoff interval (default: 250ms).
	RetryInterval time.Duration

	// RateLimit caps requests per second. Zero disables limiting.
	RateLimit float64

	// HTTPClient overrides the underlying client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client talks to the retrieval-augmented chat backend.
type Client struct {
	http          *http.Client
	baseURL       string
	maxRetries    int
	retryInterval time.Duration
	limiter       *rate.Limiter
}

// NewClient creates a new gateway client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = domain.DefaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Client{
		http:          httpClient,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		maxRetries:    cfg.MaxRetries,
		retryInterval: cfg.RetryInterval,
	}
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c
}

// BaseURL returns the gateway base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends req and decodes a 2xx JSON body into out.
func (c *Client) do(req *http.Request, op string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return toNetworkError(op, err)
		}
	}

	logger.Debug("%s %s", req.Method, req.URL.Redacted())
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return toNetworkError(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return toNetworkError(op, err)
	}
	logger.Debug("%s -> %d in %s", op, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.ServerError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(resp.StatusCode, body),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// getJSON issues a retried GET for an idempotent read.
func getJSON[T any](ctx context.Context, c *Client, op, path string) (T, error) {
	attempt := func() (T, error) {
		var out T
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return out, fmt.Errorf("%s: create request: %w", op, err)
		}
		err = c.do(req, op, &out)
		return out, err
	}

	if c.maxRetries == 0 {
		return attempt()
	}

	return backoff.Retry(ctx, func() (T, error) {
		out, err := attempt()
		if err != nil && !retryable(ctx, err) {
			return out, backoff.Permanent(err)
		}
		if err != nil {
			logger.Debug("%s failed, retrying: %v", op, err)
		}
		return out, err
	},
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(uint(c.maxRetries+1)),
	)
}

func (c *Client) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	b.MaxInterval = DefaultMaxRetryBackoff
	return b
}

// retryable reports whether a failed read may succeed on another attempt.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if domain.IsNetwork(err) {
		return true
	}
	var se *domain.ServerError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}

func toNetworkError(op string, err error) *domain.NetworkError {
	timeout := errors.Is(err, context.DeadlineExceeded)
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		timeout = true
	}
	return &domain.NetworkError{Op: op, Err: err, Timeout: timeout}
}

// parseDetail extracts the backend's "detail" message from an error body.
// Detail is either a string or a list of validation errors with "msg" fields.
func parseDetail(status int, body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var text string
		if err := json.Unmarshal(payload.Detail, &text); err == nil {
			return text
		}

		var items []struct {
			Msg string `json:"msg"`
			Loc []any  `json:"loc"`
		}
		if err := json.Unmarshal(payload.Detail, &items); err == nil && len(items) > 0 {
			msgs := make([]string, 0, len(items))
			for _, item := range items {
				if item.Msg != "" {
					msgs = append(msgs, item.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
		return string(payload.Detail)
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		if len(text) > maxErrorBody {
			cut := maxErrorBody
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			text = text[:cut] + "..."
		}
		return text
	}
	return http.StatusText(status)
}
