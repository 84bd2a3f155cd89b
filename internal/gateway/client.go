// Package gateway is a REST client for a remote Circles gateway. It implements
// both the trust ledger and the avatar hub ports. Every call runs inside a
// circuit breaker; only transport failures and 5xx responses count against it.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

const (
	defaultTimeout  = 10 * time.Second
	maxErrorBody    = 4 << 10
	breakerName     = "circles-gateway"
	contentTypeJSON = "application/json"
)

// StatusError is a non-2xx gateway response.
type StatusError struct {
	Status int
	// Reason is the gateway's "error" field, or the status text.
	Reason string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway responded %d: %s", e.Status, e.Reason)
}

func (e *StatusError) clientError() bool {
	return e.Status >= 400 && e.Status < 500
}

// BreakerSettings configures the circuit breaker.
type BreakerSettings struct {
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// Interval after which closed-state counts reset.
	Interval time.Duration
	// Timeout before an open breaker becomes half-open.
	Timeout time.Duration
	// MinRequests before the failure ratio is evaluated.
	MinRequests  uint32
	FailureRatio float64
}

// DefaultBreakerSettings trips after 60% failures over at least 5 requests.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  3,
		Interval:     30 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	}
}

// Client talks to the Circles gateway.
type Client struct {
	baseURL  string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	settings BreakerSettings
	metrics  *Metrics
	logger   *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithBreakerSettings(s BreakerSettings) Option {
	return func(c *Client) {
		c.settings = s
	}
}

// New creates a gateway client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid gateway url %q", baseURL)
	}
	c := &Client{
		baseURL:  strings.TrimRight(u.String(), "/"),
		http:     &http.Client{Timeout: defaultTimeout},
		settings: DefaultBreakerSettings(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}

	settings := c.settings
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= settings.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			c.metrics.SetBreakerState(to)
		},
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.clientError()
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	c.metrics.SetBreakerState(gobreaker.StateClosed)
	return c, nil
}

// BreakerState reports the current circuit breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// do sends a JSON request and decodes a JSON response into out when non-nil.
// Returned errors are transport errors, breaker errors or *StatusError.
func (c *Client) do(ctx context.Context, endpoint, method, path string, in, out any) error {
	start := time.Now()
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.roundTrip(ctx, method, path, in, out)
	})
	c.metrics.ObserveRequest(endpoint, result(err), time.Since(start))
	if err != nil {
		c.logger.DebugContext(ctx, "gateway request failed",
			"endpoint", endpoint,
			"method", method,
			"path", path,
			"error", err,
		)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode gateway request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Accept", contentTypeJSON)
	if in != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) *StatusError {
	se := &StatusError{Status: resp.StatusCode, Reason: http.StatusText(resp.StatusCode)}
	var body struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if json.Unmarshal(raw, &body) == nil && strings.TrimSpace(body.Error) != "" {
		se.Reason = body.Error
	}
	return se
}

func result(err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "short_circuited"
	case errors.As(err, &se) && se.clientError():
		return "rejected"
	default:
		return "failed"
	}
}

// rejection returns the gateway's reason when err is a 4xx response.
func rejection(err error) (string, bool) {
	var se *StatusError
	if errors.As(err, &se) && se.clientError() {
		return se.Reason, true
	}
	return "", false
}

func isNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}

func avatarPath(account string, rest ...string) string {
	parts := append([]string{"/avatars", url.PathEscape(strings.ToLower(strings.TrimSpace(account)))}, rest...)
	return strings.Join(parts, "/")
}
