// Package middleware limits authenticated API traffic per account.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"trustdash/internal/ratelimit/models"
	"trustdash/pkg/platform/httputil"
	"trustdash/pkg/requestcontext"
)

// BucketStore is the sliding window backend.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

// Limit is the budget for one endpoint class.
type Limit struct {
	Requests int
	Window   time.Duration
}

type Middleware struct {
	store    BucketStore
	limits   map[models.EndpointClass]Limit
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithLimit overrides the budget of class.
func WithLimit(class models.EndpointClass, limit Limit) Option {
	return func(m *Middleware) {
		if class.IsValid() && limit.Requests > 0 && limit.Window > 0 {
			m.limits[class] = limit
		}
	}
}

// New creates the middleware. Reads default to 100 and writes to 30 per minute.
func New(store BucketStore, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store: store,
		limits: map[models.EndpointClass]Limit{
			models.ClassRead:  {Requests: 100, Window: time.Minute},
			models.ClassWrite: {Requests: 30, Window: time.Minute},
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.disabled {
		m.logger.Info("rate limiting disabled")
	}
	return m
}

// ClassOf maps safe methods to ClassRead and everything else to ClassWrite.
func ClassOf(r *http.Request) models.EndpointClass {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return models.ClassRead
	default:
		return models.ClassWrite
	}
}

// Handler limits requests by the authenticated account, falling back to the
// client IP. Store failures let the request through.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		class := ClassOf(r)
		limit := m.limits[class]
		key := subjectKey(ctx) + ":" + string(class)

		result, err := m.store.Allow(ctx, key, limit.Requests, limit.Window)
		if err != nil {
			m.logger.ErrorContext(ctx, "failed to check rate limit",
				"class", class,
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
			next.ServeHTTP(w, r)
			return
		}

		addRateLimitHeaders(w, result)
		if !result.Allowed {
			m.logger.WarnContext(ctx, "rate limit exceeded",
				"class", class,
				"account", requestcontext.Account(ctx),
				"request_id", requestcontext.RequestID(ctx),
			)
			writeRateLimitExceeded(w, result)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func subjectKey(ctx context.Context) string {
	if account := requestcontext.Account(ctx); account != "" {
		return "acct:" + strings.ToLower(account)
	}
	return "ip:" + requestcontext.ClientIP(ctx)
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many requests for this account. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
