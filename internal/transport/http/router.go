// Package httptransport assembles the public HTTP surface: global middleware,
// the unauthenticated probes and the authenticated /v1 API.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trustdash/internal/platform/metrics"
	"trustdash/pkg/platform/httputil"
	authmw "trustdash/pkg/platform/middleware/auth"
	"trustdash/pkg/platform/middleware/metadata"
	"trustdash/pkg/platform/middleware/request"
	"trustdash/pkg/platform/middleware/requesttime"
)

const healthTimeout = 2 * time.Second

// Registrar is implemented by every module handler.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps is everything the router mounts.
type Deps struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Validator authmw.JWTValidator
	// RateLimit runs after authentication so it can key on the account.
	RateLimit func(http.Handler) http.Handler
	// Handlers are mounted under /v1 behind bearer authentication.
	Handlers []Registrar
	// Checks are pinged by /health, keyed by component name.
	Checks map[string]HealthChecker
	// Clock overrides the request clock; nil means wall time.
	Clock func() time.Time
}

// NewRouter wires all public endpoints.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	if d.Clock != nil {
		r.Use(requesttime.MiddlewareWithClock(d.Clock))
	} else {
		r.Use(requesttime.Middleware)
	}
	r.Use(request.Logger(logger))
	r.Use(request.Recoverer(logger))
	r.Use(d.Metrics.Middleware)

	r.Get("/health", health(d.Checks))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(authmw.RequireAuth(d.Validator, logger))
		if d.RateLimit != nil {
			v1.Use(d.RateLimit)
		}
		for _, h := range d.Handlers {
			h.Register(v1)
		}
	})
	return r
}

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

func health(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Components = make(map[string]string, len(checks))
		}
		for name, check := range checks {
			if err := check.Health(ctx); err != nil {
				resp.Components[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Components[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
