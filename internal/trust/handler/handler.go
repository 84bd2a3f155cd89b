package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trustdash/internal/trust/models"
	dErrors "trustdash/pkg/domain-errors"
	"trustdash/pkg/platform/httputil"
	"trustdash/pkg/requestcontext"
)

// Service defines the interface for trust operations.
type Service interface {
	View(ctx context.Context, account string) (models.View, error)
	Refresh(ctx context.Context, account string) (models.View, error)
	Trust(ctx context.Context, account, peer string) (models.View, error)
	Untrust(ctx context.Context, account, peer string) (models.View, error)
}

// Handler renders the trust table for the authenticated account.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a trust handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts trust endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/trusts", h.HandleList)
	r.Post("/trusts/refresh", h.HandleRefresh)
	r.Post("/trusts", h.HandleTrust)
	r.Delete("/trusts/{peer}", h.HandleUntrust)
}

// HandleList handles GET /trusts.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, ok := h.requireAccount(w, ctx)
	if !ok {
		return
	}
	view, err := h.service.View(ctx, account)
	h.respond(w, ctx, account, view, err, "list trusts")
}

// HandleRefresh handles POST /trusts/refresh.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, ok := h.requireAccount(w, ctx)
	if !ok {
		return
	}
	view, err := h.service.Refresh(ctx, account)
	h.respond(w, ctx, account, view, err, "refresh trusts")
}

// HandleTrust handles POST /trusts.
func (h *Handler) HandleTrust(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	account, ok := h.requireAccount(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TrustRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	view, err := h.service.Trust(ctx, account, req.Peer)
	h.respond(w, ctx, account, view, err, "trust peer")
}

// HandleUntrust handles DELETE /trusts/{peer}.
func (h *Handler) HandleUntrust(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, ok := h.requireAccount(w, ctx)
	if !ok {
		return
	}
	view, err := h.service.Untrust(ctx, account, chi.URLParam(r, "peer"))
	h.respond(w, ctx, account, view, err, "untrust peer")
}

func (h *Handler) requireAccount(w http.ResponseWriter, ctx context.Context) (string, bool) {
	account := requestcontext.Account(ctx)
	if account == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return "", false
	}
	return account, true
}

func (h *Handler) respond(w http.ResponseWriter, ctx context.Context, account string, view models.View, err error, op string) {
	if err != nil {
		level := slog.LevelWarn
		if dErrors.HasCode(err, dErrors.CodeInternal) || dErrors.HasCode(err, dErrors.CodeUnavailable) {
			level = slog.LevelError
		}
		h.logger.Log(ctx, level, "failed to "+op,
			"account", account,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTrustsResponse(account, view))
}
