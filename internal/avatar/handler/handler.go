package handler

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trustdash/internal/avatar/service"
	dErrors "trustdash/pkg/domain-errors"
	"trustdash/pkg/platform/httputil"
	"trustdash/pkg/requestcontext"
)

// Service defines the interface for avatar operations.
type Service interface {
	Overview(ctx context.Context, account string) (*service.Overview, error)
	Mint(ctx context.Context, account string) (*big.Int, error)
	Send(ctx context.Context, account, recipient string, amountTC float64) (*service.Transfer, error)
}

// Handler serves the avatar endpoints for the authenticated account.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an avatar handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts avatar endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/avatar", h.HandleOverview)
	r.Post("/avatar/mint", h.HandleMint)
	r.Post("/avatar/transfer", h.HandleTransfer)
}

// HandleOverview handles GET /avatar, registering the avatar when missing.
func (h *Handler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, ok := h.requireAccount(w, ctx)
	if !ok {
		return
	}
	overview, err := h.service.Overview(ctx, account)
	if err != nil {
		h.fail(w, ctx, account, err, "load avatar")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAvatarResponse(ctx, overview))
}

// HandleMint handles POST /avatar/mint.
func (h *Handler) HandleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, ok := h.requireAccount(w, ctx)
	if !ok {
		return
	}
	balance, err := h.service.Mint(ctx, account)
	if err != nil {
		h.fail(w, ctx, account, err, "mint")
		return
	}
	h.logger.InfoContext(ctx, "personal mint completed",
		"account", account,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, &MintResponse{Balance: toAmount(ctx, balance)})
}

// HandleTransfer handles POST /avatar/transfer.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	account, ok := h.requireAccount(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	transfer, err := h.service.Send(ctx, account, req.Recipient, req.Amount)
	if err != nil {
		h.fail(w, ctx, account, err, "transfer")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &TransferResponse{
		Recipient: transfer.Recipient,
		AmountTC:  transfer.AmountTC,
		AmountCRC: transfer.AmountCRC.String(),
	})
}

func (h *Handler) requireAccount(w http.ResponseWriter, ctx context.Context) (string, bool) {
	account := requestcontext.Account(ctx)
	if account == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return "", false
	}
	return account, true
}

func (h *Handler) fail(w http.ResponseWriter, ctx context.Context, account string, err error, op string) {
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
}
