package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trustdash/internal/wallet"
	dErrors "trustdash/pkg/domain-errors"
	"trustdash/pkg/platform/httputil"
	"trustdash/pkg/requestcontext"
)

// Service defines the interface for wallet reads.
type Service interface {
	Balance(ctx context.Context, account string) (*wallet.Balance, error)
}

// MeResponse is the connected account with its native balance.
type MeResponse struct {
	Account      string `json:"account"`
	BalanceWei   string `json:"balance_wei"`
	BalanceEther string `json:"balance_ether"`
}

// Handler serves the connected account.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a wallet handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts wallet endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/me", h.HandleMe)
}

// HandleMe handles GET /me.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account := requestcontext.Account(ctx)
	if account == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	balance, err := h.service.Balance(ctx, account)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to read wallet balance",
			"account", account,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &MeResponse{
		Account:      account,
		BalanceWei:   balance.Wei.String(),
		BalanceEther: balance.Ether(),
	})
}
