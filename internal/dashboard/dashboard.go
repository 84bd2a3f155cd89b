// Package dashboard assembles the account overview: native balance, avatar and
// trust relations, fetched concurrently.
package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	avatarservice "trustdash/internal/avatar/service"
	trustmodels "trustdash/internal/trust/models"
	"trustdash/internal/wallet"
	dErrors "trustdash/pkg/domain-errors"
	"trustdash/pkg/platform/httputil"
	"trustdash/pkg/requestcontext"
)

const overviewTimeout = 8 * time.Second

type WalletReader interface {
	Balance(ctx context.Context, account string) (*wallet.Balance, error)
}

type AvatarReader interface {
	Overview(ctx context.Context, account string) (*avatarservice.Overview, error)
}

type TrustReader interface {
	View(ctx context.Context, account string) (trustmodels.View, error)
}

// Overview is everything the dashboard shows for one account.
type Overview struct {
	Account string
	Wallet  *wallet.Balance
	Avatar  *avatarservice.Overview
	Trusts  trustmodels.View
}

// Service gathers the overview.
type Service struct {
	wallet WalletReader
	avatar AvatarReader
	trust  TrustReader
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a dashboard Service.
func New(w WalletReader, a AvatarReader, t TrustReader, opts ...Option) (*Service, error) {
	if w == nil || a == nil || t == nil {
		return nil, errors.New("wallet, avatar and trust readers are required")
	}
	s := &Service{
		wallet: w,
		avatar: a,
		trust:  t,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Overview fetches the three parts concurrently; the first failure cancels the rest.
func (s *Service) Overview(ctx context.Context, account string) (*Overview, error) {
	ctx, cancel := context.WithTimeout(ctx, overviewTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	overview := &Overview{Account: account}

	g.Go(func() error {
		balance, err := s.wallet.Balance(ctx, account)
		if err != nil {
			return err
		}
		overview.Wallet = balance
		return nil
	})
	g.Go(func() error {
		avatar, err := s.avatar.Overview(ctx, account)
		if err != nil {
			return err
		}
		overview.Avatar = avatar
		return nil
	})
	g.Go(func() error {
		view, err := s.trust.View(ctx, account)
		if err != nil {
			return err
		}
		overview.Trusts = view
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return overview, nil
}

// Response is the GET /dashboard body.
type Response struct {
	Account      string    `json:"account"`
	BalanceWei   string    `json:"balance_wei"`
	BalanceEther string    `json:"balance_ether"`
	AvatarType   string    `json:"avatar_type"`
	CRCBalance   string    `json:"crc_balance"`
	CRCMintable  string    `json:"crc_mintable"`
	Incoming     int       `json:"incoming"`
	Outgoing     int       `json:"outgoing"`
	Mutual       int       `json:"mutual"`
	Pending      int       `json:"pending"`
	FetchedAt    time.Time `json:"fetched_at"`
}

func toResponse(ctx context.Context, o *Overview) *Response {
	resp := &Response{
		Account:      o.Account,
		BalanceWei:   o.Wallet.Wei.String(),
		BalanceEther: o.Wallet.Ether(),
		AvatarType:   string(o.Avatar.Avatar.Type),
		CRCBalance:   amount(o.Avatar.Balance),
		CRCMintable:  amount(o.Avatar.Mintable),
		Pending:      len(o.Trusts.Pending),
		FetchedAt:    requestcontext.Now(ctx),
	}
	for _, rel := range o.Trusts.Relations {
		switch rel.Direction {
		case trustmodels.DirectionIncoming:
			resp.Incoming++
		case trustmodels.DirectionOutgoing:
			resp.Outgoing++
		case trustmodels.DirectionMutual:
			resp.Mutual++
		}
	}
	return resp
}

func amount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// Handler serves GET /dashboard.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs a dashboard handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the dashboard endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/dashboard", h.HandleDashboard)
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account := requestcontext.Account(ctx)
	if account == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	overview, err := h.service.Overview(ctx, account)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to build dashboard",
			"account", account,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(ctx, overview))
}
