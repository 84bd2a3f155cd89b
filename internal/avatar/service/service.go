// Package service runs avatar actions for the connected account: lookup or
// registration, the balance overview, personal minting and transfers.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"trustdash/internal/avatar/metrics"
	"trustdash/internal/avatar/ports"
	"trustdash/pkg/circles"
	dErrors "trustdash/pkg/domain-errors"
	"trustdash/pkg/platform/audit"
	"trustdash/pkg/requestcontext"
)

const overviewTimeout = 5 * time.Second

// Overview is the avatar together with its token amounts in atto-CRC.
type Overview struct {
	Avatar   ports.Avatar
	Mintable *big.Int
	Balance  *big.Int
	// Registered is true when this call registered the avatar.
	Registered bool
}

// Transfer describes a completed transfer.
type Transfer struct {
	Recipient string
	AmountTC  float64
	AmountCRC *big.Int
}

// Service orchestrates avatar actions.
type Service struct {
	hub     ports.AvatarPort
	auditor ports.AuditPort
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithAuditor(auditor ports.AuditPort) Option {
	return func(s *Service) {
		s.auditor = auditor
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(hub ports.AvatarPort, opts ...Option) (*Service, error) {
	if hub == nil {
		return nil, errors.New("avatar hub is required")
	}
	s := &Service{
		hub:    hub,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// EnsureAvatar looks up the avatar for account and registers a human avatar
// when none exists. The bool reports whether a registration happened.
func (s *Service) EnsureAvatar(ctx context.Context, account string) (*ports.Avatar, bool, error) {
	account, err := normalizeAddress(account, "account")
	if err != nil {
		return nil, false, err
	}

	avatar, err := observe(s.metrics, "get_avatar", func() (*ports.Avatar, error) {
		return s.hub.GetAvatar(ctx, account)
	})
	if err == nil {
		return avatar, false, nil
	}
	if !errors.Is(err, ports.ErrAvatarNotFound) {
		return nil, false, translate(err, "avatar lookup failed")
	}

	avatar, err = observe(s.metrics, "register", func() (*ports.Avatar, error) {
		return s.hub.RegisterHuman(ctx, account)
	})
	if err != nil {
		s.metrics.IncrementAction("register", "failed")
		return nil, false, translate(err, "avatar registration failed")
	}
	s.metrics.IncrementAction("register", "ok")
	s.logger.InfoContext(ctx, "registered human avatar", "account", account)
	s.emit(ctx, audit.EventAvatarRegistered, account, "", "registered", "")
	return avatar, true, nil
}

// Overview returns the avatar with its mintable amount and total balance.
// The amounts are fetched concurrently and the first failure cancels the other.
func (s *Service) Overview(ctx context.Context, account string) (*Overview, error) {
	avatar, registered, err := s.EnsureAvatar(ctx, account)
	if err != nil {
		return nil, err
	}
	account = avatar.Address

	ctx, cancel := context.WithTimeout(ctx, overviewTimeout)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	overview := &Overview{Avatar: *avatar, Registered: registered}
	g.Go(func() error {
		amount, err := observe(s.metrics, "mintable", func() (*big.Int, error) {
			return s.hub.MintableAmount(ctx, account)
		})
		if err != nil {
			return err
		}
		overview.Mintable = amount
		return nil
	})
	g.Go(func() error {
		balance, err := observe(s.metrics, "balance", func() (*big.Int, error) {
			return s.hub.TotalBalance(ctx, account)
		})
		if err != nil {
			return err
		}
		overview.Balance = balance
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, translate(err, "avatar amounts unavailable")
	}
	return overview, nil
}

// Mint claims the account's mintable amount and returns the new total balance.
func (s *Service) Mint(ctx context.Context, account string) (*big.Int, error) {
	account, err := normalizeAddress(account, "account")
	if err != nil {
		return nil, err
	}

	_, err = observe(s.metrics, "mint", func() (struct{}, error) {
		return struct{}{}, s.hub.PersonalMint(ctx, account)
	})
	if err != nil {
		s.metrics.IncrementAction("mint", "failed")
		return nil, translate(err, "mint failed")
	}
	s.metrics.IncrementAction("mint", "ok")
	s.emit(ctx, audit.EventTokensMinted, account, "", "minted", "")

	balance, err := observe(s.metrics, "balance", func() (*big.Int, error) {
		return s.hub.TotalBalance(ctx, account)
	})
	if err != nil {
		return nil, translate(err, "minted, but balance unavailable")
	}
	return balance, nil
}

// Send transfers amountTC time-circles from account to recipient. The amount
// is converted to CRC at the request time.
func (s *Service) Send(ctx context.Context, account, recipient string, amountTC float64) (*Transfer, error) {
	account, err := normalizeAddress(account, "account")
	if err != nil {
		return nil, err
	}
	recipient, err = normalizeAddress(recipient, "recipient")
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(account, recipient) {
		return nil, dErrors.New(dErrors.CodeValidation, "recipient must differ from sender")
	}
	if !(amountTC > 0) || math.IsInf(amountTC, 0) {
		return nil, dErrors.New(dErrors.CodeValidation, "amount must be greater than zero")
	}

	amount := circles.TCToCRC(requestcontext.Now(ctx), amountTC)
	if amount.Sign() <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "amount is too small")
	}

	_, err = observe(s.metrics, "transfer", func() (struct{}, error) {
		return struct{}{}, s.hub.Transfer(ctx, account, recipient, amount)
	})
	if err != nil {
		s.metrics.IncrementAction("transfer", "failed")
		s.emit(ctx, audit.EventTransferFailed, account, recipient, "failed", err.Error())
		return nil, translate(err, "transfer failed")
	}
	s.metrics.IncrementAction("transfer", "ok")
	s.emit(ctx, audit.EventTokensTransferred, account, recipient, "transferred", amount.String())
	return &Transfer{Recipient: recipient, AmountTC: amountTC, AmountCRC: amount}, nil
}

func (s *Service) emit(ctx context.Context, event audit.AuditEvent, account, subject, decision, reason string) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Account:   account,
		Subject:   subject,
		Action:    string(event),
		Decision:  decision,
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", event,
			"account", account,
			"error", err,
		)
	}
}

// observe records the hub latency of fn under call.
func observe[T any](m *metrics.Metrics, call string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	m.ObserveHubLatency(call, time.Since(start))
	return v, err
}

func normalizeAddress(addr, field string) (string, error) {
	addr = strings.TrimSpace(addr)
	if !common.IsHexAddress(addr) {
		return "", dErrors.New(dErrors.CodeValidation, field+" must be a hex address")
	}
	return addr, nil
}
