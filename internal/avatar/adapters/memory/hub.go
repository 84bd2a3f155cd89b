// Package memory is an in-process Circles hub for demo mode and tests.
// Registered humans accrue one time-circle per hour since their last mint,
// capped at two weeks, converted to CRC at the mint time.
package memory

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"time"

	"trustdash/internal/avatar/ports"
	"trustdash/pkg/circles"
)

const maxAccrual = 14 * 24 * time.Hour

type account struct {
	avatar   ports.Avatar
	balance  *big.Int
	lastMint time.Time
}

// Hub implements ports.AvatarPort in memory.
type Hub struct {
	mu       sync.Mutex
	accounts map[string]*account
	now      func() time.Time
}

type Option func(*Hub)

// WithClock sets the time source for registration and accrual.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{accounts: make(map[string]*account), now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Credit adds amount to the balance of a registered avatar.
func (h *Hub) Credit(addr string, amount *big.Int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	acc, ok := h.accounts[keyOf(addr)]
	if !ok {
		return ports.ErrAvatarNotFound
	}
	acc.balance.Add(acc.balance, amount)
	return nil
}

func (h *Hub) GetAvatar(ctx context.Context, addr string) (*ports.Avatar, error) {
	if err := ctx.Err(); err != nil {
		return nil, ports.Unavailable(err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	acc, ok := h.accounts[keyOf(addr)]
	if !ok {
		return nil, ports.ErrAvatarNotFound
	}
	avatar := acc.avatar
	return &avatar, nil
}

func (h *Hub) RegisterHuman(ctx context.Context, addr string) (*ports.Avatar, error) {
	if err := ctx.Err(); err != nil {
		return nil, ports.Unavailable(err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	key := keyOf(addr)
	if _, ok := h.accounts[key]; ok {
		return nil, ports.Rejected("avatar %s already registered", addr)
	}
	now := h.now().UTC()
	acc := &account{
		avatar: ports.Avatar{
			Address:      addr,
			Type:         ports.AvatarHuman,
			Version:      2,
			RegisteredAt: now,
		},
		balance:  new(big.Int),
		lastMint: now,
	}
	h.accounts[key] = acc
	avatar := acc.avatar
	return &avatar, nil
}

func (h *Hub) MintableAmount(ctx context.Context, addr string) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, ports.Unavailable(err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	acc, ok := h.accounts[keyOf(addr)]
	if !ok {
		return nil, ports.ErrAvatarNotFound
	}
	return h.mintable(acc), nil
}

func (h *Hub) TotalBalance(ctx context.Context, addr string) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, ports.Unavailable(err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	acc, ok := h.accounts[keyOf(addr)]
	if !ok {
		return nil, ports.ErrAvatarNotFound
	}
	return new(big.Int).Set(acc.balance), nil
}

func (h *Hub) PersonalMint(ctx context.Context, addr string) error {
	if err := ctx.Err(); err != nil {
		return ports.Unavailable(err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	acc, ok := h.accounts[keyOf(addr)]
	if !ok {
		return ports.ErrAvatarNotFound
	}
	amount := h.mintable(acc)
	if amount.Sign() == 0 {
		return ports.Rejected("nothing to mint")
	}
	acc.balance.Add(acc.balance, amount)
	acc.lastMint = h.now()
	return nil
}

func (h *Hub) Transfer(ctx context.Context, from, to string, amount *big.Int) error {
	if err := ctx.Err(); err != nil {
		return ports.Unavailable(err)
	}
	if amount == nil || amount.Sign() <= 0 {
		return ports.Rejected("amount must be positive")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	sender, ok := h.accounts[keyOf(from)]
	if !ok {
		return ports.ErrAvatarNotFound
	}
	recipient, ok := h.accounts[keyOf(to)]
	if !ok {
		return ports.Rejected("recipient %s has no avatar", to)
	}
	if sender.balance.Cmp(amount) < 0 {
		return ports.Rejected("insufficient balance")
	}
	sender.balance.Sub(sender.balance, amount)
	recipient.balance.Add(recipient.balance, amount)
	return nil
}

func (h *Hub) mintable(acc *account) *big.Int {
	now := h.now()
	elapsed := min(now.Sub(acc.lastMint), maxAccrual)
	if elapsed <= 0 {
		return new(big.Int)
	}
	return circles.TCToCRC(now, elapsed.Hours())
}

func keyOf(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
