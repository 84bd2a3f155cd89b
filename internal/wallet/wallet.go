// Package wallet reads the native balance of the connected account.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	dErrors "trustdash/pkg/domain-errors"
)

// BalanceReader reads an account balance. *ethclient.Client satisfies it.
type BalanceReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Balance is the native balance of an account.
type Balance struct {
	Account string
	Wei     *big.Int
}

// Ether formats the balance in ether.
func (b Balance) Ether() string {
	return FormatEther(b.Wei)
}

// Service serves wallet balances.
type Service struct {
	reader BalanceReader
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

// New creates a wallet service.
func New(reader BalanceReader, opts ...Option) (*Service, error) {
	if reader == nil {
		return nil, errors.New("balance reader is required")
	}
	s := &Service{
		reader: reader,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Balance returns the latest balance of account.
func (s *Service) Balance(ctx context.Context, account string) (*Balance, error) {
	account = strings.TrimSpace(account)
	if !common.IsHexAddress(account) {
		return nil, dErrors.New(dErrors.CodeValidation, "account must be a hex address")
	}
	wei, err := s.reader.BalanceAt(ctx, common.HexToAddress(account), nil)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read balance", "account", account, "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "wallet balance unavailable")
	}
	return &Balance{Account: account, Wei: wei}, nil
}

// Dial connects to an Ethereum JSON-RPC endpoint.
func Dial(ctx context.Context, url string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect to wallet rpc at %s: %w", url, err)
	}
	return client, nil
}

// StaticReader serves fixed balances; used in demo mode and tests.
type StaticReader struct {
	balances map[common.Address]*big.Int
	fallback *big.Int
}

// NewStaticReader returns fallback for every account not set with Set.
func NewStaticReader(fallback *big.Int) *StaticReader {
	if fallback == nil {
		fallback = new(big.Int)
	}
	return &StaticReader{balances: make(map[common.Address]*big.Int), fallback: fallback}
}

// Set fixes the balance of account.
func (r *StaticReader) Set(account string, wei *big.Int) {
	r.balances[common.HexToAddress(account)] = new(big.Int).Set(wei)
}

func (r *StaticReader) BalanceAt(_ context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	if wei, ok := r.balances[account]; ok {
		return new(big.Int).Set(wei), nil
	}
	return new(big.Int).Set(r.fallback), nil
}
