// Package rpc reads trust relations from a Circles JSON-RPC node.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"trustdash/internal/trust/models"
	"trustdash/internal/trust/ports"
)

const methodTrustRelations = "circles_getTrustRelations"

// Caller is the subset of *rpc.Client used by Ledger.
type Caller interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
}

// trustRelations is the node's answer for one avatar.
type trustRelations struct {
	User      string   `json:"user"`
	Trusts    []string `json:"trusts"`
	TrustedBy []string `json:"trustedBy"`
}

// Ledger lists relations over JSON-RPC and hands writes to a TrustWriter,
// since the node cannot sign transactions.
type Ledger struct {
	caller  Caller
	writer  ports.TrustWriter
	timeout time.Duration
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithWriter sets the writer used for AddTrust and RemoveTrust.
func WithWriter(w ports.TrustWriter) Option {
	return func(l *Ledger) {
		l.writer = w
	}
}

// WithTimeout bounds every RPC call.
func WithTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// New creates a Ledger over caller.
func New(caller Caller, opts ...Option) (*Ledger, error) {
	if caller == nil {
		return nil, errors.New("rpc caller is required")
	}
	l := &Ledger{caller: caller, timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Dial connects to a node at url.
func Dial(ctx context.Context, url string, opts ...Option) (*Ledger, *gethrpc.Client, error) {
	client, err := gethrpc.DialContext(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial circles rpc %s: %w", url, err)
	}
	l, err := New(client, opts...)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return l, client, nil
}

func (l *Ledger) ListRelations(ctx context.Context, account string) (ports.RawRelations, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var res trustRelations
	if err := l.caller.CallContext(ctx, &res, methodTrustRelations, account); err != nil {
		var rpcErr gethrpc.Error
		if errors.As(err, &rpcErr) {
			return ports.RawRelations{}, ports.Unavailable(fmt.Errorf("%s: rpc error %d: %w", methodTrustRelations, rpcErr.ErrorCode(), err))
		}
		return ports.RawRelations{}, ports.Unavailable(fmt.Errorf("%s: %w", methodTrustRelations, err))
	}
	return ports.RawRelations{
		Incoming: models.EdgesOf(res.TrustedBy),
		Outgoing: models.EdgesOf(res.Trusts),
	}, nil
}

func (l *Ledger) AddTrust(ctx context.Context, account, peer string) error {
	if l.writer == nil {
		return ports.Rejected("ledger is read-only")
	}
	return l.writer.AddTrust(ctx, account, peer)
}

func (l *Ledger) RemoveTrust(ctx context.Context, account, peer string) error {
	if l.writer == nil {
		return ports.Rejected("ledger is read-only")
	}
	return l.writer.RemoveTrust(ctx, account, peer)
}
