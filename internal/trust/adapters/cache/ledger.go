// Package cache decorates a ledger with a relation snapshot cache.
package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"trustdash/internal/trust/metrics"
	"trustdash/internal/trust/ports"
	"trustdash/internal/trust/store"
)

// Ledger serves ListRelations from a SnapshotStore when it can. Writes go
// straight to the wrapped ledger and invalidate the account's snapshot.
// Cache failures are logged and never fail a call.
type Ledger struct {
	next    ports.LedgerPort
	store   store.SnapshotStore
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) {
		l.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// New wraps next with a snapshot cache.
func New(next ports.LedgerPort, snapshots store.SnapshotStore, opts ...Option) (*Ledger, error) {
	if next == nil {
		return nil, errors.New("ledger is required")
	}
	if snapshots == nil {
		return nil, errors.New("snapshot store is required")
	}
	l := &Ledger{
		next:   next,
		store:  snapshots,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *Ledger) ListRelations(ctx context.Context, account string) (ports.RawRelations, error) {
	snap, err := l.store.Find(ctx, account)
	switch {
	case err == nil:
		l.metrics.IncrementCacheHit()
		return ports.RawRelations{Incoming: snap.Incoming, Outgoing: snap.Outgoing}, nil
	case !errors.Is(err, store.ErrNotFound):
		l.logger.WarnContext(ctx, "snapshot cache read failed", "account", account, "error", err)
	}
	l.metrics.IncrementCacheMiss()

	raw, err := l.next.ListRelations(ctx, account)
	if err != nil {
		return ports.RawRelations{}, err
	}
	saveErr := l.store.Save(ctx, account, store.Snapshot{
		Incoming:  raw.Incoming,
		Outgoing:  raw.Outgoing,
		FetchedAt: l.now(),
	})
	if saveErr != nil {
		l.logger.WarnContext(ctx, "snapshot cache write failed", "account", account, "error", saveErr)
	}
	return raw, nil
}

func (l *Ledger) AddTrust(ctx context.Context, account, peer string) error {
	if err := l.next.AddTrust(ctx, account, peer); err != nil {
		return err
	}
	l.invalidate(ctx, account, peer)
	return nil
}

func (l *Ledger) RemoveTrust(ctx context.Context, account, peer string) error {
	if err := l.next.RemoveTrust(ctx, account, peer); err != nil {
		return err
	}
	l.invalidate(ctx, account, peer)
	return nil
}

// invalidate drops both sides' snapshots since the edge shows up in each.
func (l *Ledger) invalidate(ctx context.Context, accounts ...string) {
	for _, account := range accounts {
		if err := l.store.Delete(ctx, account); err != nil {
			l.logger.WarnContext(ctx, "snapshot cache invalidation failed", "account", account, "error", err)
		}
	}
}

// Invalidate drops the cached snapshot for account so the next list hits the ledger.
func (l *Ledger) Invalidate(ctx context.Context, account string) {
	l.invalidate(ctx, account)
}
