// Package memory is an in-process trust ledger used in demo mode and tests.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"trustdash/internal/trust/models"
	"trustdash/internal/trust/ports"
)

type edgeKey struct {
	truster string
	trustee string
}

type edge struct {
	truster   string
	trustee   string
	createdAt time.Time
}

// Ledger is a directed edge set keyed case-insensitively.
type Ledger struct {
	mu    sync.RWMutex
	edges map[edgeKey]edge
	now   func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the time source used to stamp new edges.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLedger creates an empty ledger.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		edges: make(map[edgeKey]edge),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func keyOf(truster, trustee string) edgeKey {
	return edgeKey{truster: models.PeerKey(truster), trustee: models.PeerKey(trustee)}
}

// Seed inserts an edge with a fixed creation time, replacing any existing one.
func (l *Ledger) Seed(truster, trustee string, createdAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.edges[keyOf(truster, trustee)] = edge{
		truster:   strings.TrimSpace(truster),
		trustee:   strings.TrimSpace(trustee),
		createdAt: createdAt,
	}
}

func (l *Ledger) ListRelations(ctx context.Context, account string) (ports.RawRelations, error) {
	if err := ctx.Err(); err != nil {
		return ports.RawRelations{}, ports.Unavailable(err)
	}
	key := models.PeerKey(account)

	l.mu.RLock()
	defer l.mu.RUnlock()

	var raw ports.RawRelations
	for k, e := range l.edges {
		switch {
		case k.trustee == key:
			raw.Incoming = append(raw.Incoming, models.Edge{Peer: e.truster, Timestamp: e.createdAt})
		case k.truster == key:
			raw.Outgoing = append(raw.Outgoing, models.Edge{Peer: e.trustee, Timestamp: e.createdAt})
		}
	}
	byPeer := func(a, b models.Edge) int { return strings.Compare(a.Peer, b.Peer) }
	slices.SortFunc(raw.Incoming, byPeer)
	slices.SortFunc(raw.Outgoing, byPeer)
	return raw, nil
}

func (l *Ledger) AddTrust(ctx context.Context, account, peer string) error {
	if err := ctx.Err(); err != nil {
		return ports.Unavailable(err)
	}
	k := keyOf(account, peer)
	if k.truster == k.trustee {
		return ports.Rejected("cannot trust own account")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.edges[k]; ok {
		return ports.Rejected("%s already trusts %s", account, peer)
	}
	l.edges[k] = edge{
		truster:   strings.TrimSpace(account),
		trustee:   strings.TrimSpace(peer),
		createdAt: l.now(),
	}
	return nil
}

func (l *Ledger) RemoveTrust(ctx context.Context, account, peer string) error {
	if err := ctx.Err(); err != nil {
		return ports.Unavailable(err)
	}
	k := keyOf(account, peer)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.edges[k]; !ok {
		return ports.Rejected("%s does not trust %s", account, peer)
	}
	delete(l.edges, k)
	return nil
}
