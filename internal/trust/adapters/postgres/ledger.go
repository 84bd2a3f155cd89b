// Package postgres is a trust ledger backed by a trust_edges table.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"trustdash/internal/trust/models"
	"trustdash/internal/trust/ports"
)

// Schema creates the edge table. Addresses are stored lower-cased.
const Schema = `
	CREATE TABLE IF NOT EXISTS trust_edges (
		truster    TEXT        NOT NULL,
		trustee    TEXT        NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (truster, trustee)
	);
	CREATE INDEX IF NOT EXISTS trust_edges_trustee_idx ON trust_edges (trustee);
`

// DB is the subset of *pgxpool.Pool used by Ledger.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Ledger implements ports.LedgerPort on PostgreSQL.
type Ledger struct {
	db  DB
	now func() time.Time
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

// New constructs a PostgreSQL-backed ledger.
func New(db DB, opts ...Option) *Ledger {
	l := &Ledger{db: db, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// EnsureSchema creates the edge table if it does not exist.
func (l *Ledger) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create trust_edges: %w", err)
	}
	return nil
}

func (l *Ledger) ListRelations(ctx context.Context, account string) (ports.RawRelations, error) {
	key := models.PeerKey(account)
	rows, err := l.db.Query(ctx, `
		SELECT truster, trustee, created_at
		FROM trust_edges
		WHERE truster = $1 OR trustee = $1
		ORDER BY created_at DESC
	`, key)
	if err != nil {
		return ports.RawRelations{}, ports.Unavailable(fmt.Errorf("query trust edges: %w", err))
	}
	defer rows.Close()

	var raw ports.RawRelations
	for rows.Next() {
		var (
			truster, trustee string
			createdAt        time.Time
		)
		if err := rows.Scan(&truster, &trustee, &createdAt); err != nil {
			return ports.RawRelations{}, ports.Unavailable(fmt.Errorf("scan trust edge: %w", err))
		}
		switch key {
		case trustee:
			raw.Incoming = append(raw.Incoming, models.Edge{Peer: truster, Timestamp: createdAt})
		case truster:
			raw.Outgoing = append(raw.Outgoing, models.Edge{Peer: trustee, Timestamp: createdAt})
		}
	}
	if err := rows.Err(); err != nil {
		return ports.RawRelations{}, ports.Unavailable(fmt.Errorf("iterate trust edges: %w", err))
	}
	return raw, nil
}

func (l *Ledger) AddTrust(ctx context.Context, account, peer string) error {
	truster, trustee := models.PeerKey(account), models.PeerKey(peer)
	if truster == trustee {
		return ports.Rejected("cannot trust own account")
	}
	tag, err := l.db.Exec(ctx, `
		INSERT INTO trust_edges (truster, trustee, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (truster, trustee) DO NOTHING
	`, truster, trustee, l.now().UTC())
	if err != nil {
		return ports.Unavailable(fmt.Errorf("insert trust edge: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return ports.Rejected("%s already trusts %s", account, peer)
	}
	return nil
}

func (l *Ledger) RemoveTrust(ctx context.Context, account, peer string) error {
	tag, err := l.db.Exec(ctx, `
		DELETE FROM trust_edges WHERE truster = $1 AND trustee = $2
	`, models.PeerKey(account), models.PeerKey(peer))
	if err != nil {
		return ports.Unavailable(fmt.Errorf("delete trust edge: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return ports.Rejected("%s does not trust %s", strings.TrimSpace(account), strings.TrimSpace(peer))
	}
	return nil
}
