// Package store caches raw ledger snapshots per account so repeated refreshes
// do not hit the ledger.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"trustdash/internal/trust/models"
)

// ErrNotFound is returned when no fresh snapshot exists for an account.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is a cached ledger answer.
type Snapshot struct {
	Incoming  []models.Edge `json:"incoming"`
	Outgoing  []models.Edge `json:"outgoing"`
	FetchedAt time.Time     `json:"fetched_at"`
}

// SnapshotStore persists snapshots with a TTL.
type SnapshotStore interface {
	Save(ctx context.Context, account string, snap Snapshot) error
	Find(ctx context.Context, account string) (*Snapshot, error)
	Delete(ctx context.Context, account string) error
}

func accountKey(account string) string {
	return strings.ToLower(strings.TrimSpace(account))
}
