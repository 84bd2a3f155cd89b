// Package ports defines the contracts the trust module consumes from the outside
// world. Adapters implement them; the session service depends only on them.
package ports

import (
	"context"
	"fmt"

	"trustdash/internal/trust/models"
	"trustdash/pkg/platform/sentinel"
)

// ErrAdapterUnavailable is returned by ledgers on transport failures or
// timeouts. It matches sentinel.ErrUnavailable.
var ErrAdapterUnavailable = fmt.Errorf("trust ledger %w", sentinel.ErrUnavailable)

// RejectedError is returned when the ledger refuses a mutation.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("trust ledger rejected request: %s", e.Reason)
}

func (e *RejectedError) Unwrap() error {
	return sentinel.ErrRejected
}

// Rejected builds a RejectedError.
func Rejected(format string, args ...any) error {
	return &RejectedError{Reason: fmt.Sprintf(format, args...)}
}

// Unavailable wraps a transport error as ErrAdapterUnavailable.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrAdapterUnavailable, err)
}

// RawRelations is the ledger's unreconciled answer: peers that trust the
// account (incoming) and peers the account trusts (outgoing).
type RawRelations struct {
	Incoming []models.Edge
	Outgoing []models.Edge
}

// LedgerPort is the trust ledger as seen by the session service.
type LedgerPort interface {
	ListRelations(ctx context.Context, account string) (RawRelations, error)
	AddTrust(ctx context.Context, account, peer string) error
	RemoveTrust(ctx context.Context, account, peer string) error
}

// TrustWriter is the mutating half of the ledger, for adapters that can only read.
type TrustWriter interface {
	AddTrust(ctx context.Context, account, peer string) error
	RemoveTrust(ctx context.Context, account, peer string) error
}
