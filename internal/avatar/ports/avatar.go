// Package ports defines what the avatar module consumes from the Circles hub.
package ports

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"trustdash/pkg/platform/audit"
	"trustdash/pkg/platform/sentinel"
)

var (
	// ErrAvatarNotFound is returned when the account has no avatar yet.
	ErrAvatarNotFound = fmt.Errorf("avatar %w", sentinel.ErrNotFound)
	// ErrHubUnavailable is returned on transport failures or timeouts.
	ErrHubUnavailable = fmt.Errorf("avatar hub %w", sentinel.ErrUnavailable)
)

// RejectedError is returned when the hub refuses a request.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("avatar hub rejected request: %s", e.Reason)
}

func (e *RejectedError) Unwrap() error {
	return sentinel.ErrRejected
}

// Rejected builds a RejectedError.
func Rejected(format string, args ...any) error {
	return &RejectedError{Reason: fmt.Sprintf(format, args...)}
}

// Unavailable wraps a transport error as ErrHubUnavailable.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrHubUnavailable, err)
}

// AvatarType is the kind of avatar registered for an account.
type AvatarType string

const (
	AvatarHuman        AvatarType = "human"
	AvatarGroup        AvatarType = "group"
	AvatarOrganization AvatarType = "organization"
)

// Avatar is an account's registration in the Circles hub.
type Avatar struct {
	Address      string     `json:"address"`
	Type         AvatarType `json:"type"`
	Version      int        `json:"version"`
	RegisteredAt time.Time  `json:"registered_at"`
}

// AvatarPort is the Circles hub as seen by the avatar service. Amounts are
// CRC in atto units (1e18 per CRC).
type AvatarPort interface {
	GetAvatar(ctx context.Context, account string) (*Avatar, error)
	RegisterHuman(ctx context.Context, account string) (*Avatar, error)
	MintableAmount(ctx context.Context, account string) (*big.Int, error)
	TotalBalance(ctx context.Context, account string) (*big.Int, error)
	PersonalMint(ctx context.Context, account string) error
	Transfer(ctx context.Context, account, recipient string, amount *big.Int) error
}

// AuditPort emits audit events for avatar actions.
type AuditPort interface {
	Emit(ctx context.Context, event audit.Event) error
}
