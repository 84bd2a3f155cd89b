package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers durable changes to an account's trust graph or
	// token holdings. These are kept for as long as the account exists.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers failed or reverted mutations worth alerting on.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine reads and refreshes. These can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// Account is the wallet account the action was performed for.
	Account string
	// Subject is the counterpart of the action: a trusted peer or a transfer recipient.
	Subject  string
	Action   string
	Decision string
	Reason   string
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string
}

type AuditEvent string

const (
	// Trust events
	EventRelationsRefreshed AuditEvent = "relations_refreshed"
	EventTrustRequested     AuditEvent = "trust_requested"
	EventTrustGranted       AuditEvent = "trust_granted"
	EventTrustRevoked       AuditEvent = "trust_revoked"
	EventTrustRolledBack    AuditEvent = "trust_rolled_back"

	// Avatar events
	EventAvatarRegistered  AuditEvent = "avatar_registered"
	EventTokensMinted      AuditEvent = "tokens_minted"
	EventTokensTransferred AuditEvent = "tokens_transferred"
	EventTransferFailed    AuditEvent = "transfer_failed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventTrustGranted:      CategoryCompliance,
	EventTrustRevoked:      CategoryCompliance,
	EventAvatarRegistered:  CategoryCompliance,
	EventTokensMinted:      CategoryCompliance,
	EventTokensTransferred: CategoryCompliance,

	EventTrustRolledBack: CategorySecurity,
	EventTransferFailed:  CategorySecurity,

	EventRelationsRefreshed: CategoryOperations,
	EventTrustRequested:     CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByAccount(ctx context.Context, account string) ([]Event, error)
}
