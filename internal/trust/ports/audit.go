package ports

import (
	"context"

	"trustdash/pkg/platform/audit"
)

// AuditPort emits audit events for trust mutations.
type AuditPort interface {
	Emit(ctx context.Context, event audit.Event) error
}
