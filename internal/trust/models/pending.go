package models

import (
	"time"

	"github.com/google/uuid"
)

// OperationKind is the kind of optimistic mutation.
type OperationKind string

const (
	OperationAdd    OperationKind = "add"
	OperationRemove OperationKind = "remove"
)

// PendingOperation is the handle for an in-flight trust or untrust request. It
// must be resolved with Confirm or Rollback once the ledger answers.
type PendingOperation struct {
	ID       uuid.UUID
	Peer     string
	Kind     OperationKind
	IssuedAt time.Time
}
