package reconciler

import (
	"errors"
	"fmt"

	"trustdash/internal/trust/models"
)

var (
	// ErrMalformedInput is returned when a peer identifier is empty or rejected
	// by the validator. The view is not modified.
	ErrMalformedInput = errors.New("malformed peer identifier")
	// ErrSelfRelation is returned when the peer is the local account itself.
	ErrSelfRelation = fmt.Errorf("%w: peer is the local account", ErrMalformedInput)
	// ErrNotTrusted is returned by RequestUntrust when there is no outgoing edge.
	ErrNotTrusted = errors.New("peer is not trusted")
	// ErrAlreadyTrusted is returned by RequestTrust when an outgoing edge exists.
	ErrAlreadyTrusted = errors.New("peer is already trusted")
	// ErrOperationInProgress is returned when a request for the same peer is pending.
	ErrOperationInProgress = errors.New("operation already in progress for peer")
	// ErrUnknownOperation is returned for handles that were never issued or are
	// already resolved.
	ErrUnknownOperation = errors.New("unknown pending operation")
)

// OperationFailedError reports a rolled back operation for user display.
type OperationFailedError struct {
	Peer  string
	Kind  models.OperationKind
	Cause error
}

func (e *OperationFailedError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s trust for %s failed", e.Kind, e.Peer)
	}
	return fmt.Sprintf("%s trust for %s failed: %v", e.Kind, e.Peer, e.Cause)
}

func (e *OperationFailedError) Unwrap() error {
	return e.Cause
}
