package service

import (
	"errors"
	"fmt"

	"trustdash/internal/trust/ports"
	"trustdash/internal/trust/reconciler"
	dErrors "trustdash/pkg/domain-errors"
)

// translate attaches a domain error code to reconciler and ledger errors.
// *reconciler.OperationFailedError is classified by its cause.
func translate(err error) error {
	var (
		rejected *ports.RejectedError
		failed   *reconciler.OperationFailedError
		prefix   string
	)
	if errors.As(err, &failed) {
		prefix = fmt.Sprintf("%s trust for %s failed: ", failed.Kind, failed.Peer)
	}
	switch {
	case errors.Is(err, reconciler.ErrMalformedInput):
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid peer address")
	case errors.Is(err, reconciler.ErrNotTrusted):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "peer is not trusted")
	case errors.Is(err, reconciler.ErrAlreadyTrusted):
		return dErrors.Wrap(err, dErrors.CodeConflict, "peer is already trusted")
	case errors.Is(err, reconciler.ErrOperationInProgress):
		return dErrors.Wrap(err, dErrors.CodeConflict, "an operation for this peer is in progress")
	case errors.As(err, &rejected):
		return dErrors.Wrap(err, dErrors.CodeRejected, prefix+rejected.Reason)
	case errors.Is(err, ports.ErrAdapterUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, prefix+"trust ledger unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "trust operation failed")
	}
}
