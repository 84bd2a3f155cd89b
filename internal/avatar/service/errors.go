package service

import (
	"context"
	"errors"

	"trustdash/internal/avatar/ports"
	dErrors "trustdash/pkg/domain-errors"
	"trustdash/pkg/platform/sentinel"
)

// translate attaches a domain error code to hub errors. Errors that already
// carry a domain code pass through.
func translate(err error, msg string) error {
	var (
		domainErr *dErrors.Error
		rejected  *ports.RejectedError
	)
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.As(err, &rejected):
		return dErrors.Wrap(err, dErrors.CodeRejected, msg+": "+rejected.Reason)
	case errors.Is(err, sentinel.ErrRejected):
		return dErrors.Wrap(err, dErrors.CodeRejected, msg)
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, msg+": avatar not found")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg+": avatar hub unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg+": avatar hub timed out")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
