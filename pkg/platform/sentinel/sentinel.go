package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Adapters return these (usually
// wrapped) so services can translate them into domain errors without knowing
// which adapter produced them.
//
//   - ErrNotFound: the remote entity does not exist
//   - ErrConflict: the entity already exists
//   - ErrRejected: the remote side refused the request
//   - ErrUnavailable: transport failure, timeout, or open circuit
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrRejected    = errors.New("rejected")
	ErrUnavailable = errors.New("unavailable")
)
