package handler

import (
	"strings"

	"trustdash/pkg/platform/validation"
)

// TrustRequest is the HTTP request body for POST /trusts.
type TrustRequest struct {
	Peer string `json:"peer" validate:"required"`
}

// Validate trims and checks the request. Address syntax is checked by the
// reconciler so every entry point reports it the same way.
func (r *TrustRequest) Validate() error {
	r.Peer = strings.TrimSpace(r.Peer)
	return validation.Struct(r)
}
