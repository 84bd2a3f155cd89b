package handler

import (
	"strings"

	"trustdash/pkg/platform/validation"
)

// TransferRequest is the HTTP request body for POST /avatar/transfer.
// Amount is in time-circles.
type TransferRequest struct {
	Recipient string  `json:"recipient" validate:"required,eth_addr"`
	Amount    float64 `json:"amount" validate:"gt=0"`
}

func (r *TransferRequest) Validate() error {
	r.Recipient = strings.TrimSpace(r.Recipient)
	return validation.Struct(r)
}
