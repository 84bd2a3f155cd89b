package handler

import (
	"context"
	"math/big"
	"time"

	"trustdash/internal/avatar/service"
	"trustdash/pkg/circles"
	"trustdash/pkg/requestcontext"
)

// AmountResponse carries a CRC amount in atto units and in time-circles.
type AmountResponse struct {
	CRC string  `json:"crc"`
	TC  float64 `json:"tc"`
}

// AvatarResponse is the avatar overview.
type AvatarResponse struct {
	Address      string         `json:"address"`
	Type         string         `json:"type"`
	Version      int            `json:"version"`
	RegisteredAt time.Time      `json:"registered_at"`
	Registered   bool           `json:"registered"`
	Mintable     AmountResponse `json:"mintable"`
	Balance      AmountResponse `json:"balance"`
}

// MintResponse carries the balance after minting.
type MintResponse struct {
	Balance AmountResponse `json:"balance"`
}

// TransferResponse describes a completed transfer.
type TransferResponse struct {
	Recipient string  `json:"recipient"`
	AmountTC  float64 `json:"amount_tc"`
	AmountCRC string  `json:"amount_crc"`
}

func toAvatarResponse(ctx context.Context, o *service.Overview) *AvatarResponse {
	return &AvatarResponse{
		Address:      o.Avatar.Address,
		Type:         string(o.Avatar.Type),
		Version:      o.Avatar.Version,
		RegisteredAt: o.Avatar.RegisteredAt,
		Registered:   o.Registered,
		Mintable:     toAmount(ctx, o.Mintable),
		Balance:      toAmount(ctx, o.Balance),
	}
}

func toAmount(ctx context.Context, crc *big.Int) AmountResponse {
	if crc == nil {
		crc = new(big.Int)
	}
	return AmountResponse{
		CRC: crc.String(),
		TC:  circles.CRCToTC(requestcontext.Now(ctx), crc),
	}
}
