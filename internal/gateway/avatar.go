package gateway

import (
	"context"
	"fmt"
	"math/big"
	"net/http"

	"trustdash/internal/avatar/ports"
)

var _ ports.AvatarPort = (*Client)(nil)

type amountJSON struct {
	Amount string `json:"amount"`
}

type transferRequest struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

// GetAvatar implements ports.AvatarPort. A 404 means the account has no avatar.
func (c *Client) GetAvatar(ctx context.Context, account string) (*ports.Avatar, error) {
	var avatar ports.Avatar
	if err := c.do(ctx, "avatar", http.MethodGet, avatarPath(account), nil, &avatar); err != nil {
		if isNotFound(err) {
			return nil, ports.ErrAvatarNotFound
		}
		return nil, avatarError(err)
	}
	return &avatar, nil
}

// RegisterHuman implements ports.AvatarPort.
func (c *Client) RegisterHuman(ctx context.Context, account string) (*ports.Avatar, error) {
	var avatar ports.Avatar
	if err := c.do(ctx, "register", http.MethodPost, avatarPath(account, "register"), nil, &avatar); err != nil {
		return nil, avatarError(err)
	}
	return &avatar, nil
}

// MintableAmount implements ports.AvatarPort.
func (c *Client) MintableAmount(ctx context.Context, account string) (*big.Int, error) {
	return c.amount(ctx, "mintable", avatarPath(account, "mintable"))
}

// TotalBalance implements ports.AvatarPort.
func (c *Client) TotalBalance(ctx context.Context, account string) (*big.Int, error) {
	return c.amount(ctx, "balance", avatarPath(account, "balance"))
}

// PersonalMint implements ports.AvatarPort.
func (c *Client) PersonalMint(ctx context.Context, account string) error {
	return avatarError(c.do(ctx, "mint", http.MethodPost, avatarPath(account, "mint"), nil, nil))
}

// Transfer implements ports.AvatarPort.
func (c *Client) Transfer(ctx context.Context, account, recipient string, amount *big.Int) error {
	req := transferRequest{Recipient: recipient, Amount: amount.String()}
	return avatarError(c.do(ctx, "transfer", http.MethodPost, avatarPath(account, "transfers"), req, nil))
}

func (c *Client) amount(ctx context.Context, endpoint, path string) (*big.Int, error) {
	var body amountJSON
	if err := c.do(ctx, endpoint, http.MethodGet, path, nil, &body); err != nil {
		return nil, avatarError(err)
	}
	v, ok := new(big.Int).SetString(body.Amount, 10)
	if !ok {
		return nil, ports.Unavailable(fmt.Errorf("malformed %s amount %q", endpoint, body.Amount))
	}
	return v, nil
}

func avatarError(err error) error {
	if err == nil {
		return nil
	}
	if reason, ok := rejection(err); ok {
		return ports.Rejected("%s", reason)
	}
	return ports.Unavailable(err)
}
