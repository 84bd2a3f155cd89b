package gateway

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"trustdash/internal/trust/models"
	"trustdash/internal/trust/ports"
)

var _ ports.LedgerPort = (*Client)(nil)

type edgeJSON struct {
	Peer      string    `json:"peer"`
	Timestamp time.Time `json:"timestamp"`
}

type relationsJSON struct {
	Incoming []edgeJSON `json:"incoming"`
	Outgoing []edgeJSON `json:"outgoing"`
}

type trustRequest struct {
	Peer string `json:"peer"`
}

// ListRelations implements ports.LedgerPort.
func (c *Client) ListRelations(ctx context.Context, account string) (ports.RawRelations, error) {
	var body relationsJSON
	if err := c.do(ctx, "relations", http.MethodGet, avatarPath(account, "relations"), nil, &body); err != nil {
		return ports.RawRelations{}, trustError(err)
	}
	return ports.RawRelations{
		Incoming: toEdges(body.Incoming),
		Outgoing: toEdges(body.Outgoing),
	}, nil
}

// AddTrust implements ports.LedgerPort.
func (c *Client) AddTrust(ctx context.Context, account, peer string) error {
	err := c.do(ctx, "trust", http.MethodPost, avatarPath(account, "trusts"), trustRequest{Peer: peer}, nil)
	return trustError(err)
}

// RemoveTrust implements ports.LedgerPort.
func (c *Client) RemoveTrust(ctx context.Context, account, peer string) error {
	err := c.do(ctx, "untrust", http.MethodDelete, avatarPath(account, "trusts", url.PathEscape(peer)), nil, nil)
	return trustError(err)
}

func trustError(err error) error {
	if err == nil {
		return nil
	}
	if reason, ok := rejection(err); ok {
		return ports.Rejected("%s", reason)
	}
	return ports.Unavailable(err)
}

func toEdges(in []edgeJSON) []models.Edge {
	out := make([]models.Edge, 0, len(in))
	for _, e := range in {
		out = append(out, models.Edge{Peer: e.Peer, Timestamp: e.Timestamp})
	}
	return out
}
