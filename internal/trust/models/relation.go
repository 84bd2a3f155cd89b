package models

import (
	"strings"
	"time"
)

// Direction is the synthesized direction of a trust relation as seen from the
// local account.
type Direction string

const (
	// DirectionIncoming means the peer trusts the local account.
	DirectionIncoming Direction = "incoming"
	// DirectionOutgoing means the local account trusts the peer.
	DirectionOutgoing Direction = "outgoing"
	// DirectionMutual means both edges exist.
	DirectionMutual Direction = "mutual"
)

// Label returns the dashboard label for the direction.
func (d Direction) Label() string {
	switch d {
	case DirectionIncoming:
		return "Incoming Trust"
	case DirectionOutgoing:
		return "Outgoing Trust"
	case DirectionMutual:
		return "Mutually Trusted"
	default:
		return ""
	}
}

// HasOutgoing reports whether the local account trusts the peer.
func (d Direction) HasOutgoing() bool {
	return d == DirectionOutgoing || d == DirectionMutual
}

// HasIncoming reports whether the peer trusts the local account.
func (d Direction) HasIncoming() bool {
	return d == DirectionIncoming || d == DirectionMutual
}

// Combine builds a direction from the two raw edge flags. ok is false when
// neither edge exists.
func Combine(incoming, outgoing bool) (d Direction, ok bool) {
	switch {
	case incoming && outgoing:
		return DirectionMutual, true
	case outgoing:
		return DirectionOutgoing, true
	case incoming:
		return DirectionIncoming, true
	default:
		return "", false
	}
}

// Relation is one reconciled trust relation between the local account and a peer.
type Relation struct {
	Peer       string
	Direction  Direction
	ObservedAt time.Time
}

// Key is the case-insensitive identity of the peer.
func (r Relation) Key() string {
	return PeerKey(r.Peer)
}

// PeerKey normalizes a peer identifier for comparison.
func PeerKey(peer string) string {
	return strings.ToLower(strings.TrimSpace(peer))
}

// Edge is a raw ledger edge. A zero Timestamp means the adapter does not know
// when the edge was created.
type Edge struct {
	Peer      string
	Timestamp time.Time
}

// EdgesOf wraps plain peer identifiers as untimed edges.
func EdgesOf(peers []string) []Edge {
	edges := make([]Edge, 0, len(peers))
	for _, p := range peers {
		edges = append(edges, Edge{Peer: p})
	}
	return edges
}
