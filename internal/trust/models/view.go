package models

import "time"

// View is a read-only snapshot of the reconciled relations, most recent first.
type View struct {
	Relations []Relation
	// Pending holds the peer keys with an unresolved operation.
	Pending map[string]OperationKind
	// LoadedAt is the asOf of the last successful load; zero until the first load.
	LoadedAt time.Time
}

// Find returns the relation for peer, if present.
func (v View) Find(peer string) (Relation, bool) {
	key := PeerKey(peer)
	for _, r := range v.Relations {
		if r.Key() == key {
			return r, true
		}
	}
	return Relation{}, false
}

// Loaded reports whether the view was ever populated from the ledger.
func (v View) Loaded() bool {
	return !v.LoadedAt.IsZero()
}

// Row is one rendered dashboard line.
type Row struct {
	Date     time.Time
	Relation string
	Address  string
	Action   string
}

const (
	ActionTrust   = "Trust"
	ActionUntrust = "Untrust"
	ActionPending = "Pending"
)

// Rows maps the view to dashboard rows, keeping its order.
func (v View) Rows() []Row {
	rows := make([]Row, 0, len(v.Relations))
	for _, r := range v.Relations {
		action := ActionUntrust
		if r.Direction == DirectionIncoming {
			action = ActionTrust
		}
		if _, ok := v.Pending[r.Key()]; ok {
			action = ActionPending
		}
		rows = append(rows, Row{
			Date:     r.ObservedAt,
			Relation: r.Direction.Label(),
			Address:  r.Peer,
			Action:   action,
		})
	}
	return rows
}
