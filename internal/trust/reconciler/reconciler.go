// Package reconciler keeps the user-facing picture of one account's trust
// relations. It merges the two raw ledger lists (trusts and trusted-by) into a
// single keyed view and applies optimistic trust/untrust patches that are later
// confirmed or rolled back.
//
// A Reconciler belongs to one account session. Ledger calls happen outside of
// it: callers issue RequestTrust or RequestUntrust, call the ledger, then
// resolve the returned handle with Confirm or Rollback. Responses may arrive in
// any order since every patch is keyed by peer.
package reconciler

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"trustdash/internal/trust/models"
)

type pendingOp struct {
	op models.PendingOperation
	// before is the rollback point for the peer; nil means absent.
	before *models.Relation
	// applied is false once a load discarded the optimistic patch.
	applied bool
}

// Reconciler owns the reconciled view of one account.
type Reconciler struct {
	mu sync.Mutex

	account  string
	validate Validator
	now      func() time.Time
	logger   *slog.Logger

	relations map[string]models.Relation
	pending   map[string]*pendingOp
	// settled holds handles implicitly confirmed by a load; resolving them is a no-op.
	settled  map[uuid.UUID]struct{}
	loadedAt time.Time
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithClock sets the time source used for optimistic patches.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Reconciler for account. A nil validator accepts any identifier
// without whitespace.
func New(account string, validate Validator, opts ...Option) (*Reconciler, error) {
	if validate == nil {
		validate = NonEmpty
	}
	account = strings.TrimSpace(account)
	if err := validate(account); err != nil {
		return nil, fmt.Errorf("invalid local account %q: %w", account, err)
	}
	r := &Reconciler{
		account:   models.PeerKey(account),
		validate:  validate,
		now:       time.Now,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		relations: make(map[string]models.Relation),
		pending:   make(map[string]*pendingOp),
		settled:   make(map[uuid.UUID]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Account returns the normalized local account.
func (r *Reconciler) Account() string {
	return r.account
}

// Load replaces the view with the merge of the raw trusted-by (incoming) and
// trusts (outgoing) lists observed at asOf.
func (r *Reconciler) Load(rawIncoming, rawOutgoing []string, asOf time.Time) (models.View, error) {
	return r.LoadEdges(models.EdgesOf(rawIncoming), models.EdgesOf(rawOutgoing), asOf)
}

type freshEdge struct {
	peer      string
	incoming  bool
	outgoing  bool
	timestamp time.Time
}

// LoadEdges is Load for edges that may carry their own timestamps.
//
// Pending operations survive the load. An operation whose intended change is
// already reflected is implicitly confirmed. Otherwise the fresh truth wins:
// when the peer appears in the new data the optimistic patch is dropped, and
// when it does not the patch is re-applied on top of it.
func (r *Reconciler) LoadEdges(incoming, outgoing []models.Edge, asOf time.Time) (models.View, error) {
	if asOf.Before(time.Unix(0, 0)) {
		return models.View{}, fmt.Errorf("%w: negative load timestamp", ErrMalformedInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	fresh := make(map[string]*freshEdge, len(incoming)+len(outgoing))
	merge := func(edges []models.Edge, isOutgoing bool) error {
		for _, e := range edges {
			peer := strings.TrimSpace(e.Peer)
			if err := r.validate(peer); err != nil {
				return fmt.Errorf("%w: %q: %v", ErrMalformedInput, e.Peer, err)
			}
			key := models.PeerKey(peer)
			if key == r.account {
				// Circles accounts trust themselves; the dashboard never shows it.
				continue
			}
			f, ok := fresh[key]
			if !ok {
				f = &freshEdge{peer: peer}
				fresh[key] = f
			}
			if isOutgoing {
				f.outgoing = true
			} else {
				f.incoming = true
			}
			if e.Timestamp.After(f.timestamp) {
				f.timestamp = e.Timestamp
			}
		}
		return nil
	}
	if err := merge(incoming, false); err != nil {
		return models.View{}, err
	}
	if err := merge(outgoing, true); err != nil {
		return models.View{}, err
	}

	next := make(map[string]models.Relation, len(fresh))
	for key, f := range fresh {
		dir, _ := models.Combine(f.incoming, f.outgoing)
		observed := asOf
		switch prev, ok := r.relations[key]; {
		case !f.timestamp.IsZero():
			observed = f.timestamp
		case ok && prev.Direction == dir:
			observed = prev.ObservedAt
		}
		next[key] = models.Relation{Peer: f.peer, Direction: dir, ObservedAt: observed}
	}

	for key, p := range r.pending {
		cur, present := next[key]
		if reflects(p.op.Kind, cur, present) {
			delete(r.pending, key)
			r.settled[p.op.ID] = struct{}{}
			r.logger.Debug("pending trust operation implicitly confirmed by load",
				"peer", p.op.Peer,
				"kind", p.op.Kind,
			)
			continue
		}
		if present {
			before := cur
			p.before = &before
			p.applied = false
			r.logger.Debug("optimistic trust patch superseded by load",
				"peer", p.op.Peer,
				"kind", p.op.Kind,
			)
			continue
		}
		p.before = nil
		p.applied = true
		if patched := transition(nil, p.op, p.op.IssuedAt); patched != nil {
			next[key] = *patched
		}
	}

	r.relations = next
	r.loadedAt = asOf
	return r.snapshot(), nil
}

// RequestTrust optimistically adds an outgoing edge to peer.
func (r *Reconciler) RequestTrust(peer string) (models.PendingOperation, error) {
	return r.request(peer, models.OperationAdd)
}

// RequestUntrust optimistically removes the outgoing edge to peer.
func (r *Reconciler) RequestUntrust(peer string) (models.PendingOperation, error) {
	return r.request(peer, models.OperationRemove)
}

func (r *Reconciler) request(peer string, kind models.OperationKind) (models.PendingOperation, error) {
	peer = strings.TrimSpace(peer)
	if err := r.validate(peer); err != nil {
		return models.PendingOperation{}, fmt.Errorf("%w: %q: %v", ErrMalformedInput, peer, err)
	}
	key := models.PeerKey(peer)
	if key == r.account {
		return models.PendingOperation{}, ErrSelfRelation
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.pending[key]; busy {
		return models.PendingOperation{}, fmt.Errorf("%w: %s", ErrOperationInProgress, peer)
	}

	var before *models.Relation
	if cur, ok := r.relations[key]; ok {
		before = &cur
		peer = cur.Peer
	}
	switch kind {
	case models.OperationAdd:
		if before != nil && before.Direction.HasOutgoing() {
			return models.PendingOperation{}, fmt.Errorf("%w: %s", ErrAlreadyTrusted, peer)
		}
	case models.OperationRemove:
		if before == nil || !before.Direction.HasOutgoing() {
			return models.PendingOperation{}, fmt.Errorf("%w: %s", ErrNotTrusted, peer)
		}
	}

	op := models.PendingOperation{
		ID:       uuid.New(),
		Peer:     peer,
		Kind:     kind,
		IssuedAt: r.now(),
	}
	r.put(key, transition(before, op, op.IssuedAt))
	r.pending[key] = &pendingOp{op: op, before: before, applied: true}
	return op, nil
}

// Confirm finalizes a pending operation. The view already shows the change
// unless a load superseded the patch, in which case it is re-applied.
func (r *Reconciler) Confirm(op models.PendingOperation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := models.PeerKey(op.Peer)
	p, ok := r.pending[key]
	if !ok || p.op.ID != op.ID {
		return r.resolveSettled(op)
	}
	delete(r.pending, key)
	if !p.applied {
		var cur *models.Relation
		if rel, ok := r.relations[key]; ok {
			cur = &rel
		}
		r.put(key, transition(cur, op, r.now()))
	}
	return nil
}

// Rollback reverts the view entry for op.Peer to its state before the request
// and returns an *OperationFailedError describing the failure. Implicitly
// confirmed operations are left alone and return nil.
func (r *Reconciler) Rollback(op models.PendingOperation, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := models.PeerKey(op.Peer)
	p, ok := r.pending[key]
	if !ok || p.op.ID != op.ID {
		return r.resolveSettled(op)
	}
	delete(r.pending, key)
	r.put(key, p.before)
	return &OperationFailedError{Peer: p.op.Peer, Kind: p.op.Kind, Cause: cause}
}

func (r *Reconciler) resolveSettled(op models.PendingOperation) error {
	if _, ok := r.settled[op.ID]; ok {
		delete(r.settled, op.ID)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownOperation, op.ID)
}

// CurrentView returns a copy of the reconciled view.
func (r *Reconciler) CurrentView() models.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// Pending returns the unresolved operations ordered by issue time.
func (r *Reconciler) Pending() []models.PendingOperation {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make([]models.PendingOperation, 0, len(r.pending))
	for _, p := range r.pending {
		ops = append(ops, p.op)
	}
	slices.SortFunc(ops, func(a, b models.PendingOperation) int {
		return a.IssuedAt.Compare(b.IssuedAt)
	})
	return ops
}

func (r *Reconciler) put(key string, rel *models.Relation) {
	if rel == nil {
		delete(r.relations, key)
		return
	}
	r.relations[key] = *rel
}

func (r *Reconciler) snapshot() models.View {
	rels := slices.Collect(maps.Values(r.relations))
	slices.SortFunc(rels, func(a, b models.Relation) int {
		if c := b.ObservedAt.Compare(a.ObservedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Key(), b.Key())
	})
	pending := make(map[string]models.OperationKind, len(r.pending))
	for key, p := range r.pending {
		pending[key] = p.op.Kind
	}
	return models.View{Relations: rels, Pending: pending, LoadedAt: r.loadedAt}
}

// transition applies op to cur and returns the resulting entry, nil when absent.
func transition(cur *models.Relation, op models.PendingOperation, at time.Time) *models.Relation {
	incoming := cur != nil && cur.Direction.HasIncoming()
	outgoing := cur != nil && cur.Direction.HasOutgoing()
	switch op.Kind {
	case models.OperationAdd:
		outgoing = true
	case models.OperationRemove:
		outgoing = false
	}
	dir, ok := models.Combine(incoming, outgoing)
	if !ok {
		return nil
	}
	peer := op.Peer
	if cur != nil {
		if cur.Direction == dir {
			return cur
		}
		peer = cur.Peer
	}
	return &models.Relation{Peer: peer, Direction: dir, ObservedAt: at}
}

// reflects reports whether the fresh entry already shows the intended change.
func reflects(kind models.OperationKind, cur models.Relation, present bool) bool {
	hasOutgoing := present && cur.Direction.HasOutgoing()
	if kind == models.OperationAdd {
		return hasOutgoing
	}
	return !hasOutgoing
}
