package reconciler

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustdash/internal/trust/models"
)

const localAccount = "0xSelf"

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newReconciler(t *testing.T) (*Reconciler, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: t0.Add(time.Hour)}
	r, err := New(localAccount, NonEmpty, WithClock(clock.Now))
	require.NoError(t, err)
	return r, clock
}

type entry struct {
	Peer      string
	Direction models.Direction
}

func entries(v models.View) []entry {
	out := make([]entry, 0, len(v.Relations))
	for _, r := range v.Relations {
		out = append(out, entry{Peer: r.Peer, Direction: r.Direction})
	}
	return out
}

var errLedgerDown = errors.New("ledger down")

func TestNew(t *testing.T) {
	t.Run("empty account is rejected", func(t *testing.T) {
		_, err := New("", nil)
		require.Error(t, err)
	})

	t.Run("account is checked by the validator", func(t *testing.T) {
		_, err := New("not-an-address", HexAddress)
		require.Error(t, err)
	})

	t.Run("nil validator defaults to non-empty", func(t *testing.T) {
		r, err := New("0xSelf", nil)
		require.NoError(t, err)
		assert.Equal(t, "0xself", r.Account())
	})
}

func TestLoad_ClassifiesDirections(t *testing.T) {
	r, _ := newReconciler(t)

	view, err := r.Load([]string{"0xA"}, []string{"0xA", "0xB"}, t0)
	require.NoError(t, err)

	assert.Equal(t, []entry{
		{Peer: "0xA", Direction: models.DirectionMutual},
		{Peer: "0xB", Direction: models.DirectionOutgoing},
	}, entries(view))
	assert.True(t, view.Loaded())
	assert.Empty(t, view.Pending)
}

func TestLoad_OneRelationPerPeer(t *testing.T) {
	r, _ := newReconciler(t)
	incoming := []string{"0x1", "0x2", "0x3", "0x3", "0X4"}
	outgoing := []string{"0x3", "0x4", "0x5", "0x5"}

	view, err := r.Load(incoming, outgoing, t0)
	require.NoError(t, err)

	got := map[string]models.Direction{}
	for _, rel := range view.Relations {
		_, dup := got[rel.Key()]
		require.False(t, dup, "duplicate relation for %s", rel.Peer)
		got[rel.Key()] = rel.Direction
	}
	assert.Equal(t, map[string]models.Direction{
		"0x1": models.DirectionIncoming,
		"0x2": models.DirectionIncoming,
		"0x3": models.DirectionMutual,
		"0x4": models.DirectionMutual,
		"0x5": models.DirectionOutgoing,
	}, got)
}

func TestLoad_Idempotent(t *testing.T) {
	r, _ := newReconciler(t)
	incoming := []string{"0xC", "0xA"}
	outgoing := []string{"0xB", "0xA"}

	first, err := r.Load(incoming, outgoing, t0)
	require.NoError(t, err)
	second, err := r.Load(incoming, outgoing, t0)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	third, err := r.Load(incoming, outgoing, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, first.Relations, third.Relations, "unchanged relations keep their observation time")
}

func TestLoad_OrdersMostRecentFirst(t *testing.T) {
	r, _ := newReconciler(t)

	view, err := r.LoadEdges(
		[]models.Edge{{Peer: "0xA", Timestamp: t0}, {Peer: "0xC"}},
		[]models.Edge{{Peer: "0xB", Timestamp: t0.Add(time.Minute)}},
		t0.Add(-time.Hour),
	)
	require.NoError(t, err)

	assert.Equal(t, []entry{
		{Peer: "0xB", Direction: models.DirectionOutgoing},
		{Peer: "0xA", Direction: models.DirectionIncoming},
		{Peer: "0xC", Direction: models.DirectionIncoming},
	}, entries(view))
	assert.Equal(t, t0.Add(-time.Hour), view.Relations[2].ObservedAt)
}

func TestLoad_MutualTakesLaterTimestamp(t *testing.T) {
	r, _ := newReconciler(t)

	view, err := r.LoadEdges(
		[]models.Edge{{Peer: "0xA", Timestamp: t0}},
		[]models.Edge{{Peer: "0xa", Timestamp: t0.Add(time.Minute)}},
		t0,
	)
	require.NoError(t, err)
	require.Len(t, view.Relations, 1)
	assert.Equal(t, models.DirectionMutual, view.Relations[0].Direction)
	assert.Equal(t, "0xA", view.Relations[0].Peer, "first spelling wins")
	assert.Equal(t, t0.Add(time.Minute), view.Relations[0].ObservedAt)
}

func TestLoad_SkipsSelfEdges(t *testing.T) {
	r, _ := newReconciler(t)

	view, err := r.Load([]string{"0xself"}, []string{"0xSELF", "0xA"}, t0)
	require.NoError(t, err)
	assert.Equal(t, []entry{{Peer: "0xA", Direction: models.DirectionOutgoing}}, entries(view))
}

func TestLoad_MalformedInputLeavesViewUntouched(t *testing.T) {
	r, _ := newReconciler(t)
	before, err := r.Load([]string{"0xA"}, nil, t0)
	require.NoError(t, err)

	for _, bad := range []string{"", "  ", "0x A"} {
		t.Run(fmt.Sprintf("%q", bad), func(t *testing.T) {
			_, err := r.Load([]string{"0xB"}, []string{bad}, t0)
			require.ErrorIs(t, err, ErrMalformedInput)
			assert.Equal(t, before, r.CurrentView())
		})
	}
}

func TestLoad_InjectedValidator(t *testing.T) {
	r, err := New("0x00000000000000000000000000000000000000aa", HexAddress)
	require.NoError(t, err)

	_, err = r.Load([]string{"0xA"}, nil, t0)
	require.ErrorIs(t, err, ErrMalformedInput)

	view, err := r.Load([]string{"0x00000000000000000000000000000000000000Bb"}, nil, t0)
	require.NoError(t, err)
	require.Len(t, view.Relations, 1)
}

func TestRequestTrust(t *testing.T) {
	t.Run("absent peer becomes outgoing", func(t *testing.T) {
		r, clock := newReconciler(t)
		_, err := r.Load([]string{"0xA"}, nil, t0)
		require.NoError(t, err)

		op, err := r.RequestTrust("0xB")
		require.NoError(t, err)
		assert.Equal(t, models.OperationAdd, op.Kind)
		assert.Equal(t, clock.Now(), op.IssuedAt)

		rel, ok := r.CurrentView().Find("0xB")
		require.True(t, ok)
		assert.Equal(t, models.DirectionOutgoing, rel.Direction)
		assert.Equal(t, clock.Now(), rel.ObservedAt)
	})

	t.Run("incoming peer is upgraded to mutual", func(t *testing.T) {
		r, _ := newReconciler(t)
		_, err := r.Load([]string{"0xA"}, nil, t0)
		require.NoError(t, err)

		_, err = r.RequestTrust("0xa")
		require.NoError(t, err)

		view := r.CurrentView()
		assert.Equal(t, []entry{{Peer: "0xA", Direction: models.DirectionMutual}}, entries(view))
		assert.Equal(t, models.OperationAdd, view.Pending["0xa"])
	})

	t.Run("already trusted peer is rejected", func(t *testing.T) {
		r, _ := newReconciler(t)
		before, err := r.Load(nil, []string{"0xA"}, t0)
		require.NoError(t, err)

		_, err = r.RequestTrust("0xA")
		require.ErrorIs(t, err, ErrAlreadyTrusted)
		assert.Equal(t, before, r.CurrentView())
	})

	t.Run("self trust is malformed", func(t *testing.T) {
		r, _ := newReconciler(t)
		_, err := r.RequestTrust("0xSELF")
		require.ErrorIs(t, err, ErrSelfRelation)
		require.ErrorIs(t, err, ErrMalformedInput)
	})

	t.Run("invalid peer is malformed", func(t *testing.T) {
		r, _ := newReconciler(t)
		_, err := r.RequestTrust("")
		require.ErrorIs(t, err, ErrMalformedInput)
		assert.Empty(t, r.CurrentView().Relations)
	})
}

func TestRequestTrust_RollbackRestoresExactEntry(t *testing.T) {
	r, clock := newReconciler(t)
	before, err := r.Load([]string{"0xA"}, []string{"0xB"}, t0)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	op, err := r.RequestTrust("0xA")
	require.NoError(t, err)
	require.NotEqual(t, before, r.CurrentView())

	err = r.Rollback(op, errLedgerDown)
	var failed *OperationFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "0xA", failed.Peer)
	assert.Equal(t, models.OperationAdd, failed.Kind)
	assert.ErrorIs(t, err, errLedgerDown)

	assert.Equal(t, before, r.CurrentView())
}

func TestRequestTrust_DuplicateInFlight(t *testing.T) {
	r, _ := newReconciler(t)
	_, err := r.Load(nil, nil, t0)
	require.NoError(t, err)

	first, err := r.RequestTrust("0xB")
	require.NoError(t, err)
	patched := r.CurrentView()

	_, err = r.RequestTrust("0xb")
	require.ErrorIs(t, err, ErrOperationInProgress)
	_, err = r.RequestUntrust("0xB")
	require.ErrorIs(t, err, ErrOperationInProgress)
	assert.Equal(t, patched, r.CurrentView())
	assert.Len(t, r.Pending(), 1)

	require.NoError(t, r.Confirm(first))
	assert.Empty(t, r.Pending())
}

func TestRequestUntrust(t *testing.T) {
	t.Run("example: untrust then rollback", func(t *testing.T) {
		r, _ := newReconciler(t)
		loaded, err := r.Load([]string{"0xA"}, []string{"0xA", "0xB"}, t0)
		require.NoError(t, err)

		op, err := r.RequestUntrust("0xB")
		require.NoError(t, err)
		assert.Equal(t, []entry{{Peer: "0xA", Direction: models.DirectionMutual}}, entries(r.CurrentView()))

		err = r.Rollback(op, errLedgerDown)
		var failed *OperationFailedError
		require.ErrorAs(t, err, &failed)
		assert.Equal(t, "0xB", failed.Peer)
		assert.Equal(t, models.OperationRemove, failed.Kind)

		assert.Equal(t, []entry{
			{Peer: "0xA", Direction: models.DirectionMutual},
			{Peer: "0xB", Direction: models.DirectionOutgoing},
		}, entries(r.CurrentView()))
		assert.Equal(t, loaded, r.CurrentView())
	})

	t.Run("mutual is downgraded to incoming", func(t *testing.T) {
		r, _ := newReconciler(t)
		_, err := r.Load([]string{"0xA"}, []string{"0xA"}, t0)
		require.NoError(t, err)

		op, err := r.RequestUntrust("0xA")
		require.NoError(t, err)
		assert.Equal(t, []entry{{Peer: "0xA", Direction: models.DirectionIncoming}}, entries(r.CurrentView()))

		require.NoError(t, r.Confirm(op))
		assert.Equal(t, []entry{{Peer: "0xA", Direction: models.DirectionIncoming}}, entries(r.CurrentView()))
	})

	t.Run("no outgoing edge is not trusted", func(t *testing.T) {
		r, _ := newReconciler(t)
		before, err := r.Load([]string{"0xA"}, nil, t0)
		require.NoError(t, err)

		for _, peer := range []string{"0xA", "0xZ"} {
			_, err = r.RequestUntrust(peer)
			require.ErrorIs(t, err, ErrNotTrusted)
		}
		assert.Equal(t, before, r.CurrentView())
	})
}

func TestConfirmAndRollback_OutOfOrder(t *testing.T) {
	r, _ := newReconciler(t)
	_, err := r.Load([]string{"0xA"}, []string{"0xC"}, t0)
	require.NoError(t, err)

	opA, err := r.RequestTrust("0xA")
	require.NoError(t, err)
	opB, err := r.RequestTrust("0xB")
	require.NoError(t, err)
	opC, err := r.RequestUntrust("0xC")
	require.NoError(t, err)

	// Responses arrive in reverse issue order.
	require.Error(t, r.Rollback(opC, errLedgerDown))
	require.NoError(t, r.Confirm(opB))
	require.Error(t, r.Rollback(opA, errLedgerDown))

	view := r.CurrentView()
	got := map[string]models.Direction{}
	for _, rel := range view.Relations {
		got[rel.Peer] = rel.Direction
	}
	assert.Equal(t, map[string]models.Direction{
		"0xA": models.DirectionIncoming,
		"0xB": models.DirectionOutgoing,
		"0xC": models.DirectionOutgoing,
	}, got)
	assert.Empty(t, view.Pending)
}

func TestResolve_UnknownHandles(t *testing.T) {
	r, _ := newReconciler(t)
	op, err := r.RequestTrust("0xB")
	require.NoError(t, err)
	require.NoError(t, r.Confirm(op))

	require.ErrorIs(t, r.Confirm(op), ErrUnknownOperation)
	require.ErrorIs(t, r.Rollback(op, errLedgerDown), ErrUnknownOperation)
	require.ErrorIs(t, r.Confirm(models.PendingOperation{Peer: "0xQ"}), ErrUnknownOperation)
}

func TestLoad_ImplicitlyConfirmsReflectedOperations(t *testing.T) {
	r, _ := newReconciler(t)
	_, err := r.Load([]string{"0xA"}, []string{"0xC"}, t0)
	require.NoError(t, err)

	add, err := r.RequestTrust("0xB")
	require.NoError(t, err)
	remove, err := r.RequestUntrust("0xC")
	require.NoError(t, err)

	view, err := r.Load([]string{"0xA"}, []string{"0xB"}, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, view.Pending)
	assert.Empty(t, r.Pending())

	// The ledger call may still fail afterwards; the change is already durable.
	require.NoError(t, r.Rollback(add, errLedgerDown))
	require.NoError(t, r.Confirm(remove))
	assert.Equal(t, view, r.CurrentView())

	_, err = r.RequestUntrust("0xB")
	require.NoError(t, err, "settled peers accept new requests")
}

func TestLoad_FreshTruthSupersedesPatch(t *testing.T) {
	t.Run("rollback keeps the fresh truth", func(t *testing.T) {
		r, _ := newReconciler(t)
		_, err := r.Load(nil, nil, t0)
		require.NoError(t, err)

		op, err := r.RequestTrust("0xA")
		require.NoError(t, err)

		// Peer appears as incoming only: the add is not reflected.
		fresh, err := r.Load([]string{"0xA"}, nil, t0.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, []entry{{Peer: "0xA", Direction: models.DirectionIncoming}}, entries(fresh))
		assert.Equal(t, models.OperationAdd, fresh.Pending["0xa"])

		_, err = r.RequestTrust("0xA")
		require.ErrorIs(t, err, ErrOperationInProgress)

		require.Error(t, r.Rollback(op, errLedgerDown))
		assert.Equal(t, []entry{{Peer: "0xA", Direction: models.DirectionIncoming}}, entries(r.CurrentView()))
	})

	t.Run("confirm re-applies the acknowledged change", func(t *testing.T) {
		r, _ := newReconciler(t)
		_, err := r.Load(nil, nil, t0)
		require.NoError(t, err)

		op, err := r.RequestTrust("0xA")
		require.NoError(t, err)
		_, err = r.Load([]string{"0xA"}, nil, t0.Add(time.Minute))
		require.NoError(t, err)

		require.NoError(t, r.Confirm(op))
		assert.Equal(t, []entry{{Peer: "0xA", Direction: models.DirectionMutual}}, entries(r.CurrentView()))
	})
}

func TestLoad_ReappliesPatchForUnseenPeer(t *testing.T) {
	r, _ := newReconciler(t)
	_, err := r.Load(nil, nil, t0)
	require.NoError(t, err)

	op, err := r.RequestTrust("0xB")
	require.NoError(t, err)

	view, err := r.Load([]string{"0xA"}, nil, t0.Add(time.Minute))
	require.NoError(t, err)
	rel, ok := view.Find("0xB")
	require.True(t, ok, "optimistic patch survives a load that does not mention the peer")
	assert.Equal(t, models.DirectionOutgoing, rel.Direction)
	assert.Equal(t, op.IssuedAt, rel.ObservedAt)

	require.Error(t, r.Rollback(op, errLedgerDown))
	_, ok = r.CurrentView().Find("0xB")
	assert.False(t, ok)
}

func TestCurrentView_IsACopy(t *testing.T) {
	r, _ := newReconciler(t)
	view, err := r.Load([]string{"0xA"}, nil, t0)
	require.NoError(t, err)

	view.Relations[0].Direction = models.DirectionMutual
	view.Pending["0xa"] = models.OperationAdd

	fresh := r.CurrentView()
	assert.Equal(t, models.DirectionIncoming, fresh.Relations[0].Direction)
	assert.Empty(t, fresh.Pending)
}

func TestRows(t *testing.T) {
	r, _ := newReconciler(t)
	_, err := r.Load([]string{"0xA", "0xC"}, []string{"0xA", "0xB"}, t0)
	require.NoError(t, err)
	_, err = r.RequestTrust("0xC")
	require.NoError(t, err)

	rows := r.CurrentView().Rows()
	require.Len(t, rows, 3)

	assert.Equal(t, models.Row{Date: t0.Add(time.Hour), Relation: "Mutually Trusted", Address: "0xC", Action: models.ActionPending}, rows[0])
	assert.Equal(t, models.Row{Date: t0, Relation: "Mutually Trusted", Address: "0xA", Action: models.ActionUntrust}, rows[1])
	assert.Equal(t, models.Row{Date: t0, Relation: "Outgoing Trust", Address: "0xB", Action: models.ActionUntrust}, rows[2])
}
