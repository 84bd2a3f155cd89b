package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustdash/internal/trust/models"
	"trustdash/internal/trust/ports"
)

func TestLedger(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	newLedger := func() *Ledger {
		l := NewLedger(WithClock(func() time.Time { return t0 }))
		l.Seed("0xA", "0xMe", t0.Add(-time.Hour))
		l.Seed("0xMe", "0xA", t0.Add(-2*time.Hour))
		l.Seed("0xMe", "0xB", t0.Add(-3*time.Hour))
		return l
	}

	t.Run("lists both directions", func(t *testing.T) {
		raw, err := newLedger().ListRelations(ctx, "0xme")
		require.NoError(t, err)
		assert.Equal(t, []models.Edge{{Peer: "0xA", Timestamp: t0.Add(-time.Hour)}}, raw.Incoming)
		assert.Equal(t, []models.Edge{
			{Peer: "0xA", Timestamp: t0.Add(-2 * time.Hour)},
			{Peer: "0xB", Timestamp: t0.Add(-3 * time.Hour)},
		}, raw.Outgoing)
	})

	t.Run("add stamps the edge", func(t *testing.T) {
		l := newLedger()
		require.NoError(t, l.AddTrust(ctx, "0xMe", "0xC"))
		raw, err := l.ListRelations(ctx, "0xMe")
		require.NoError(t, err)
		assert.Contains(t, raw.Outgoing, models.Edge{Peer: "0xC", Timestamp: t0})
	})

	t.Run("duplicate add is rejected", func(t *testing.T) {
		err := newLedger().AddTrust(ctx, "0xme", "0xb")
		var rejected *ports.RejectedError
		assert.True(t, errors.As(err, &rejected))
	})

	t.Run("self trust is rejected", func(t *testing.T) {
		err := newLedger().AddTrust(ctx, "0xMe", "0xME")
		var rejected *ports.RejectedError
		assert.True(t, errors.As(err, &rejected))
	})

	t.Run("remove", func(t *testing.T) {
		l := newLedger()
		require.NoError(t, l.RemoveTrust(ctx, "0xMe", "0xB"))
		raw, err := l.ListRelations(ctx, "0xMe")
		require.NoError(t, err)
		assert.Len(t, raw.Outgoing, 1)

		err = l.RemoveTrust(ctx, "0xMe", "0xB")
		var rejected *ports.RejectedError
		assert.True(t, errors.As(err, &rejected))
	})

	t.Run("cancelled context is unavailable", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := newLedger().ListRelations(cctx, "0xMe")
		assert.ErrorIs(t, err, ports.ErrAdapterUnavailable)
	})
}
