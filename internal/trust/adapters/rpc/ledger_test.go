package rpc

import (
	"context"
	"errors"
	"strings"
	"testing"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustdash/internal/trust/models"
	"trustdash/internal/trust/ports"
)

type circlesService struct {
	relations map[string]trustRelations
}

func (s *circlesService) GetTrustRelations(_ context.Context, account string) (trustRelations, error) {
	rel, ok := s.relations[strings.ToLower(account)]
	if !ok {
		return trustRelations{}, errors.New("avatar not found")
	}
	return rel, nil
}

func newInProcClient(t *testing.T) *gethrpc.Client {
	t.Helper()
	server := gethrpc.NewServer()
	err := server.RegisterName("circles", &circlesService{relations: map[string]trustRelations{
		"0xme": {
			User:      "0xme",
			Trusts:    []string{"0xA", "0xB"},
			TrustedBy: []string{"0xA"},
		},
	}})
	require.NoError(t, err)
	client := gethrpc.DialInProc(server)
	t.Cleanup(func() {
		client.Close()
		server.Stop()
	})
	return client
}

type recordingWriter struct {
	added, removed []string
}

func (w *recordingWriter) AddTrust(_ context.Context, _, peer string) error {
	w.added = append(w.added, peer)
	return nil
}

func (w *recordingWriter) RemoveTrust(_ context.Context, _, peer string) error {
	w.removed = append(w.removed, peer)
	return nil
}

func TestLedger_ListRelations(t *testing.T) {
	ledger, err := New(newInProcClient(t))
	require.NoError(t, err)

	raw, err := ledger.ListRelations(context.Background(), "0xMe")
	require.NoError(t, err)
	assert.Equal(t, []models.Edge{{Peer: "0xA"}}, raw.Incoming)
	assert.Equal(t, []models.Edge{{Peer: "0xA"}, {Peer: "0xB"}}, raw.Outgoing)
}

func TestLedger_RPCErrorIsUnavailable(t *testing.T) {
	ledger, err := New(newInProcClient(t))
	require.NoError(t, err)

	_, err = ledger.ListRelations(context.Background(), "0xunknown")
	assert.ErrorIs(t, err, ports.ErrAdapterUnavailable)
}

func TestLedger_WritesGoToWriter(t *testing.T) {
	writer := &recordingWriter{}
	ledger, err := New(newInProcClient(t), WithWriter(writer))
	require.NoError(t, err)

	require.NoError(t, ledger.AddTrust(context.Background(), "0xMe", "0xC"))
	require.NoError(t, ledger.RemoveTrust(context.Background(), "0xMe", "0xB"))
	assert.Equal(t, []string{"0xC"}, writer.added)
	assert.Equal(t, []string{"0xB"}, writer.removed)
}

func TestLedger_ReadOnlyRejectsWrites(t *testing.T) {
	ledger, err := New(newInProcClient(t))
	require.NoError(t, err)

	err = ledger.AddTrust(context.Background(), "0xMe", "0xC")
	var rejected *ports.RejectedError
	assert.True(t, errors.As(err, &rejected))
}

func TestNew_RequiresCaller(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}
