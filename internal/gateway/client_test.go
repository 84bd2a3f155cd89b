package gateway

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/suite"

	avatarports "trustdash/internal/avatar/ports"
	trustports "trustdash/internal/trust/ports"
	"trustdash/pkg/platform/sentinel"
)

var (
	account = "0x" + strings.Repeat("1", 40)
	peer    = "0x" + strings.Repeat("a", 40)
)

// =============================================================================
// Gateway Client Test Suite
// =============================================================================
// Runs the client against a chi router in httptest and checks the status
// mapping onto both ports, plus the circuit breaker behaviour.

type GatewayClientSuite struct {
	suite.Suite
	server *httptest.Server
	router chi.Router
	client *Client
	calls  atomic.Int32
}

func TestGatewayClientSuite(t *testing.T) {
	suite.Run(t, new(GatewayClientSuite))
}

func (s *GatewayClientSuite) SetupTest() {
	s.router = chi.NewRouter()
	s.calls.Store(0)
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.calls.Add(1)
			next.ServeHTTP(w, r)
		})
	})
	s.server = httptest.NewServer(s.router)

	var err error
	s.client, err = New(s.server.URL+"/", WithBreakerSettings(BreakerSettings{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		MinRequests:  2,
		FailureRatio: 0.4,
	}))
	s.Require().NoError(err)
}

func (s *GatewayClientSuite) TearDownTest() {
	s.server.Close()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *GatewayClientSuite) TestNewRejectsBadURL() {
	_, err := New("not a url")
	s.Error(err)
}

func (s *GatewayClientSuite) TestListRelations() {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s.router.Get("/avatars/{account}/relations", func(w http.ResponseWriter, r *http.Request) {
		s.Equal(account, chi.URLParam(r, "account"))
		writeJSON(w, http.StatusOK, map[string]any{
			"incoming": []map[string]any{{"peer": peer, "timestamp": ts}},
			"outgoing": []map[string]any{{"peer": peer}},
		})
	})

	raw, err := s.client.ListRelations(context.Background(), strings.ToUpper(account[:2])+account[2:])
	s.Require().NoError(err)
	s.Require().Len(raw.Incoming, 1)
	s.Equal(peer, raw.Incoming[0].Peer)
	s.True(ts.Equal(raw.Incoming[0].Timestamp))
	s.Require().Len(raw.Outgoing, 1)
	s.True(raw.Outgoing[0].Timestamp.IsZero())
}

func (s *GatewayClientSuite) TestTrustMutations() {
	s.router.Post("/avatars/{account}/trusts", func(w http.ResponseWriter, r *http.Request) {
		var body trustRequest
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&body))
		if body.Peer == account {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "cannot trust yourself"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	s.router.Delete("/avatars/{account}/trusts/{peer}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	s.Run("add succeeds", func() {
		s.NoError(s.client.AddTrust(context.Background(), account, peer))
	})

	s.Run("4xx is rejected with the gateway reason", func() {
		err := s.client.AddTrust(context.Background(), account, account)
		var rejected *trustports.RejectedError
		s.Require().ErrorAs(err, &rejected)
		s.Equal("cannot trust yourself", rejected.Reason)
	})

	s.Run("5xx is unavailable", func() {
		err := s.client.RemoveTrust(context.Background(), account, peer)
		s.ErrorIs(err, trustports.ErrAdapterUnavailable)
	})
}

func (s *GatewayClientSuite) TestAvatar() {
	s.router.Get("/avatars/{account}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "account") == peer {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no avatar"})
			return
		}
		writeJSON(w, http.StatusOK, avatarports.Avatar{Address: account, Type: avatarports.AvatarHuman, Version: 2})
	})
	s.router.Get("/avatars/{account}/balance", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, amountJSON{Amount: "1000000000000000000"})
	})
	s.router.Get("/avatars/{account}/mintable", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, amountJSON{Amount: "lots"})
	})
	s.router.Post("/avatars/{account}/transfers", func(w http.ResponseWriter, r *http.Request) {
		var body transferRequest
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&body))
		s.Equal("42", body.Amount)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "insufficient balance"})
	})

	ctx := context.Background()

	avatar, err := s.client.GetAvatar(ctx, account)
	s.Require().NoError(err)
	s.Equal(avatarports.AvatarHuman, avatar.Type)

	_, err = s.client.GetAvatar(ctx, peer)
	s.ErrorIs(err, avatarports.ErrAvatarNotFound)
	s.ErrorIs(err, sentinel.ErrNotFound)

	balance, err := s.client.TotalBalance(ctx, account)
	s.Require().NoError(err)
	s.Equal("1000000000000000000", balance.String())

	_, err = s.client.MintableAmount(ctx, account)
	s.ErrorIs(err, avatarports.ErrHubUnavailable)

	err = s.client.Transfer(ctx, account, peer, big.NewInt(42))
	var rejected *avatarports.RejectedError
	s.Require().ErrorAs(err, &rejected)
	s.Equal("insufficient balance", rejected.Reason)
}

func (s *GatewayClientSuite) TestBreaker() {
	s.router.Get("/avatars/{account}/balance", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	s.router.Get("/avatars/{account}/mintable", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "denied"})
	})
	ctx := context.Background()

	s.Run("client errors do not trip the breaker", func() {
		for range 3 {
			_, err := s.client.MintableAmount(ctx, account)
			s.ErrorIs(err, sentinel.ErrRejected)
		}
		s.Equal(gobreaker.StateClosed, s.client.BreakerState())
	})

	s.Run("server errors open it and calls short-circuit", func() {
		for range 2 {
			_, err := s.client.TotalBalance(ctx, account)
			s.ErrorIs(err, avatarports.ErrHubUnavailable)
		}
		s.Equal(gobreaker.StateOpen, s.client.BreakerState())

		before := s.calls.Load()
		_, err := s.client.TotalBalance(ctx, account)
		s.ErrorIs(err, sentinel.ErrUnavailable)
		s.ErrorIs(err, gobreaker.ErrOpenState)
		s.Equal(before, s.calls.Load(), "open breaker must not reach the gateway")
	})
}
