package service

//go:generate mockgen -destination=mocks/mocks.go -package=mocks trustdash/internal/avatar/ports AvatarPort,AuditPort

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"trustdash/internal/avatar/ports"
	"trustdash/internal/avatar/service/mocks"
	"trustdash/pkg/circles"
	dErrors "trustdash/pkg/domain-errors"
	"trustdash/pkg/platform/audit"
	"trustdash/pkg/requestcontext"
)

var (
	me    = "0x" + strings.Repeat("1", 40)
	other = "0x" + strings.Repeat("2", 40)
)

// =============================================================================
// Avatar Service Test Suite
// =============================================================================
// Verifies lookup-or-register, the concurrent overview, and that mint and
// transfer map hub failures onto domain codes and audit events.

type AvatarServiceSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	hub      *mocks.MockAvatarPort
	auditor  *mocks.MockAuditPort
	service  *Service
	ctx      context.Context
	now      time.Time
	eventsMu sync.Mutex
	events   []audit.Event
}

func TestAvatarServiceSuite(t *testing.T) {
	suite.Run(t, new(AvatarServiceSuite))
}

func (s *AvatarServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.hub = mocks.NewMockAvatarPort(s.ctrl)
	s.auditor = mocks.NewMockAuditPort(s.ctrl)
	s.now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.events = nil

	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e audit.Event) error {
			s.eventsMu.Lock()
			defer s.eventsMu.Unlock()
			s.events = append(s.events, e)
			return nil
		}).AnyTimes()

	var err error
	s.service, err = New(s.hub, WithAuditor(s.auditor))
	s.Require().NoError(err)
}

func (s *AvatarServiceSuite) actions() []string {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Action)
	}
	return out
}

func (s *AvatarServiceSuite) avatar() *ports.Avatar {
	return &ports.Avatar{Address: me, Type: ports.AvatarHuman, Version: 2, RegisteredAt: s.now}
}

func (s *AvatarServiceSuite) TestNew() {
	_, err := New(nil)
	s.Error(err)
}

// =============================================================================
// EnsureAvatar
// =============================================================================

func (s *AvatarServiceSuite) TestEnsureAvatar() {
	s.Run("existing avatar is returned without registration", func() {
		s.hub.EXPECT().GetAvatar(gomock.Any(), me).Return(s.avatar(), nil)

		avatar, registered, err := s.service.EnsureAvatar(s.ctx, me)
		s.Require().NoError(err)
		s.False(registered)
		s.Equal(me, avatar.Address)
		s.Empty(s.actions())
	})

	s.Run("missing avatar is registered as human", func() {
		s.hub.EXPECT().GetAvatar(gomock.Any(), me).Return(nil, ports.ErrAvatarNotFound)
		s.hub.EXPECT().RegisterHuman(gomock.Any(), me).Return(s.avatar(), nil)

		avatar, registered, err := s.service.EnsureAvatar(s.ctx, me)
		s.Require().NoError(err)
		s.True(registered)
		s.Equal(ports.AvatarHuman, avatar.Type)
		s.Contains(s.actions(), string(audit.EventAvatarRegistered))
	})

	s.Run("registration rejected", func() {
		s.hub.EXPECT().GetAvatar(gomock.Any(), me).Return(nil, ports.ErrAvatarNotFound)
		s.hub.EXPECT().RegisterHuman(gomock.Any(), me).Return(nil, ports.Rejected("not invited"))

		_, _, err := s.service.EnsureAvatar(s.ctx, me)
		s.True(dErrors.HasCode(err, dErrors.CodeRejected))
		s.Contains(dErrors.Message(err), "not invited")
	})

	s.Run("hub unavailable on lookup", func() {
		s.hub.EXPECT().GetAvatar(gomock.Any(), me).Return(nil, ports.Unavailable(errors.New("connection refused")))

		_, _, err := s.service.EnsureAvatar(s.ctx, me)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
		s.ErrorIs(err, ports.ErrHubUnavailable)
	})

	s.Run("invalid account", func() {
		_, _, err := s.service.EnsureAvatar(s.ctx, "alice")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Overview
// =============================================================================

func (s *AvatarServiceSuite) TestOverview() {
	s.Run("returns both amounts", func() {
		s.hub.EXPECT().GetAvatar(gomock.Any(), me).Return(s.avatar(), nil)
		s.hub.EXPECT().MintableAmount(gomock.Any(), me).Return(big.NewInt(5), nil)
		s.hub.EXPECT().TotalBalance(gomock.Any(), me).Return(big.NewInt(100), nil)

		overview, err := s.service.Overview(s.ctx, me)
		s.Require().NoError(err)
		s.Equal(int64(5), overview.Mintable.Int64())
		s.Equal(int64(100), overview.Balance.Int64())
		s.False(overview.Registered)
	})

	s.Run("one failed amount fails the overview", func() {
		s.hub.EXPECT().GetAvatar(gomock.Any(), me).Return(s.avatar(), nil)
		s.hub.EXPECT().MintableAmount(gomock.Any(), me).Return(nil, ports.Unavailable(errors.New("timeout")))
		s.hub.EXPECT().TotalBalance(gomock.Any(), me).Return(big.NewInt(100), nil).MaxTimes(1)

		_, err := s.service.Overview(s.ctx, me)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

// =============================================================================
// Mint
// =============================================================================

func (s *AvatarServiceSuite) TestMint() {
	s.Run("mints and re-reads the balance", func() {
		gomock.InOrder(
			s.hub.EXPECT().PersonalMint(gomock.Any(), me).Return(nil),
			s.hub.EXPECT().TotalBalance(gomock.Any(), me).Return(big.NewInt(42), nil),
		)

		balance, err := s.service.Mint(s.ctx, me)
		s.Require().NoError(err)
		s.Equal(int64(42), balance.Int64())
		s.Contains(s.actions(), string(audit.EventTokensMinted))
	})

	s.Run("rejected mint", func() {
		s.hub.EXPECT().PersonalMint(gomock.Any(), me).Return(ports.Rejected("nothing to mint"))

		_, err := s.service.Mint(s.ctx, me)
		s.True(dErrors.HasCode(err, dErrors.CodeRejected))
	})
}

// =============================================================================
// Send
// =============================================================================

func (s *AvatarServiceSuite) TestSend() {
	s.Run("converts time circles at request time", func() {
		want := circles.TCToCRC(s.now, 1.5)
		s.hub.EXPECT().Transfer(gomock.Any(), me, other, want).Return(nil)

		transfer, err := s.service.Send(s.ctx, me, other, 1.5)
		s.Require().NoError(err)
		s.Equal(0, want.Cmp(transfer.AmountCRC))
		s.Equal(other, transfer.Recipient)

		s.eventsMu.Lock()
		last := s.events[len(s.events)-1]
		s.eventsMu.Unlock()
		s.Equal(string(audit.EventTokensTransferred), last.Action)
		s.Equal(other, last.Subject)
		s.Equal(want.String(), last.Reason)
	})

	s.Run("validation", func() {
		cases := []struct {
			name      string
			recipient string
			amount    float64
		}{
			{"recipient not an address", "bob", 1},
			{"recipient is sender", " " + me, 1},
			{"zero amount", other, 0},
			{"negative amount", other, -2},
		}
		for _, tc := range cases {
			_, err := s.service.Send(s.ctx, me, tc.recipient, tc.amount)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), tc.name)
		}
	})

	s.Run("hub failure emits transfer_failed", func() {
		s.hub.EXPECT().Transfer(gomock.Any(), me, other, gomock.Any()).Return(ports.Rejected("insufficient balance"))

		_, err := s.service.Send(s.ctx, me, other, 1)
		s.True(dErrors.HasCode(err, dErrors.CodeRejected))
		s.Contains(s.actions(), string(audit.EventTransferFailed))
	})
}
