package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"trustdash/internal/trust/handler/mocks"
	"trustdash/internal/trust/models"
	"trustdash/internal/trust/ports"
	"trustdash/internal/trust/reconciler"
	dErrors "trustdash/pkg/domain-errors"
	"trustdash/pkg/testutil"
)

var (
	account = "0x" + strings.Repeat("1", 40)
	peerA   = "0x" + strings.Repeat("a", 40)
	peerB   = "0x" + strings.Repeat("b", 40)
)

type TrustHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
	t0      time.Time
}

func TestTrustHandlerSuite(t *testing.T) {
	suite.Run(t, new(TrustHandlerSuite))
}

func (s *TrustHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
	s.t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func (s *TrustHandlerSuite) view() models.View {
	return models.View{
		Relations: []models.Relation{
			{Peer: peerA, Direction: models.DirectionIncoming, ObservedAt: s.t0},
			{Peer: peerB, Direction: models.DirectionMutual, ObservedAt: s.t0.Add(-time.Hour)},
		},
		Pending:  map[string]models.OperationKind{},
		LoadedAt: s.t0,
	}
}

func (s *TrustHandlerSuite) TestList() {
	s.Run("renders rows with labels and actions", func() {
		s.service.EXPECT().View(gomock.Any(), account).Return(s.view(), nil)

		req := testutil.WithAccount(testutil.NewRequest(s.T(), http.MethodGet, "/trusts"), account)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[TrustsResponse](s.T(), rr)
		s.Equal(account, resp.Account)
		s.Require().Len(resp.Rows, 2)
		s.Equal(RowResponse{Date: s.t0, Relation: "Incoming Trust", Address: peerA, Action: "Trust"}, resp.Rows[0])
		s.Equal("Mutually Trusted", resp.Rows[1].Relation)
		s.Equal("Untrust", resp.Rows[1].Action)
		s.Equal(0, resp.Pending)
		s.Require().NotNil(resp.LoadedAt)
	})

	s.Run("requires an account", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/trusts"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})

	s.Run("unavailable ledger is 503", func() {
		s.service.EXPECT().View(gomock.Any(), account).Return(models.View{},
			dErrors.Wrap(ports.ErrAdapterUnavailable, dErrors.CodeUnavailable, "trust ledger unavailable"))

		req := testutil.WithAccount(testutil.NewRequest(s.T(), http.MethodGet, "/trusts"), account)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, "unavailable")
	})
}

func (s *TrustHandlerSuite) TestRefresh() {
	s.service.EXPECT().Refresh(gomock.Any(), account).Return(s.view(), nil)

	req := testutil.WithAccount(testutil.NewRequest(s.T(), http.MethodPost, "/trusts/refresh"), account)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)
}

func (s *TrustHandlerSuite) TestTrust() {
	s.Run("pending row is rendered", func() {
		view := s.view()
		view.Pending = map[string]models.OperationKind{peerA: models.OperationAdd}
		s.service.EXPECT().Trust(gomock.Any(), account, peerA).Return(view, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/trusts", TrustRequest{Peer: "  " + peerA + " "})
		rr := testutil.DoRequest(s.router, testutil.WithAccount(req, account))

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[TrustsResponse](s.T(), rr)
		s.Equal("Pending", resp.Rows[0].Action)
		s.Equal(1, resp.Pending)
	})

	s.Run("missing peer is a validation error", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/trusts", map[string]string{})
		rr := testutil.DoRequest(s.router, testutil.WithAccount(req, account))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("malformed body is a bad request", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/trusts", "{")
		rr := testutil.DoRequest(s.router, testutil.WithAccount(req, account))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("already trusted is a conflict", func() {
		s.service.EXPECT().Trust(gomock.Any(), account, peerB).Return(s.view(),
			dErrors.Wrap(reconciler.ErrAlreadyTrusted, dErrors.CodeConflict, "peer is already trusted"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/trusts", TrustRequest{Peer: peerB})
		rr := testutil.DoRequest(s.router, testutil.WithAccount(req, account))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})

	s.Run("rejected by the ledger is 422 with the reason", func() {
		failed := &reconciler.OperationFailedError{Peer: peerA, Kind: models.OperationAdd, Cause: ports.Rejected("no avatar")}
		s.service.EXPECT().Trust(gomock.Any(), account, peerA).Return(s.view(),
			dErrors.Wrap(failed, dErrors.CodeRejected, "add trust for "+peerA+" failed: no avatar"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/trusts", TrustRequest{Peer: peerA})
		rr := testutil.DoRequest(s.router, testutil.WithAccount(req, account))
		testutil.AssertStatus(s.T(), rr, http.StatusUnprocessableEntity)
		errResp := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Equal("rejected", errResp["error"])
		s.Contains(errResp["error_description"], "no avatar")
	})
}

func (s *TrustHandlerSuite) TestUntrust() {
	s.Run("peer comes from the path", func() {
		s.service.EXPECT().Untrust(gomock.Any(), account, peerB).Return(s.view(), nil)

		req := testutil.WithAccount(testutil.NewRequest(s.T(), http.MethodDelete, "/trusts/"+peerB), account)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("not trusted is 404", func() {
		s.service.EXPECT().Untrust(gomock.Any(), account, peerA).Return(s.view(),
			dErrors.Wrap(reconciler.ErrNotTrusted, dErrors.CodeNotFound, "peer is not trusted"))

		req := testutil.WithAccount(testutil.NewRequest(s.T(), http.MethodDelete, "/trusts/"+peerA), account)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("internal errors hide their description", func() {
		s.service.EXPECT().Untrust(gomock.Any(), account, peerA).Return(models.View{}, errors.New("boom"))

		req := testutil.WithAccount(testutil.NewRequest(s.T(), http.MethodDelete, "/trusts/"+peerA), account)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)
		errResp := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Equal("internal_error", errResp["error"])
		s.Empty(errResp["error_description"])
	})
}
