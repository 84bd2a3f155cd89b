// Package service runs trust operations for account sessions. Each account
// gets one Reconciler; the service polls the ledger into it and wraps every
// trust or untrust in request, ledger call, then confirm or rollback.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"trustdash/internal/trust/metrics"
	"trustdash/internal/trust/models"
	"trustdash/internal/trust/ports"
	"trustdash/internal/trust/reconciler"
	dErrors "trustdash/pkg/domain-errors"
	"trustdash/pkg/platform/audit"
	"trustdash/pkg/requestcontext"
)

const tracerName = "trustdash/internal/trust/service"

// Service orchestrates trust sessions.
type Service struct {
	ledger   ports.LedgerPort
	auditor  ports.AuditPort
	metrics  *metrics.Metrics
	logger   *slog.Logger
	validate reconciler.Validator
	clock    func() time.Time
	tracer   trace.Tracer

	mu       sync.Mutex
	sessions map[string]*reconciler.Reconciler
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithAuditor(auditor ports.AuditPort) Option {
	return func(s *Service) {
		s.auditor = auditor
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithValidator sets the peer identifier validator for new sessions.
func WithValidator(v reconciler.Validator) Option {
	return func(s *Service) {
		if v != nil {
			s.validate = v
		}
	}
}

// WithClock sets the time source sessions use for optimistic patches.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.clock = now
		}
	}
}

// New constructs a Service.
func New(ledger ports.LedgerPort, opts ...Option) (*Service, error) {
	if ledger == nil {
		return nil, errors.New("trust ledger is required")
	}
	s := &Service{
		ledger:   ledger,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		validate: reconciler.HexAddress,
		clock:    time.Now,
		tracer:   otel.Tracer(tracerName),
		sessions: make(map[string]*reconciler.Reconciler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Session returns the reconciler for account, creating it on first use.
func (s *Service) Session(account string) (*reconciler.Reconciler, error) {
	key := models.PeerKey(account)

	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.sessions[key]; ok {
		return rec, nil
	}
	rec, err := reconciler.New(account, s.validate,
		reconciler.WithClock(s.clock),
		reconciler.WithLogger(s.logger.With("account", key)),
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid account")
	}
	s.sessions[key] = rec
	s.metrics.SetSessions(len(s.sessions))
	return rec, nil
}

// CloseSession discards the session for account. Unresolved operations are lost.
func (s *Service) CloseSession(account string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, models.PeerKey(account))
	s.metrics.SetSessions(len(s.sessions))
}

// View returns the current view, loading it from the ledger on first access.
func (s *Service) View(ctx context.Context, account string) (models.View, error) {
	rec, err := s.Session(account)
	if err != nil {
		return models.View{}, err
	}
	if view := rec.CurrentView(); view.Loaded() {
		return view, nil
	}
	return s.Refresh(ctx, account)
}

// Refresh polls the ledger and loads the result into the session.
func (s *Service) Refresh(ctx context.Context, account string) (models.View, error) {
	ctx, span := s.tracer.Start(ctx, "trust.Refresh", trace.WithAttributes(attribute.String("account", account)))
	defer span.End()

	rec, err := s.Session(account)
	if err != nil {
		return models.View{}, s.fail(span, err)
	}

	start := time.Now()
	raw, err := s.ledger.ListRelations(ctx, rec.Account())
	s.metrics.ObserveLedgerLatency("list", time.Since(start))
	if err != nil {
		s.logger.WarnContext(ctx, "failed to list trust relations",
			"account", rec.Account(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return rec.CurrentView(), s.fail(span, translate(err))
	}

	view, err := rec.LoadEdges(raw.Incoming, raw.Outgoing, requestcontext.Now(ctx))
	if err != nil {
		s.logger.ErrorContext(ctx, "ledger returned malformed relations",
			"account", rec.Account(),
			"error", err,
		)
		return rec.CurrentView(), s.fail(span, dErrors.Wrap(err, dErrors.CodeUnavailable, "ledger returned malformed relations"))
	}
	span.SetAttributes(attribute.Int("relations", len(view.Relations)))
	s.emit(ctx, audit.EventRelationsRefreshed, rec.Account(), "", "")
	return view, nil
}

// Trust adds an outgoing edge to peer.
func (s *Service) Trust(ctx context.Context, account, peer string) (models.View, error) {
	return s.mutate(ctx, account, peer, models.OperationAdd)
}

// Untrust removes the outgoing edge to peer.
func (s *Service) Untrust(ctx context.Context, account, peer string) (models.View, error) {
	return s.mutate(ctx, account, peer, models.OperationRemove)
}

func (s *Service) mutate(ctx context.Context, account, peer string, kind models.OperationKind) (models.View, error) {
	ctx, span := s.tracer.Start(ctx, "trust."+string(kind), trace.WithAttributes(
		attribute.String("account", account),
		attribute.String("peer", peer),
	))
	defer span.End()

	rec, err := s.Session(account)
	if err != nil {
		return models.View{}, s.fail(span, err)
	}

	var op models.PendingOperation
	if kind == models.OperationAdd {
		op, err = rec.RequestTrust(peer)
	} else {
		op, err = rec.RequestUntrust(peer)
	}
	if err != nil {
		s.metrics.IncrementOutcome(string(kind), "refused")
		return rec.CurrentView(), s.fail(span, translate(err))
	}
	s.metrics.PendingStarted()
	defer s.metrics.PendingResolved()
	s.emit(ctx, audit.EventTrustRequested, rec.Account(), op.Peer, string(kind))

	start := time.Now()
	if kind == models.OperationAdd {
		err = s.ledger.AddTrust(ctx, rec.Account(), op.Peer)
	} else {
		err = s.ledger.RemoveTrust(ctx, rec.Account(), op.Peer)
	}
	s.metrics.ObserveLedgerLatency(string(kind), time.Since(start))

	if err != nil {
		failure := rec.Rollback(op, err)
		if failure == nil {
			// A load in the meantime already showed the change.
			s.metrics.IncrementOutcome(string(kind), "settled")
			return rec.CurrentView(), nil
		}
		s.metrics.IncrementOutcome(string(kind), "rolled_back")
		s.metrics.IncrementRollback(string(kind))
		s.logger.WarnContext(ctx, "trust operation rolled back",
			"account", rec.Account(),
			"peer", op.Peer,
			"kind", kind,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		s.emitWithReason(ctx, audit.EventTrustRolledBack, rec.Account(), op.Peer, string(kind), err.Error())
		return rec.CurrentView(), s.fail(span, translate(failure))
	}

	if err := rec.Confirm(op); err != nil && !errors.Is(err, reconciler.ErrUnknownOperation) {
		return rec.CurrentView(), s.fail(span, translate(err))
	}
	s.metrics.IncrementOutcome(string(kind), "confirmed")
	if kind == models.OperationAdd {
		s.emit(ctx, audit.EventTrustGranted, rec.Account(), op.Peer, "")
	} else {
		s.emit(ctx, audit.EventTrustRevoked, rec.Account(), op.Peer, "")
	}
	return rec.CurrentView(), nil
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	return err
}

func (s *Service) emit(ctx context.Context, event audit.AuditEvent, account, subject, decision string) {
	s.emitWithReason(ctx, event, account, subject, decision, "")
}

func (s *Service) emitWithReason(ctx context.Context, event audit.AuditEvent, account, subject, decision, reason string) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Account:   account,
		Subject:   subject,
		Action:    string(event),
		Decision:  decision,
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", event,
			"account", account,
			"error", err,
		)
	}
}
