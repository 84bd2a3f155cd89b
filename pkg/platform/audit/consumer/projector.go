// Package consumer projects audit events from Kafka into a queryable store.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "trustdash/pkg/platform/audit"
	"trustdash/pkg/platform/audit/store/kafka"
)

// Fetcher is the subset of *kgo.Client the projector consumes with.
type Fetcher interface {
	PollFetches(ctx context.Context) kgo.Fetches
	CommitUncommittedOffsets(ctx context.Context) error
}

// Projector copies audit records from the topic into store. Malformed records
// are logged and skipped so they never block the partition.
type Projector struct {
	fetcher Fetcher
	store   audit.Store
	logger  *slog.Logger
}

// NewProjector creates a Projector.
func NewProjector(fetcher Fetcher, store audit.Store, logger *slog.Logger) (*Projector, error) {
	if fetcher == nil {
		return nil, errors.New("kafka fetcher is required")
	}
	if store == nil {
		return nil, errors.New("audit store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Projector{fetcher: fetcher, store: store, logger: logger}, nil
}

// Run polls until ctx is cancelled.
func (p *Projector) Run(ctx context.Context) error {
	for {
		if _, err := p.PollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
}

// PollOnce handles one fetch batch and commits its offsets. It returns the
// number of events stored.
func (p *Projector) PollOnce(ctx context.Context) (int, error) {
	fetches := p.fetcher.PollFetches(ctx)
	if fetches.IsClientClosed() {
		return 0, errors.New("kafka client closed")
	}
	for _, fe := range fetches.Errors() {
		if errors.Is(fe.Err, context.Canceled) || errors.Is(fe.Err, context.DeadlineExceeded) {
			return 0, fe.Err
		}
		p.logger.WarnContext(ctx, "audit fetch error",
			"topic", fe.Topic,
			"partition", fe.Partition,
			"error", fe.Err,
		)
	}

	stored := 0
	var storeErr error
	fetches.EachRecord(func(rec *kgo.Record) {
		if storeErr != nil {
			return
		}
		ok, err := p.Handle(ctx, rec)
		if err != nil {
			storeErr = err
			return
		}
		if ok {
			stored++
		}
	})
	if storeErr != nil {
		// Offsets stay uncommitted so the batch is redelivered.
		return stored, storeErr
	}
	if err := p.fetcher.CommitUncommittedOffsets(ctx); err != nil {
		return stored, fmt.Errorf("commit audit offsets: %w", err)
	}
	return stored, nil
}

// Handle stores one record. It reports false for skipped malformed records.
func (p *Projector) Handle(ctx context.Context, rec *kgo.Record) (bool, error) {
	event, err := kafka.DecodeMessage(rec.Value)
	if err != nil {
		p.logger.ErrorContext(ctx, "skipping malformed audit record",
			"topic", rec.Topic,
			"partition", rec.Partition,
			"offset", rec.Offset,
			"key", string(rec.Key),
			"error", err,
		)
		return false, nil
	}
	if err := p.store.Append(ctx, event); err != nil {
		return false, fmt.Errorf("store audit event: %w", err)
	}
	p.logger.DebugContext(ctx, "projected audit event",
		"action", event.Action,
		"account", event.Account,
		"offset", rec.Offset,
	)
	return true, nil
}
