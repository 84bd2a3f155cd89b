// Package kafka streams audit events to a Kafka topic. The sink wraps another
// audit.Store so reads keep working against the local copy.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	audit "trustdash/pkg/platform/audit"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer is the subset of *kgo.Client used by Sink.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Sink publishes every appended event to a topic, keyed by account, before
// recording it in the wrapped store.
type Sink struct {
	producer Producer
	topic    string
	local    audit.Store
}

// NewSink creates a Sink.
func NewSink(producer Producer, topic string, local audit.Store) (*Sink, error) {
	if producer == nil {
		return nil, errors.New("kafka producer is required")
	}
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	if local == nil {
		return nil, errors.New("local audit store is required")
	}
	return &Sink{producer: producer, topic: topic, local: local}, nil
}

// Message is the JSON payload written to Kafka.
type Message struct {
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"`
	Account   string `json:"account"`
	Subject   string `json:"subject,omitempty"`
	Action    string `json:"action"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	account := strings.ToLower(event.Account)
	payload, err := json.Marshal(Message{
		Category:  string(audit.AuditEvent(event.Action).Category()),
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
		Account:   account,
		Subject:   event.Subject,
		Action:    event.Action,
		Decision:  event.Decision,
		Reason:    event.Reason,
		RequestID: event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(account),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(event.Action)},
		},
	}
	if err := s.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return s.local.Append(ctx, event)
}

// DecodeMessage parses a record value written by Sink.
func DecodeMessage(value []byte) (audit.Event, error) {
	var m Message
	if err := json.Unmarshal(value, &m); err != nil {
		return audit.Event{}, fmt.Errorf("decode audit message: %w", err)
	}
	if m.Account == "" || m.Action == "" {
		return audit.Event{}, errors.New("decode audit message: account and action are required")
	}
	ts, err := time.Parse(time.RFC3339Nano, m.Timestamp)
	if err != nil {
		return audit.Event{}, fmt.Errorf("decode audit message timestamp: %w", err)
	}
	return audit.Event{
		Category:  audit.AuditEvent(m.Action).Category(),
		Timestamp: ts,
		Account:   m.Account,
		Subject:   m.Subject,
		Action:    m.Action,
		Decision:  m.Decision,
		Reason:    m.Reason,
		RequestID: m.RequestID,
	}, nil
}

func (s *Sink) ListByAccount(ctx context.Context, account string) ([]audit.Event, error) {
	return s.local.ListByAccount(ctx, account)
}

// NewClient connects to brokers with topic as the default produce topic.
func NewClient(brokers []string, topic string) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchMaxBytes(1<<20),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

// NewConsumerClient joins group and consumes topic with manual offset commits.
func NewConsumerClient(brokers []string, topic, group string) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumerGroup(group),
		kgo.DisableAutoCommit(),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return client, nil
}

// EnsureTopic creates topic if it does not exist yet.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string, partitions int32) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, partitions, -1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, t := range resp {
		if t.Err != nil && !errors.Is(t.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", t.Topic, t.Err)
		}
	}
	return nil
}
