//go:build integration

package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"trustdash/pkg/platform/audit"
	"trustdash/pkg/platform/audit/consumer"
	"trustdash/pkg/platform/audit/store/kafka"
	"trustdash/pkg/platform/audit/store/memory"
	"trustdash/pkg/testutil/containers"
)

type SinkIntegrationSuite struct {
	suite.Suite
	brokers []string
}

func TestSinkIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(SinkIntegrationSuite))
}

func (s *SinkIntegrationSuite) SetupSuite() {
	s.brokers = containers.GetManager().GetRedpanda(s.T()).Brokers
}

func (s *SinkIntegrationSuite) TestProjectsProducedEvents() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	const topic = "trustdash.audit.projection"

	producer, err := kafka.NewClient(s.brokers, topic)
	s.Require().NoError(err)
	defer producer.Close()
	s.Require().NoError(kafka.EnsureTopic(ctx, producer, topic, 1))
	// second call must tolerate the existing topic
	s.Require().NoError(kafka.EnsureTopic(ctx, producer, topic, 1))

	local := memory.NewInMemoryStore()
	sink, err := kafka.NewSink(producer, topic, local)
	s.Require().NoError(err)

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(sink.Append(ctx, audit.Event{
		Timestamp: ts, Account: "0xMe", Subject: "0xa", Action: string(audit.EventTrustGranted),
	}))
	s.Require().NoError(sink.Append(ctx, audit.Event{
		Timestamp: ts.Add(time.Second), Account: "0xMe", Subject: "0xb", Action: string(audit.EventTrustRevoked),
	}))

	consumerClient, err := kafka.NewConsumerClient(s.brokers, topic, "trustdash-projector-test")
	s.Require().NoError(err)
	defer consumerClient.Close()

	projected := memory.NewInMemoryStore()
	projector, err := consumer.NewProjector(consumerClient, projected, nil)
	s.Require().NoError(err)

	var total int
	for total < 2 && ctx.Err() == nil {
		n, err := projector.PollOnce(ctx)
		s.Require().NoError(err)
		total += n
	}
	s.Require().Equal(2, total)

	events, err := projected.ListByAccount(ctx, "0xme")
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	actions := []string{events[0].Action, events[1].Action}
	s.ElementsMatch([]string{string(audit.EventTrustGranted), string(audit.EventTrustRevoked)}, actions)
}
