//go:build integration

package kafkatransport

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/redpanda"

	"crossgov/internal/crosschain"
	"crossgov/internal/platform/config"
	"crossgov/internal/platform/kafka"
	"crossgov/internal/platform/kafka/consumer"
	"crossgov/pkg/domain"
)

type TransportSuite struct {
	suite.Suite
	container *redpanda.Container
	cfg       config.KafkaConfig
	client    *kafka.Client
}

func TestTransportSuite(t *testing.T) {
	suite.Run(t, new(TransportSuite))
}

func (s *TransportSuite) SetupSuite() {
	ctx := context.Background()

	container, err := redpanda.Run(ctx, "docker.redpanda.com/redpandadata/redpanda:v24.1.7")
	s.Require().NoError(err)
	s.container = container

	broker, err := container.KafkaSeedBroker(ctx)
	s.Require().NoError(err)

	s.cfg = config.KafkaConfig{
		Brokers:     []string{broker},
		TopicPrefix: "crossgov",
		Group:       "transport-suite",
	}
	client, err := kafka.New(s.cfg)
	s.Require().NoError(err)
	s.client = client
}

func (s *TransportSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

type captureHandler struct {
	values chan []byte
}

func (h *captureHandler) Handle(_ context.Context, msg *consumer.Message) error {
	h.values <- msg.Value
	return nil
}

func (s *TransportSuite) TestEnvelopeRoundTripsThroughBroker() {
	ctx := context.Background()
	destination := domain.ChainID("chain-b")
	topic := Topic(s.cfg.TopicPrefix, destination)
	s.Require().NoError(s.client.EnsureTopics(ctx, 1, topic))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	capture := &captureHandler{values: make(chan []byte, 1)}
	cons, err := consumer.New(s.cfg, []string{topic}, capture, logger)
	s.Require().NoError(err)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = cons.Run(runCtx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	env, err := crosschain.NewEnvelope(crosschain.KindVote, "chain-a", crosschain.VoteMessage{
		ProposalID: strings.Repeat("01", 32),
		Voter:      "0x" + strings.Repeat("02", 20),
		Weight:     50,
	})
	s.Require().NoError(err)
	raw, err := env.Encode()
	s.Require().NoError(err)

	transport := New(s.client, s.cfg.TopicPrefix)
	receiver := domain.Address("0x" + strings.Repeat("03", 20))
	s.Require().NoError(transport.Send(ctx, destination, receiver, raw))

	select {
	case got := <-capture.values:
		decoded, err := crosschain.Decode(got)
		s.Require().NoError(err)
		s.Equal(env.MessageID, decoded.MessageID)
		s.Equal(crosschain.KindVote, decoded.Kind)
		s.Equal(domain.ChainID("chain-a"), decoded.SourceChain)
	case <-time.After(30 * time.Second):
		s.Fail("message did not arrive")
	}
}
