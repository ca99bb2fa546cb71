// Package kafkatransport adapts Kafka to the cross-chain transport contract.
// One topic per destination chain; consumer groups give each chain its own
// at-least-once, unordered inbound stream.
package kafkatransport

import (
	"context"
	"fmt"

	"crossgov/internal/platform/kafka"
	"crossgov/pkg/domain"
)

// Transport publishes envelopes to the destination chain's topic. The
// receiver address keys the record so all messages for one receiver land on
// one partition; ordering beyond that is explicitly not promised.
type Transport struct {
	client      *kafka.Client
	topicPrefix string
}

func New(client *kafka.Client, topicPrefix string) *Transport {
	return &Transport{client: client, topicPrefix: topicPrefix}
}

// Topic names the inbound topic of a chain.
func Topic(prefix string, chain domain.ChainID) string {
	return fmt.Sprintf("%s.%s.messages", prefix, chain)
}

func (t *Transport) Send(ctx context.Context, destination domain.ChainID, receiver domain.Address, payload []byte) error {
	return t.client.ProduceSync(ctx, Topic(t.topicPrefix, destination), []byte(receiver), payload)
}
