// Package kafka wraps the franz-go client for the cross-chain message
// transport. The delivery contract is at-least-once with no ordering across
// partitions and no built-in request/response; the engine is built around
// exactly that.
package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"crossgov/internal/platform/config"
)

// Client is a producing Kafka client shared by the outbound transport.
type Client struct {
	client *kgo.Client
}

// New connects a producer client. Returns nil if no brokers are configured.
func New(cfg config.KafkaConfig) (*Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ProducerLinger(0),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	ctx := context.Background()
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka ping failed: %w", err)
	}

	return &Client{client: client}, nil
}

// ProduceSync publishes one record and waits for the broker ack. The engine
// never retries sends itself; redelivery policy belongs to the transport and
// its consumers.
func (c *Client) ProduceSync(ctx context.Context, topic string, key, value []byte) error {
	record := &kgo.Record{Topic: topic, Key: key, Value: value}
	if err := c.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	return nil
}

// EnsureTopics creates the given topics if they do not exist yet.
func (c *Client) EnsureTopics(ctx context.Context, partitions int32, topics ...string) error {
	adm := kadm.NewClient(c.client)
	resp, err := adm.CreateTopics(ctx, partitions, 1, nil, topics...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, res := range resp.Sorted() {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", res.Topic, res.Err)
		}
	}
	return nil
}

// Health verifies broker connectivity.
func (c *Client) Health(ctx context.Context) error {
	return c.client.Ping(ctx)
}

// Close flushes and closes the client.
func (c *Client) Close() {
	c.client.Close()
}
