package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Publisher publishes notifications to Redpanda/Kafka. It satisfies
// Notifier so deployments can fan notifications out through a broker
// instead of the in-process dispatcher.
type Publisher struct {
	client *kgo.Client
	topic  string
}

// PublisherConfig holds configuration for the publisher
type PublisherConfig struct {
	Brokers []string
	Topic   string
}

// NewPublisher creates a new notification publisher
func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),

		// Wait for all in-sync replicas to acknowledge. franz-go
		// enables idempotent production by default with this setting,
		// so retries cannot duplicate messages.
		kgo.RequiredAcks(kgo.AllISRAcks()),

		kgo.ProducerBatchCompression(kgo.GzipCompression()),

		// Linear backoff capped at 60s.
		kgo.RetryBackoffFn(func(tries int) time.Duration {
			backoff := time.Duration(tries) * 100 * time.Millisecond
			if backoff > 60*time.Second {
				backoff = 60 * time.Second
			}
			return backoff
		}),
		kgo.RequestRetries(10),

		kgo.ProducerLinger(10*time.Millisecond),
		kgo.ProducerBatchMaxBytes(1<<20),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	return &Publisher{
		client: client,
		topic:  cfg.Topic,
	}, nil
}

// Notify publishes a pre-built notification message.
func (p *Publisher) Notify(ctx context.Context, msg *NotificationMessage) error {
	msgJSON, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification message: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(partitionKey(msg)),
		Value: msgJSON,
	}

	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	return nil
}

// Close closes the publisher
func (p *Publisher) Close() {
	p.client.Close()
}

// partitionKey ensures related messages land on the same partition:
// all notifications about one document stay ordered, then all
// notifications to one user.
func partitionKey(msg *NotificationMessage) string {
	if msg.DocumentID != "" {
		return fmt.Sprintf("doc:%s", msg.DocumentID)
	}
	if len(msg.Recipients) > 0 && msg.Recipients[0].UserID != "" {
		return fmt.Sprintf("user:%s", msg.Recipients[0].UserID)
	}
	return msg.ID
}
