// Package kafka mirrors audit entries to a Kafka topic for downstream
// consumers. The mirror is best effort: publish failures are logged and
// skipped, they never affect the primary audit trail.
package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"sigil/internal/audit"
)

// Publisher streams audit entries from an inbox channel to Kafka.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewPublisher connects a Kafka producer for the given brokers and topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{client: client, topic: topic, logger: logger}, nil
}

// Run drains the inbox until it is closed or the context is cancelled.
func (p *Publisher) Run(ctx context.Context, inbox <-chan audit.Entry) {
	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-inbox:
			if !ok {
				return
			}
			p.publish(ctx, entry)
		}
	}
}

func (p *Publisher) publish(ctx context.Context, entry audit.Entry) {
	payload, err := json.Marshal(entry)
	if err != nil {
		p.logger.Error("marshal audit entry", "error", err, "entry_id", entry.ID)
		return
	}
	record := &kgo.Record{
		Key:   []byte(entry.Action),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		p.logger.Error("publish audit entry", "error", err, "entry_id", entry.ID, "topic", p.topic)
	}
}

// Close flushes buffered records and releases the client.
func (p *Publisher) Close() {
	p.client.Close()
}
