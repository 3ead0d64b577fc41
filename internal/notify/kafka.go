package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"contractbuilder/pkg/logger"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher produces events to a topic keyed by contract id, so every event
// of one contract lands on the same partition in order.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
}

// NewKafkaClient connects a producer to the given seed brokers.
func NewKafkaClient(brokers []string, opts ...kgo.Opt) (*kgo.Client, error) {
	opts = append([]kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}, opts...)
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return client, nil
}

func NewKafkaPublisher(client *kgo.Client, topic string) *KafkaPublisher {
	return &KafkaPublisher{client: client, topic: topic}
}

// Publish produces asynchronously; delivery failures are logged.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) {
	record, err := p.record(event)
	if err != nil {
		logger.Error(ctx, "failed to encode contract event", "event_type", event.Type, "error", err)
		return
	}

	// The request context is cancelled once the response is written.
	produceCtx := context.WithoutCancel(ctx)
	p.client.Produce(produceCtx, record, func(r *kgo.Record, err error) {
		if err != nil {
			logger.Error(produceCtx, "failed to produce contract event",
				"topic", r.Topic,
				"event_id", event.ID,
				"event_type", event.Type,
				"error", err,
			)
		}
	})
}

func (p *KafkaPublisher) record(event Event) (*kgo.Record, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.ContractID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}, nil
}

// Close flushes buffered records and closes the client.
func (p *KafkaPublisher) Close(ctx context.Context) error {
	defer p.client.Close()
	if err := p.client.Flush(ctx); err != nil {
		return fmt.Errorf("failed to flush kafka producer: %w", err)
	}
	return nil
}
