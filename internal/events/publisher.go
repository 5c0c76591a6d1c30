package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fatali-fataliyev/bank_ledger/logging"
	"github.com/segmentio/kafka-go"
)

const DefaultTopic = "ledger.transaction.changed"

type EventType string

const (
	TransactionCreated EventType = "created"
	TransactionUpdated EventType = "updated"
	TransactionDeleted EventType = "deleted"
)

type TransactionEvent struct {
	Type        EventType `json:"type"`
	Username    string    `json:"username"`
	ReferenceNo string    `json:"reference_no"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event TransactionEvent) error
	Close() error
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event TransactionEvent) error { return nil }
func (NoopPublisher) Close() error                                               { return nil }

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
			Async:                  true,
			Completion:             logDelivery,
		},
	}
}

// logDelivery reports async write failures, which WriteMessages never returns.
func logDelivery(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, msg := range messages {
		logging.Logger.Warnf("failed to deliver transaction event for %s to kafka | Error: %v", msg.Key, err)
	}
}

// Publish queues the event and returns without waiting for the broker.
func (p *KafkaPublisher) Publish(ctx context.Context, event TransactionEvent) error {
	msg, err := encodeEvent(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write event to kafka: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// encodeEvent keys messages by username so one user's events stay ordered
// within a partition.
func encodeEvent(event TransactionEvent) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(event.Username),
		Value: data,
		Time:  event.OccurredAt,
	}, nil
}
