package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/fatali-fataliyev/bank_ledger/logging"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeEvent(t *testing.T) {
	occurredAt := time.Date(2024, 11, 12, 9, 30, 0, 0, time.UTC)
	event := TransactionEvent{
		Type:        TransactionCreated,
		Username:    "alice",
		ReferenceNo: "0b8f5c1e-4a43-4d4b-9a52-2d7f1f0d6c11",
		OccurredAt:  occurredAt,
	}

	msg, err := encodeEvent(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("alice"), msg.Key)
	assert.Equal(t, occurredAt, msg.Time)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "created", decoded["type"])
	assert.Equal(t, "alice", decoded["username"])
	assert.Equal(t, event.ReferenceNo, decoded["reference_no"])
}

func TestNewKafkaPublisher(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "")
	t.Cleanup(func() { _ = p.Close() })

	assert.Equal(t, DefaultTopic, p.writer.Topic)
	assert.Equal(t, "localhost:9092", p.writer.Addr.String())
	assert.IsType(t, &kafka.Hash{}, p.writer.Balancer)
	assert.True(t, p.writer.Async)
	assert.NotNil(t, p.writer.Completion)
}

func TestLogDelivery(t *testing.T) {
	var buf bytes.Buffer
	logging.Logger.SetOutput(&buf)
	t.Cleanup(func() { logging.Logger.SetOutput(os.Stderr) })

	msg := kafka.Message{Key: []byte("alice")}
	logDelivery([]kafka.Message{msg}, nil)
	assert.Empty(t, buf.String())

	logDelivery([]kafka.Message{msg}, errors.New("broker down"))
	assert.Contains(t, buf.String(), "alice")
	assert.Contains(t, buf.String(), "broker down")
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), TransactionEvent{Type: TransactionDeleted}))
	assert.NoError(t, p.Close())
}
