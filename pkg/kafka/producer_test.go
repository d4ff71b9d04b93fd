package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderPayload struct {
	OrderNumber string `json:"order_number"`
	TotalPence  int64  `json:"total_pence"`
}

func TestNewEvent(t *testing.T) {
	data := orderPayload{OrderNumber: "1000042", TotalPence: 4999}
	event, err := NewEvent("checkout.completed", "1000042", "order", "checkout", data)
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "checkout.completed", event.EventType)
	assert.Equal(t, "1000042", event.AggregateID)
	assert.Equal(t, "order", event.AggregateType)
	assert.Equal(t, "checkout", event.Source)
	assert.Equal(t, 1, event.Version)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, 2*time.Second)
	assert.NotNil(t, event.Metadata)

	var got orderPayload
	require.NoError(t, json.Unmarshal(event.Data, &got))
	assert.Equal(t, data, got)
}

func TestNewEventUnserializableData(t *testing.T) {
	_, err := NewEvent("checkout.completed", "1000042", "order", "checkout", make(chan int))
	require.Error(t, err)
}

func TestEventRoundTrip(t *testing.T) {
	original, err := NewEvent("payment.authorized", "pay-456", "payment", "checkout",
		map[string]string{"label": "****1111"})
	require.NoError(t, err)
	original.WithCorrelationID("corr-abc").WithMetadata("actor", "webhook")

	raw, err := original.Marshal()
	require.NoError(t, err)

	restored, err := UnmarshalEvent(raw)
	require.NoError(t, err)

	assert.Equal(t, original.EventID, restored.EventID)
	assert.Equal(t, original.EventType, restored.EventType)
	assert.Equal(t, original.AggregateID, restored.AggregateID)
	assert.Equal(t, original.AggregateType, restored.AggregateType)
	assert.Equal(t, original.Version, restored.Version)
	assert.Equal(t, original.Source, restored.Source)
	assert.Equal(t, original.CorrelationID, restored.CorrelationID)
	assert.Equal(t, original.Metadata, restored.Metadata)
	assert.JSONEq(t, string(original.Data), string(restored.Data))
	assert.WithinDuration(t, original.Timestamp, restored.Timestamp, time.Millisecond)
}

func TestEventChaining(t *testing.T) {
	event, err := NewEvent("payment.declined", "pay-1", "payment", "checkout", nil)
	require.NoError(t, err)

	same := event.WithCorrelationID("corr-xyz").WithMetadata("reason", "REFUSED")
	assert.Same(t, event, same)
	assert.Equal(t, "corr-xyz", event.CorrelationID)
	assert.Equal(t, "REFUSED", event.Metadata["reason"])
}

func TestWithMetadataInitialisesMap(t *testing.T) {
	event := &Event{EventID: "e1", EventType: "payment.refunded"}
	event.WithMetadata("refund_id", "refund_77")
	assert.Equal(t, "refund_77", event.Metadata["refund_id"])
}

func TestUnmarshalData(t *testing.T) {
	payload := orderPayload{OrderNumber: "1000043", TotalPence: 7999}
	event, err := NewEvent("checkout.completed", "1000043", "order", "checkout", payload)
	require.NoError(t, err)

	var got orderPayload
	require.NoError(t, event.UnmarshalData(&got))
	assert.Equal(t, payload, got)
}

func TestUnmarshalDataInvalid(t *testing.T) {
	event := &Event{Data: json.RawMessage(`not valid json`)}
	var got map[string]string
	require.Error(t, event.UnmarshalData(&got))
}

func TestUnmarshalEventInvalid(t *testing.T) {
	for _, raw := range [][]byte{[]byte(`{broken json`), {}} {
		_, err := UnmarshalEvent(raw)
		require.Error(t, err)
	}
}

func TestDefaultProducerConfig(t *testing.T) {
	brokers := []string{"broker1:9092", "broker2:9092"}
	cfg := DefaultProducerConfig(brokers)

	assert.Equal(t, brokers, cfg.Brokers)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 10*time.Millisecond, cfg.BatchTimeout)
	assert.False(t, cfg.Async)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "store", TopicPrefix)

	cases := []struct {
		domain, action, want string
	}{
		{"checkout", "completed", "store.checkout.completed"},
		{"payment", "authorized", "store.payment.authorized"},
		{"payment", "declined", "store.payment.declined"},
		{"payment", "refunded", "store.payment.refunded"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Topic(tc.domain, tc.action))
	}
}

func TestNewProducerClose(t *testing.T) {
	// The writer dials lazily, so construction and Close need no broker.
	p := NewProducer(DefaultProducerConfig([]string{"localhost:19092"}), nil)
	require.NotNil(t, p)
	assert.Equal(t, []string{"localhost:19092"}, p.brokers)
	assert.NoError(t, p.Close())
}

func TestPingBrokersNoneConfigured(t *testing.T) {
	for _, brokers := range [][]string{nil, {}} {
		err := PingBrokers(t.Context(), brokers)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no brokers configured")
	}
}
