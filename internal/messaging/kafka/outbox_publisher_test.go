package kafka

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// expectTopic проверяет, что сообщение ушло в ожидаемый topic.
func expectTopic(topic string) mocks.MessageChecker {
	return func(msg *sarama.ProducerMessage) error {
		if msg.Topic != topic {
			return fmt.Errorf("expected topic %s, got %s", topic, msg.Topic)
		}
		return nil
	}
}

func TestOutboxPublisher_RoutesProductEventsToStockTopic(t *testing.T) {
	t.Parallel()

	producer, mockProducer := newMockedProducer(t)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(expectTopic(TopicStockMovements))

	publisher := NewOutboxPublisher(producer)

	err := publisher.Publish(domain.OutboxMessage{
		ID:            "outbox-1",
		AggregateType: "product",
		AggregateID:   "product-1",
		EventType:     string(EventTypeStockMovement),
		Payload:       []byte(`{"delta":-2}`),
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_RoutesOtherAggregatesToOrderTopic(t *testing.T) {
	t.Parallel()

	for _, aggregateType := range []string{"order", "cart"} {
		producer, mockProducer := newMockedProducer(t)
		mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(expectTopic(TopicOrderEvents))

		publisher := NewOutboxPublisher(producer)

		err := publisher.Publish(domain.OutboxMessage{
			ID:            "outbox-" + aggregateType,
			AggregateType: aggregateType,
			AggregateID:   aggregateType + "-1",
			EventType:     string(EventTypeOrderPlaced),
			Payload:       []byte(`{"status":"processing"}`),
		})
		if err != nil {
			t.Fatalf("publish failed for %s: %v", aggregateType, err)
		}

		if err := mockProducer.Close(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestOutboxPublisher_WrapsPayloadInEnvelope(t *testing.T) {
	t.Parallel()

	producer, mockProducer := newMockedProducer(t)
	mockProducer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(value []byte) error {
		var envelope struct {
			ID            string          `json:"id"`
			AggregateType string          `json:"aggregate_type"`
			AggregateID   string          `json:"aggregate_id"`
			EventType     string          `json:"event_type"`
			Payload       json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(value, &envelope); err != nil {
			return fmt.Errorf("unmarshal envelope: %w", err)
		}
		if envelope.ID != "outbox-3" || envelope.AggregateID != "order-3" {
			return fmt.Errorf("unexpected envelope identifiers: %+v", envelope)
		}
		if envelope.EventType != string(EventTypeOrderCanceled) {
			return fmt.Errorf("unexpected event type %s", envelope.EventType)
		}
		if string(envelope.Payload) != `{"status":"canceled"}` {
			return fmt.Errorf("payload must pass through unchanged, got %s", envelope.Payload)
		}
		return nil
	})

	publisher := NewOutboxPublisher(producer)

	err := publisher.Publish(domain.OutboxMessage{
		ID:            "outbox-3",
		AggregateType: "order",
		AggregateID:   "order-3",
		EventType:     string(EventTypeOrderCanceled),
		Payload:       []byte(`{"status":"canceled"}`),
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_PublishProducerError(t *testing.T) {
	t.Parallel()

	producer, mockProducer := newMockedProducer(t)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := NewOutboxPublisher(producer)

	err := publisher.Publish(domain.OutboxMessage{
		ID:            "outbox-4",
		AggregateType: "order",
		AggregateID:   "order-4",
		EventType:     string(EventTypeOrderRefunded),
		Payload:       []byte(`{"status":"refunded"}`),
	})
	if err == nil {
		t.Fatal("expected publish error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOutboxPublisher_PublishNilProducer(t *testing.T) {
	t.Parallel()

	publisher := NewOutboxPublisher(nil)
	if err := publisher.Publish(domain.OutboxMessage{ID: "outbox-5"}); err == nil {
		t.Fatal("expected error for nil producer")
	}
}
