package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
)

// KafkaPublisher writes JSON events through one long-lived asynchronous
// writer; the topic is chosen per message. PublishEvent only enqueues, delivery
// failures are reported by the completion callback
type KafkaPublisher struct {
	w *kafkaGo.Writer
}

// NewKafkaPublisher returns a publisher for brokers, or Nop when none are configured.
func NewKafkaPublisher(brokers []string) Publisher {
	if len(brokers) == 0 {
		return Nop{}
	}
	return &KafkaPublisher{w: newWriter(brokers)}
}

func newWriter(brokers []string) *kafkaGo.Writer {
	return &kafkaGo.Writer{
		Addr:                   kafkaGo.TCP(brokers...),
		Balancer:               &kafkaGo.LeastBytes{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafkaGo.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
		Async:                  true,
		Completion:             logDeliveryFailure,
	}
}

func logDeliveryFailure(messages []kafkaGo.Message, err error) {
	if err == nil {
		return
	}
	for _, m := range messages {
		slog.Error("kafka delivery failed", "topic", m.Topic, "key", string(m.Key), "err", err)
	}
}

func (k *KafkaPublisher) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return k.w.WriteMessages(ctx, kafkaGo.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	})
}

func (k *KafkaPublisher) Close() error {
	return k.w.Close()
}
