package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"podium/internal/platform/kafka/producer"
	"podium/internal/registry/models"
)

// DefaultTopic receives every registry notification.
const DefaultTopic = "podium.registry.events"

// Producer is the subset of the Kafka producer the publisher needs.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// KafkaPublisher writes notifications as JSON records keyed by athlete id, so
// all events of one athlete land on one partition in order.
type KafkaPublisher struct {
	producer Producer
	topic    string
}

func NewKafka(p Producer, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaPublisher{producer: p, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event *models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %d: %w", event.Seq, err)
	}
	return p.producer.Produce(ctx, &producer.Message{
		Topic: p.topic,
		Key:   []byte(event.AthleteID.String()),
		Value: payload,
		Headers: map[string]string{
			"event_type": string(event.Type),
			"seq":        strconv.FormatUint(event.Seq, 10),
		},
	})
}
