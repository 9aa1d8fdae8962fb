package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// KafkaCollector 异步写 Kafka，按 platform 分区。
type KafkaCollector struct {
	writer *kafka.Writer
}

func NewKafkaCollector(brokers []string, topic string) *KafkaCollector {
	return &KafkaCollector{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
			Async:    true, // 异步发送
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					slog.Error("kafka write failed", "err", err, "count", len(messages))
				}
			},
		},
	}
}

func (k *KafkaCollector) Collect(event DispatchEvent) {
	msg, err := message(event)
	if err != nil {
		slog.Error("encode dispatch event failed", "err", err, "event_id", event.ID)
		return
	}
	if err := k.writer.WriteMessages(context.Background(), msg); err != nil {
		slog.Error("kafka write failed", "err", err)
	}
}

func (k *KafkaCollector) Close() {
	if err := k.writer.Close(); err != nil {
		slog.Error("kafka writer close failed", "err", err)
	}
}

func message(event DispatchEvent) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(event.Platform),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(event.ID)},
		},
	}, nil
}
