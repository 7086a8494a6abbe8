// Package emitter publishes built feed events downstream.
package emitter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/emperorhan/celo-feed-engine/internal/domain/model"
	"github.com/emperorhan/celo-feed-engine/internal/metrics"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the slice of kafka.Writer the emitter needs; tests
// substitute an in-memory implementation.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEmitter publishes events to a Kafka topic, keyed by transaction
// hash so all events of one transaction land on one partition in order.
type KafkaEmitter struct {
	writer messageWriter
	logger *slog.Logger
}

func NewKafkaEmitter(brokers []string, topic string, logger *slog.Logger) *KafkaEmitter {
	return &KafkaEmitter{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 100 * time.Millisecond,
		},
		logger: logger.With("component", "kafka_emitter"),
	}
}

// Emit publishes a batch. A marshal failure drops that event and keeps
// the rest; a broker write failure fails the whole batch so the caller
// can retry it.
func (e *KafkaEmitter) Emit(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			metrics.EventsEmitted.WithLabelValues("marshal_error").Inc()
			e.logger.Warn("event marshal failed, event dropped",
				"hash", ev.TransactionHash(), "type", ev.EventType(), "error", err)
			continue
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(ev.TransactionHash()),
			Value: payload,
			Headers: []kafka.Header{
				{Key: "event-type", Value: []byte(ev.EventType())},
			},
		})
	}
	if len(msgs) == 0 {
		return nil
	}

	if err := e.writer.WriteMessages(ctx, msgs...); err != nil {
		metrics.EventsEmitted.WithLabelValues("error").Add(float64(len(msgs)))
		return fmt.Errorf("write events: %w", err)
	}
	metrics.EventsEmitted.WithLabelValues("ok").Add(float64(len(msgs)))
	return nil
}

func (e *KafkaEmitter) Close() error {
	return e.writer.Close()
}
