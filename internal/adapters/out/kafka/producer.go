// Package kafka mirrors delivery events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"fulfillment/internal/adapters/out/eventbus"
	"fulfillment/internal/core/domain/model/delivery"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ErrorCounter is incremented for every event that could not be written.
type ErrorCounter interface {
	Inc()
}

type nopCounter struct{}

func (nopCounter) Inc() {}

// Producer publishes every delivery event keyed by delivery id, so the
// events of one delivery land in one partition in publish order.
type Producer struct {
	w      messageWriter
	topic  string
	errors ErrorCounter
	logger *slog.Logger
}

// NewProducer builds an asynchronous writer: Publish returns as soon as the
// message is buffered and write failures are only logged.
func NewProducer(brokers []string, topic string, errCounter ErrorCounter, logger *slog.Logger) *Producer {
	p := &Producer{
		topic:  topic,
		errors: errCounter,
		logger: logger.With("component", "KafkaProducer"),
	}
	if p.errors == nil {
		p.errors = nopCounter{}
	}
	p.w = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion:   p.completion,
	}
	return p
}

func newProducerWithWriter(w messageWriter, topic string, logger *slog.Logger) *Producer {
	return &Producer{
		w:      w,
		topic:  topic,
		errors: nopCounter{},
		logger: logger,
	}
}

// Publish satisfies ports.DeliveryEventPublisher.
func (p *Producer) Publish(ctx context.Context, event delivery.Event) {
	if err := p.write(ctx, event); err != nil {
		p.errors.Inc()
		p.logger.ErrorContext(ctx, "failed to mirror delivery event",
			"deliveryId", event.DeliveryID.String(),
			"eventType", string(event.Type),
			"error", err)
	}
}

func (p *Producer) write(ctx context.Context, event delivery.Event) error {
	value, err := json.Marshal(eventbus.NewEventMessage(event))
	if err != nil {
		return errors.Wrap(err, "encode delivery event")
	}

	if err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.DeliveryID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
		Time: event.OccurredAt,
	}); err != nil {
		return errors.Wrap(err, "kafka publish")
	}
	return nil
}

func (p *Producer) completion(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	for range messages {
		p.errors.Inc()
	}
	p.logger.Error("kafka batch write failed",
		"topic", p.topic,
		"messages", len(messages),
		"error", err)
}

func (p *Producer) Close() error {
	if err := p.w.Close(); err != nil {
		return errors.Wrap(err, "close kafka writer")
	}
	return nil
}
