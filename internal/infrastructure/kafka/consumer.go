package kafka

import (
	"context"
	"errors"
	"io"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Message is the part of a Kafka record handlers care about
type Message struct {
	Key       []byte
	Value     []byte
	EventType string
	Partition int
	Offset    int64
}

type MessageHandler func(ctx context.Context, msg Message) error

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer reads cart events, used by operational tooling to follow the event stream
type Consumer struct {
	reader messageReader
	logger *zap.Logger
}

func NewConsumer(brokers []string, topic, groupID string, logger *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, logger: logger.Named("kafka-consumer")}
}

// Consume blocks until ctx is cancelled or the reader is closed. Handler errors are
// logged and do not stop consumption.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			c.logger.Warn("error reading message", zap.Error(err))
			continue
		}

		m := Message{
			Key:       msg.Key,
			Value:     msg.Value,
			EventType: headerValue(msg.Headers, EventTypeHeader),
			Partition: msg.Partition,
			Offset:    msg.Offset,
		}
		if err := handler(ctx, m); err != nil {
			c.logger.Error("error handling message",
				zap.String("event_type", m.EventType),
				zap.Int64("offset", m.Offset),
				zap.Error(err))
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func headerValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
