package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/nanobananary/studio-api/internal/models"
	"github.com/segmentio/kafka-go"
)

// NotificationHandler applies a provider notification to its order.
type NotificationHandler interface {
	HandleNotification(ctx context.Context, n models.PaymentNotification) (*models.ChargeOrder, error)
}

type Consumer struct {
	reader  *kafka.Reader
	handler NotificationHandler
}

func NewConsumer(brokers []string, topic, groupID string, handler NotificationHandler) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 10e3,
			MaxBytes: 10e6,
		}),
		handler: handler,
	}
}

func (c *Consumer) Consume(ctx context.Context) {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				slog.Info("Kafka consumer stopped", "topic", c.reader.Config().Topic)
				return
			}
			slog.Error("failed to read Kafka message", "topic", c.reader.Config().Topic, "error", err)
			continue
		}

		slog.Info("Kafka message received", "topic", msg.Topic, "key", string(msg.Key))
		c.handle(ctx, msg.Value)
	}
}

func (c *Consumer) handle(ctx context.Context, value []byte) {
	var event models.PaymentNotification
	if err := json.Unmarshal(value, &event); err != nil {
		slog.Error("failed to unmarshal payment notification", "error", err)
		return
	}
	if event.OrderID == "" {
		slog.Error("invalid payment notification: missing orderId")
		return
	}

	order, err := c.handler.HandleNotification(ctx, event)
	if err != nil {
		slog.Error("failed to apply payment notification", "order_id", event.OrderID, "status", event.Status, "error", err)
		return
	}
	slog.Info("payment notification processed", "order_id", order.ID, "status", order.Status)
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
