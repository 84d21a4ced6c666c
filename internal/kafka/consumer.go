package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"events-portal/internal/logger"
	"events-portal/internal/models"
)

type Consumer struct {
	reader *kafka.Reader
	logger *logger.Logger
}

func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: reader, logger: log}
}

// Start hands every decoded change to handler until ctx is cancelled.
// Undecodable messages are logged and skipped.
func (c *Consumer) Start(ctx context.Context, handler func(models.EventChange)) error {
	c.logger.Info("KAFKA", fmt.Sprintf("Consuming event changes from %s", c.reader.Config().Topic))

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("failed to read event change: %w", err)
		}

		change, err := DecodeChange(msg)
		if err != nil {
			c.logger.Warn("KAFKA", err.Error())
			continue
		}
		handler(change)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
