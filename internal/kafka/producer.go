package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"events-portal/internal/logger"
	"events-portal/internal/models"
)

const changeKindHeader = "change-kind"

// Producer publishes event mutations so other services can follow them.
type Producer struct {
	Writer *kafka.Writer
	Logger *logger.Logger
}

func NewProducer(brokers []string, topic string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return &Producer{Writer: writer, Logger: log}
}

// EncodeChange builds the message for a change, keyed by event id so every
// change of one event lands on the same partition.
func EncodeChange(change models.EventChange) (kafka.Message, error) {
	value, err := json.Marshal(change)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event change: %w", err)
	}
	return kafka.Message{
		Key:   []byte(change.EventID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: changeKindHeader, Value: []byte(change.Kind)},
		},
		Time: change.OccurredAt,
	}, nil
}

func DecodeChange(msg kafka.Message) (models.EventChange, error) {
	var change models.EventChange
	if err := json.Unmarshal(msg.Value, &change); err != nil {
		return models.EventChange{}, fmt.Errorf("failed to unmarshal event change: %w", err)
	}
	return change, nil
}

func (p *Producer) PublishEventChange(ctx context.Context, change models.EventChange) error {
	msg, err := EncodeChange(change)
	if err != nil {
		return err
	}
	if err := p.Writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s change for event %s: %w", change.Kind, change.EventID, err)
	}
	p.Logger.Info("KAFKA", fmt.Sprintf("[%s] %s - event %s", change.Kind, p.Writer.Topic, change.EventID))
	return nil
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
