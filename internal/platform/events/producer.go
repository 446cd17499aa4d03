// Package events publishes pipeline run summaries to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"stock_etl/internal/feature/prices/domain/entity"
	"stock_etl/internal/feature/prices/usecase"
)

// Event types written to the topic.
const (
	EventRunCompleted = "ETL_RUN_COMPLETED"
	EventRunFailed    = "ETL_RUN_FAILED"
)

const writeTimeout = 10 * time.Second

// RunEvent is the message value published for every run.
type RunEvent struct {
	EventType string            `json:"event_type"`
	Summary   entity.RunSummary `json:"summary"`
	Timestamp time.Time         `json:"timestamp"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer handles publishing run events to Kafka.
type Producer struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

var _ usecase.RunPublisher = (*Producer)(nil)

// NewProducer creates a new Kafka producer.
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: writeTimeout,
		RequiredAcks: kafka.RequireOne,
	}
	return newProducer(writer, topic)
}

func newProducer(w messageWriter, topic string) *Producer {
	return &Producer{writer: w, topic: topic, now: time.Now}
}

// Publish writes s keyed by its run id.
func (p *Producer) Publish(ctx context.Context, s entity.RunSummary) error {
	event := RunEvent{
		EventType: EventRunCompleted,
		Summary:   s,
		Timestamp: p.now().UTC(),
	}
	if s.Error != "" {
		event.EventType = EventRunFailed
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(s.RunID.String()),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka topic %s: %w", p.topic, err)
	}
	return nil
}

// Close closes the Kafka producer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
