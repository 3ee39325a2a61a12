package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sequoia/pkg/tracing"
	"github.com/segmentio/kafka-go"
)

// Producer handles Kafka event emission
type Producer struct {
	writer             *kafka.Writer
	logger             ectologger.Logger
	eventsTopic        string
	notificationsTopic string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers            []string
	EventsTopic        string
	NotificationsTopic string
	BatchSize          int
	BatchTimeout       time.Duration
	RequiredAcks       int
	Compression        string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	requiredAcks := kafka.RequiredAcks(cfg.RequiredAcks)

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           requiredAcks,
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer:             writer,
		logger:             logger,
		eventsTopic:        cfg.EventsTopic,
		notificationsTopic: cfg.NotificationsTopic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// DomainEvent represents a structural change to the kinship graph
type DomainEvent struct {
	EventType  string          `json:"event_type"` // person.created, relationship.created, family.updated, change.submitted, change.resolved
	SubjectID  string          `json:"subject_id"`
	ActorID    string          `json:"actor_id,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Notification represents a message to deliver to a contributor account
type Notification struct {
	EventType   string    `json:"event_type"` // notification.requested
	RecipientID string    `json:"recipient_id"`
	Kind        string    `json:"kind"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	ChangeID    string    `json:"change_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// PublishDomainEvent publishes a domain event to Kafka
func (p *Producer) PublishDomainEvent(ctx context.Context, event *DomainEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishDomainEvent")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.eventsTopic,
		Key:   []byte(event.SubjectID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish domain event")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type": event.EventType,
		"subject_id": event.SubjectID,
	}).Debug("Published domain event")

	return nil
}

// PublishNotification publishes a notification request to Kafka
func (p *Producer) PublishNotification(ctx context.Context, notification *Notification) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishNotification")
	defer span.End()

	if notification.Timestamp.IsZero() {
		notification.Timestamp = time.Now().UTC()
	}
	if notification.EventType == "" {
		notification.EventType = "notification.requested"
	}

	data, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.notificationsTopic,
		Key:   []byte(notification.RecipientID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(notification.EventType)},
			{Key: "kind", Value: []byte(notification.Kind)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish notification")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"kind":         notification.Kind,
		"recipient_id": notification.RecipientID,
	}).Debug("Published notification")

	return nil
}
