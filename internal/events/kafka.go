package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

// Envelope is the CloudEvents-style wrapper written to Kafka.
type Envelope struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Source          string          `json:"source"`
	Type            string          `json:"type"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	Data            json.RawMessage `json:"data"`
}

// NewEnvelope wraps payload into an Envelope with a fresh id.
func NewEnvelope(source, eventType string, payload interface{}) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal event data: %w", err)
	}
	return Envelope{
		SpecVersion:     "1.0",
		ID:              uuid.NewString(),
		Source:          source,
		Type:            eventType,
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
	}, nil
}

// ParseData decodes the envelope payload into v.
func (e Envelope) ParseData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaPublisher forwards booking events to a Kafka topic.
type KafkaPublisher struct {
	writer  messageWriter
	source  string
	timeout time.Duration
	logger  *zerolog.Logger
}

func NewKafkaPublisher(brokers []string, topic, source string, logger *zerolog.Logger) *KafkaPublisher {
	writer := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(writer, source, logger)
}

func newKafkaPublisher(w messageWriter, source string, logger *zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, source: source, timeout: 5 * time.Second, logger: logger}
}

// PublishJSON writes one message keyed by booking id when the payload carries one.
func (p *KafkaPublisher) PublishJSON(eventType string, payload interface{}) error {
	env, err := NewEnvelope(p.source, eventType, payload)
	if err != nil {
		return err
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	msg := kafkago.Message{
		Value: value,
		Headers: []kafkago.Header{
			{Key: "ce_type", Value: []byte(eventType)},
			{Key: "ce_id", Value: []byte(env.ID)},
		},
	}
	if bp, ok := payload.(BookingEventPayload); ok {
		msg.Key = []byte(strconv.FormatInt(bp.BookingID, 10))
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	if p.logger != nil {
		p.logger.Debug().Str("event_type", eventType).Str("event_id", env.ID).Msg("event published to kafka")
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// ParseEnvelope decodes a raw Kafka message value.
func ParseEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("parse envelope: %w", err)
	}
	return env, nil
}
