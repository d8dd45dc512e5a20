// Package events publishes plant evaluation outcomes to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ponytojas/plant-mood/internal/models"
)

// StatusEvent is the message body written for every completed evaluation.
type StatusEvent struct {
	PlantID       string                `json:"plant_id"`
	SensorID      string                `json:"sensor_id"`
	State         models.EmotionalState `json:"state"`
	DaysRemaining int                   `json:"days_remaining"`
	Temperature   float64               `json:"temperature"`
	Humidity      float64               `json:"humidity"`
	Light         float64               `json:"light"`
	ObservedAt    time.Time             `json:"observed_at"`
	EvaluatedAt   time.Time             `json:"evaluated_at"`
}

// NewStatusEvent flattens a status log into an event.
func NewStatusEvent(s *models.StatusLog) StatusEvent {
	return StatusEvent{
		PlantID:       s.PlantID,
		SensorID:      s.SensorID,
		State:         s.State,
		DaysRemaining: s.DaysRemaining,
		Temperature:   s.Reading.Temperature,
		Humidity:      s.Reading.Humidity,
		Light:         s.Reading.Light,
		ObservedAt:    s.Reading.Timestamp,
		EvaluatedAt:   s.CreatedAt,
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes status events keyed by plant id, so every plant's
// events stay ordered within one partition.
type KafkaPublisher struct {
	w  messageWriter
	lg *slog.Logger
}

// NewKafkaPublisher creates a publisher for topic on the given brokers.
func NewKafkaPublisher(brokers []string, topic string, lg *slog.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return &KafkaPublisher{w: w, lg: lg}
}

// RecordStatus implements evaluator.Recorder.
func (p *KafkaPublisher) RecordStatus(ctx context.Context, s *models.StatusLog) error {
	value, err := json.Marshal(NewStatusEvent(s))
	if err != nil {
		return fmt.Errorf("encode status event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(s.PlantID),
		Value: value,
		Time:  s.CreatedAt,
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish status event: %w", err)
	}
	p.lg.Debug("Status event published", "plant_id", s.PlantID, "state", s.State)
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
