package evaluator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ponytojas/plant-mood/internal/metrics"
	"github.com/ponytojas/plant-mood/internal/models"
	"github.com/ponytojas/plant-mood/internal/notify"
)

// Reasons reported when a plant could not be evaluated.
const (
	ReasonNoSensor  = "no_sensor"
	ReasonNoReading = "no_reading"
)

// PlantSource loads plant configuration.
type PlantSource interface {
	GetPlant(ctx context.Context, id string) (*models.Plant, error)
}

// ReadingSource returns the newest reading of a sensor, or nil if there is none.
type ReadingSource interface {
	LatestReading(ctx context.Context, sensorID string) (*models.SensorReading, error)
}

// Recorder persists or forwards evaluation outcomes.
type Recorder interface {
	RecordStatus(ctx context.Context, s *models.StatusLog) error
}

// Notifier applies the notification policy to an alert.
type Notifier interface {
	Consider(ctx context.Context, a notify.Alert) notify.Decision
}

// Result is the outcome of evaluating one plant.
type Result struct {
	PlantID       string                `json:"plant_id"`
	Evaluated     bool                  `json:"evaluated"`
	Reason        string                `json:"reason,omitempty"`
	State         models.EmotionalState `json:"state,omitempty"`
	DaysRemaining int                   `json:"days_remaining"`
	Reading       *models.SensorReading `json:"reading,omitempty"`
	ImageURL      string                `json:"image_url,omitempty"`
	Notification  notify.Outcome        `json:"notification,omitempty"`
	EvaluatedAt   time.Time             `json:"evaluated_at"`
}

// Service evaluates plants on demand. It holds no per-plant state.
type Service struct {
	plants   PlantSource
	readings ReadingSource
	notifier Notifier
	recorder Recorder
	metrics  *metrics.Metrics
	lg       *slog.Logger
	now      func() time.Time
}

// NewService wires a Service. recorder and m may be nil.
func NewService(plants PlantSource, readings ReadingSource, notifier Notifier, recorder Recorder, m *metrics.Metrics, lg *slog.Logger) *Service {
	return &Service{
		plants:   plants,
		readings: readings,
		notifier: notifier,
		recorder: recorder,
		metrics:  m,
		lg:       lg,
		now:      time.Now,
	}
}

// Evaluate loads a plant and evaluates it, dispatching a notification when
// the policy allows.
func (s *Service) Evaluate(ctx context.Context, plantID string) (*Result, error) {
	p, err := s.plants.GetPlant(ctx, plantID)
	if err != nil {
		return nil, err
	}
	return s.EvaluatePlant(ctx, p)
}

// EvaluatePlant evaluates an already loaded plant, records the outcome and
// consults the notification policy.
func (s *Service) EvaluatePlant(ctx context.Context, p *models.Plant) (*Result, error) {
	start := time.Now()
	res, err := s.Snapshot(ctx, p)
	if err != nil || !res.Evaluated {
		return res, err
	}

	if s.recorder != nil {
		status := &models.StatusLog{
			PlantID:       p.ID,
			SensorID:      p.SensorID,
			State:         res.State,
			DaysRemaining: res.DaysRemaining,
			Reading:       *res.Reading,
			CreatedAt:     res.EvaluatedAt,
		}
		if err := s.recorder.RecordStatus(ctx, status); err != nil {
			s.lg.Warn("Failed to record plant status", "plant_id", p.ID, "error", err)
		}
	}

	d := s.notifier.Consider(ctx, notify.Alert{
		PlantID:       p.ID,
		UserID:        p.UserID,
		PlantName:     p.Name,
		State:         res.State,
		DaysRemaining: res.DaysRemaining,
		At:            res.EvaluatedAt,
	})
	res.Notification = d.Outcome
	s.metrics.Notification(string(d.Outcome))
	s.metrics.Evaluated(string(res.State), time.Since(start))

	s.lg.Debug("Plant evaluated",
		"plant_id", p.ID,
		"state", res.State,
		"days_remaining", res.DaysRemaining,
		"notification", d.Outcome,
	)
	return res, nil
}

// Snapshot derives the current state without recording it or notifying.
// Plants without a sensor or without any reading are not evaluated.
func (s *Service) Snapshot(ctx context.Context, p *models.Plant) (*Result, error) {
	now := s.now()
	res := &Result{PlantID: p.ID, EvaluatedAt: now}

	if p.SensorID == "" {
		res.Reason = ReasonNoSensor
		return res, nil
	}
	reading, err := s.readings.LatestReading(ctx, p.SensorID)
	if err != nil {
		return nil, fmt.Errorf("load reading for plant %s: %w", p.ID, err)
	}
	if reading == nil {
		res.Reason = ReasonNoReading
		return res, nil
	}

	res.Evaluated = true
	res.Reading = reading
	res.DaysRemaining = DaysRemaining(p.Watering, now)
	res.State = Derive(*reading, p.Environment, p.Watering, now)
	res.ImageURL = ImagePath(p.Species, res.State)
	return res, nil
}

// MultiRecorder fans a status out to several recorders. Every recorder is
// attempted; the first error is returned.
type MultiRecorder []Recorder

// RecordStatus implements Recorder.
func (m MultiRecorder) RecordStatus(ctx context.Context, s *models.StatusLog) error {
	var first error
	for _, r := range m {
		if err := r.RecordStatus(ctx, s); err != nil && first == nil {
			first = err
		}
	}
	return first
}
