package evaluator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ponytojas/plant-mood/internal/models"
	"github.com/ponytojas/plant-mood/internal/notify"
)

type fakePlants map[string]*models.Plant

func (f fakePlants) GetPlant(_ context.Context, id string) (*models.Plant, error) {
	p, ok := f[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return p, nil
}

type fakeReadings struct {
	bySensor map[string]*models.SensorReading
	err      error
}

func (f *fakeReadings) LatestReading(_ context.Context, sensorID string) (*models.SensorReading, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bySensor[sensorID], nil
}

type fakeNotifier struct {
	alerts  []notify.Alert
	outcome notify.Outcome
}

func (f *fakeNotifier) Consider(_ context.Context, a notify.Alert) notify.Decision {
	f.alerts = append(f.alerts, a)
	if a.State == models.Happy {
		return notify.Decision{Outcome: notify.OutcomeSkipped}
	}
	return notify.Decision{Outcome: f.outcome}
}

type fakeRecorder struct {
	logs []*models.StatusLog
	err  error
}

func (f *fakeRecorder) RecordStatus(_ context.Context, s *models.StatusLog) error {
	f.logs = append(f.logs, s)
	return f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(plants fakePlants, readings *fakeReadings, n *fakeNotifier, rec Recorder) *Service {
	s := NewService(plants, readings, n, rec, nil, testLogger())
	s.now = func() time.Time { return testNow }
	return s
}

func testPlant(id, sensor string) *models.Plant {
	return &models.Plant{
		ID:          id,
		UserID:      "user-1",
		Name:        "Fern",
		Species:     "fern",
		SensorID:    sensor,
		Environment: testEnv,
		Watering:    models.WateringState{LastWateredAt: ago(time.Hour), IntervalDays: 7},
	}
}

func TestEvaluateWithoutSensorIsSkipped(t *testing.T) {
	n := &fakeNotifier{outcome: notify.OutcomeDispatched}
	rec := &fakeRecorder{}
	s := newTestService(fakePlants{"p1": testPlant("p1", "")}, &fakeReadings{}, n, rec)

	res, err := s.Evaluate(context.Background(), "p1")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Evaluated || res.Reason != ReasonNoSensor {
		t.Fatalf("expected no_sensor skip, got %+v", res)
	}
	if len(n.alerts) != 0 || len(rec.logs) != 0 {
		t.Fatal("a skipped plant must not notify or record")
	}
}

func TestEvaluateWithoutReadingDoesNotFabricateOne(t *testing.T) {
	n := &fakeNotifier{outcome: notify.OutcomeDispatched}
	rec := &fakeRecorder{}
	s := newTestService(fakePlants{"p1": testPlant("p1", "s1")}, &fakeReadings{}, n, rec)

	res, err := s.Evaluate(context.Background(), "p1")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Evaluated || res.Reason != ReasonNoReading || res.Reading != nil {
		t.Fatalf("expected no_reading skip, got %+v", res)
	}
	if len(n.alerts) != 0 {
		t.Fatal("no reading must not produce an alert")
	}
}

func TestEvaluateRecordsAndNotifies(t *testing.T) {
	readings := &fakeReadings{bySensor: map[string]*models.SensorReading{
		"s1": {SensorID: "s1", Timestamp: testNow.Add(-time.Minute), Temperature: 15, Humidity: 55, Light: 60},
	}}
	n := &fakeNotifier{outcome: notify.OutcomeDispatched}
	rec := &fakeRecorder{}
	s := newTestService(fakePlants{"p1": testPlant("p1", "s1")}, readings, n, rec)

	res, err := s.Evaluate(context.Background(), "p1")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.Evaluated || res.State != models.TooCold {
		t.Fatalf("expected too_cold, got %+v", res)
	}
	if res.Notification != notify.OutcomeDispatched {
		t.Fatalf("expected dispatched, got %s", res.Notification)
	}
	if res.ImageURL != "/images/emotion/fern/too_cold.png" {
		t.Fatalf("unexpected image %s", res.ImageURL)
	}
	if len(rec.logs) != 1 || rec.logs[0].State != models.TooCold || rec.logs[0].DaysRemaining != 7 {
		t.Fatalf("unexpected status logs %+v", rec.logs)
	}
	if len(n.alerts) != 1 {
		t.Fatalf("expected one alert, got %d", len(n.alerts))
	}
	a := n.alerts[0]
	if a.PlantID != "p1" || a.UserID != "user-1" || a.PlantName != "Fern" || !a.At.Equal(testNow) {
		t.Fatalf("unexpected alert %+v", a)
	}
}

func TestEvaluateRecorderFailureIsNotFatal(t *testing.T) {
	readings := &fakeReadings{bySensor: map[string]*models.SensorReading{
		"s1": {SensorID: "s1", Temperature: 22, Humidity: 55, Light: 60},
	}}
	n := &fakeNotifier{}
	rec := &fakeRecorder{err: errors.New("db down")}
	s := newTestService(fakePlants{"p1": testPlant("p1", "s1")}, readings, n, rec)

	res, err := s.Evaluate(context.Background(), "p1")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.State != models.Happy || res.Notification != notify.OutcomeSkipped {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestEvaluateReadingFailureIsReturned(t *testing.T) {
	readings := &fakeReadings{err: errors.New("timeout")}
	s := newTestService(fakePlants{"p1": testPlant("p1", "s1")}, readings, &fakeNotifier{}, nil)

	if _, err := s.Evaluate(context.Background(), "p1"); err == nil {
		t.Fatal("expected the store error to surface")
	}
}

func TestSnapshotDoesNotNotify(t *testing.T) {
	readings := &fakeReadings{bySensor: map[string]*models.SensorReading{
		"s1": {SensorID: "s1", Temperature: 40, Humidity: 55, Light: 60},
	}}
	n := &fakeNotifier{outcome: notify.OutcomeDispatched}
	rec := &fakeRecorder{}
	s := newTestService(fakePlants{}, readings, n, rec)

	res, err := s.Snapshot(context.Background(), testPlant("p1", "s1"))
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if res.State != models.TooHot {
		t.Fatalf("expected too_hot, got %s", res.State)
	}
	if len(n.alerts) != 0 || len(rec.logs) != 0 {
		t.Fatal("snapshot must be side-effect free")
	}
}

func TestMultiRecorderCallsEveryRecorder(t *testing.T) {
	a := &fakeRecorder{err: errors.New("first")}
	b := &fakeRecorder{}
	err := MultiRecorder{a, b}.RecordStatus(context.Background(), &models.StatusLog{PlantID: "p1"})
	if err == nil || err.Error() != "first" {
		t.Fatalf("expected first error, got %v", err)
	}
	if len(a.logs) != 1 || len(b.logs) != 1 {
		t.Fatal("every recorder must be called")
	}
}
