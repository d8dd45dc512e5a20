package models

import (
	"fmt"
	"time"
)

// EnvironmentRange is an inclusive [Min, Max] interval for one metric.
// Callers guarantee Min <= Max; see Validate.
type EnvironmentRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies inside the range, both ends inclusive.
func (r EnvironmentRange) Contains(v float64) bool {
	return !r.Below(v) && !r.Above(v)
}

// Below reports whether v is strictly less than Min.
func (r EnvironmentRange) Below(v float64) bool {
	return v < r.Min
}

// Above reports whether v is strictly greater than Max.
func (r EnvironmentRange) Above(v float64) bool {
	return v > r.Max
}

// Validate returns an error when Min > Max.
func (r EnvironmentRange) Validate(metric string) error {
	if r.Min > r.Max {
		return fmt.Errorf("%s range: min %.2f is greater than max %.2f", metric, r.Min, r.Max)
	}
	return nil
}

// Environment holds the acceptable range of every monitored metric.
type Environment struct {
	Temperature EnvironmentRange `json:"temperature"`
	Humidity    EnvironmentRange `json:"humidity"`
	Light       EnvironmentRange `json:"light"`
}

// Validate checks all three ranges.
func (e Environment) Validate() error {
	if err := e.Temperature.Validate("temperature"); err != nil {
		return err
	}
	if err := e.Humidity.Validate("humidity"); err != nil {
		return err
	}
	return e.Light.Validate("light")
}

// WateringState tracks when a plant was last watered and how often it needs it.
// A nil LastWateredAt means the plant has never been watered through the app.
type WateringState struct {
	LastWateredAt *time.Time `json:"last_watered_at"`
	IntervalDays  int        `json:"watering_cycle_days"`
}

// Plant is a user's registered plant together with its care configuration.
type Plant struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	Name        string        `json:"name"`
	Species     string        `json:"species"`
	Location    string        `json:"location"`
	ImageURL    string        `json:"image_url"`
	SensorID    string        `json:"sensor_id"`
	Environment Environment   `json:"environment"`
	Watering    WateringState `json:"watering"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Validate enforces the configuration preconditions the evaluator relies on.
func (p *Plant) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Watering.IntervalDays <= 0 {
		return fmt.Errorf("watering_cycle_days must be > 0")
	}
	return p.Environment.Validate()
}
