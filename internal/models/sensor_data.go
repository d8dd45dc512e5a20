package models

import (
	"time"
)

// SensorReading is one row of the sensor log: the three metrics a plant sensor
// reports at a single observation instant.
type SensorReading struct {
	Timestamp   time.Time `json:"timestamp"`
	SensorID    string    `json:"sensor_id"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Light       float64   `json:"light"`
}
