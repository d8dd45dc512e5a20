package models

import "time"

// NotificationType groups inbox entries.
type NotificationType string

const (
	NotificationWatering    NotificationType = "watering"
	NotificationEnvironment NotificationType = "environment"
	NotificationSystem      NotificationType = "system"
)

// Notification is an entry in a user's notification inbox.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	PlantID   string           `json:"plant_id,omitempty"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NotificationRecord marks that an alert for (PlantID, State) went out at SentAt.
type NotificationRecord struct {
	PlantID string
	State   EmotionalState
	SentAt  time.Time
}

// DeviceToken is a push-messaging registration for one of a user's devices.
type DeviceToken struct {
	UserID     string    `json:"user_id"`
	Token      string    `json:"fcm_token"`
	DeviceType string    `json:"device_type"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// StatusLog is one persisted evaluation outcome.
type StatusLog struct {
	PlantID       string         `json:"plant_id"`
	SensorID      string         `json:"sensor_id"`
	State         EmotionalState `json:"emotion"`
	DaysRemaining int            `json:"days_remaining"`
	Reading       SensorReading  `json:"reading"`
	CreatedAt     time.Time      `json:"created_at"`
}
