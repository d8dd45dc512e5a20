package database

import (
	"context"
	"fmt"

	"github.com/ponytojas/plant-mood/internal/models"
)

// RecordStatus appends an evaluation outcome to plant_status_logs.
func (db *TimescaleDB) RecordStatus(ctx context.Context, s *models.StatusLog) error {
	_, err := db.pool.Exec(ctx, `
		INSERT INTO plant_status_logs
			(plant_id, sensor_id, emotion, days_remaining, temperature, humidity, light, observed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, s.PlantID, s.SensorID, string(s.State), s.DaysRemaining,
		s.Reading.Temperature, s.Reading.Humidity, s.Reading.Light, s.Reading.Timestamp, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert status log: %w", err)
	}
	return nil
}

// StatusHistory returns the latest limit evaluation outcomes of a plant.
func (db *TimescaleDB) StatusHistory(ctx context.Context, plantID string, limit int) ([]*models.StatusLog, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT plant_id, sensor_id, emotion, days_remaining, temperature, humidity, light, observed_at, created_at
		FROM plant_status_logs
		WHERE plant_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, plantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var out []*models.StatusLog
	for rows.Next() {
		var s models.StatusLog
		var state string
		if err := rows.Scan(&s.PlantID, &s.SensorID, &state, &s.DaysRemaining,
			&s.Reading.Temperature, &s.Reading.Humidity, &s.Reading.Light, &s.Reading.Timestamp, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		s.State = models.EmotionalState(state)
		s.Reading.SensorID = s.SensorID
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read status history: %w", err)
	}
	return out, nil
}
