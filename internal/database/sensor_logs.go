package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ponytojas/plant-mood/internal/models"
)

// InsertSensorData inserts sensor data into the database
func (db *TimescaleDB) InsertSensorData(ctx context.Context, data *models.SensorReading) error {
	_, err := db.pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (time, sensor_id, temperature, humidity, light)
		VALUES ($1, $2, $3, $4, $5)
	`, db.sensorTable), data.Timestamp, data.SensorID, data.Temperature, data.Humidity, data.Light)
	if err != nil {
		return fmt.Errorf("failed to insert sensor data: %w", err)
	}
	return nil
}

// LatestReading returns the most recent reading of a sensor, or nil when the
// sensor has not reported yet.
func (db *TimescaleDB) LatestReading(ctx context.Context, sensorID string) (*models.SensorReading, error) {
	r := models.SensorReading{SensorID: sensorID}
	err := db.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT time, temperature, humidity, light
		FROM %s
		WHERE sensor_id = $1
		ORDER BY time DESC
		LIMIT 1
	`, db.sensorTable), sensorID).Scan(&r.Timestamp, &r.Temperature, &r.Humidity, &r.Light)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest reading: %w", err)
	}
	return &r, nil
}
