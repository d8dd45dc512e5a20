package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ponytojas/plant-mood/internal/models"
)

const plantColumns = `id, user_id, name, species, location, image_url, sensor_id,
	temp_range_min, temp_range_max, humidity_range_min, humidity_range_max,
	light_range_min, light_range_max, watering_cycle_days, last_watered_at,
	created_at, updated_at`

func scanPlant(row pgx.Row) (*models.Plant, error) {
	var p models.Plant
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Species, &p.Location, &p.ImageURL, &p.SensorID,
		&p.Environment.Temperature.Min, &p.Environment.Temperature.Max,
		&p.Environment.Humidity.Min, &p.Environment.Humidity.Max,
		&p.Environment.Light.Min, &p.Environment.Light.Max,
		&p.Watering.IntervalDays, &p.Watering.LastWateredAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (db *TimescaleDB) queryPlants(ctx context.Context, query string, args ...any) ([]*models.Plant, error) {
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plants: %w", err)
	}
	defer rows.Close()

	var plants []*models.Plant
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plant: %w", err)
		}
		plants = append(plants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read plants: %w", err)
	}
	return plants, nil
}

// ListPlants returns a user's plants, newest first.
func (db *TimescaleDB) ListPlants(ctx context.Context, userID string) ([]*models.Plant, error) {
	return db.queryPlants(ctx, `SELECT `+plantColumns+` FROM plants WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// ListAllPlants returns every plant, used by the periodic evaluation.
func (db *TimescaleDB) ListAllPlants(ctx context.Context) ([]*models.Plant, error) {
	return db.queryPlants(ctx, `SELECT `+plantColumns+` FROM plants ORDER BY id`)
}

// GetPlant loads one plant by id.
func (db *TimescaleDB) GetPlant(ctx context.Context, id string) (*models.Plant, error) {
	p, err := scanPlant(db.pool.QueryRow(ctx, `SELECT `+plantColumns+` FROM plants WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plant %s: %w", id, err)
	}
	return p, nil
}

// CreatePlant inserts p. ID and timestamps must already be set.
func (db *TimescaleDB) CreatePlant(ctx context.Context, p *models.Plant) error {
	_, err := db.pool.Exec(ctx, `
		INSERT INTO plants (`+plantColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`,
		p.ID, p.UserID, p.Name, p.Species, p.Location, p.ImageURL, p.SensorID,
		p.Environment.Temperature.Min, p.Environment.Temperature.Max,
		p.Environment.Humidity.Min, p.Environment.Humidity.Max,
		p.Environment.Light.Min, p.Environment.Light.Max,
		p.Watering.IntervalDays, p.Watering.LastWateredAt,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert plant: %w", err)
	}
	return nil
}

// UpdatePlant overwrites the editable fields of p. Ownership, creation time
// and the watering timestamp are left alone.
func (db *TimescaleDB) UpdatePlant(ctx context.Context, p *models.Plant) error {
	tag, err := db.pool.Exec(ctx, `
		UPDATE plants SET
			name = $2, species = $3, location = $4, image_url = $5, sensor_id = $6,
			temp_range_min = $7, temp_range_max = $8,
			humidity_range_min = $9, humidity_range_max = $10,
			light_range_min = $11, light_range_max = $12,
			watering_cycle_days = $13, updated_at = $14
		WHERE id = $1
	`,
		p.ID, p.Name, p.Species, p.Location, p.ImageURL, p.SensorID,
		p.Environment.Temperature.Min, p.Environment.Temperature.Max,
		p.Environment.Humidity.Min, p.Environment.Humidity.Max,
		p.Environment.Light.Min, p.Environment.Light.Max,
		p.Watering.IntervalDays, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update plant %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePlant removes a plant together with its status history and inbox entries.
func (db *TimescaleDB) DeletePlant(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM plants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete plant %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ConfirmWatering sets last_watered_at to at.
func (db *TimescaleDB) ConfirmWatering(ctx context.Context, id string, at time.Time) error {
	tag, err := db.pool.Exec(ctx, `UPDATE plants SET last_watered_at = $2, updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to record watering for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
