package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ponytojas/plant-mood/config"
)

// ErrNotFound is returned when a keyed row does not exist.
var ErrNotFound = errors.New("not found")

// TimescaleDB handles database operations
type TimescaleDB struct {
	pool        *pgxpool.Pool
	sensorTable string
	lg          *slog.Logger
}

// NewTimescaleDB creates a new TimescaleDB instance
func NewTimescaleDB(ctx context.Context, cfg *config.Config, lg *slog.Logger) (*TimescaleDB, error) {
	pool, err := pgxpool.New(ctx, cfg.GetDBConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &TimescaleDB{
		pool:        pool,
		sensorTable: cfg.Timescale.TableName,
		lg:          lg,
	}, nil
}

// Close closes the connection pool
func (db *TimescaleDB) Close() {
	db.pool.Close()
}

// Ping verifies database connectivity.
func (db *TimescaleDB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// InitializeTables creates every table that does not exist yet. The sensor log
// becomes a hypertable when the TimescaleDB extension is installed.
func (db *TimescaleDB) InitializeTables(ctx context.Context) error {
	if err := db.initializeSensorTable(ctx); err != nil {
		return err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS plants (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		species TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		sensor_id TEXT NOT NULL DEFAULT '',
		temp_range_min DOUBLE PRECISION NOT NULL,
		temp_range_max DOUBLE PRECISION NOT NULL,
		humidity_range_min DOUBLE PRECISION NOT NULL,
		humidity_range_max DOUBLE PRECISION NOT NULL,
		light_range_min DOUBLE PRECISION NOT NULL,
		light_range_max DOUBLE PRECISION NOT NULL,
		watering_cycle_days INTEGER NOT NULL CHECK (watering_cycle_days > 0),
		last_watered_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CHECK (temp_range_min <= temp_range_max),
		CHECK (humidity_range_min <= humidity_range_max),
		CHECK (light_range_min <= light_range_max)
	);
	CREATE INDEX IF NOT EXISTS idx_plants_user ON plants (user_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS plant_status_logs (
		id BIGSERIAL PRIMARY KEY,
		plant_id TEXT NOT NULL REFERENCES plants (id) ON DELETE CASCADE,
		sensor_id TEXT NOT NULL,
		emotion TEXT NOT NULL,
		days_remaining INTEGER NOT NULL,
		temperature DOUBLE PRECISION NOT NULL,
		humidity DOUBLE PRECISION NOT NULL,
		light DOUBLE PRECISION NOT NULL,
		observed_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_status_logs_plant ON plant_status_logs (plant_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		plant_id TEXT REFERENCES plants (id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications (user_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS user_fcm_tokens (
		user_id TEXT NOT NULL,
		fcm_token TEXT NOT NULL,
		device_type TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, fcm_token)
	);
	`
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (db *TimescaleDB) initializeSensorTable(ctx context.Context) error {
	tableName := db.sensorTable

	// Check if table exists
	var exists bool
	err := db.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`, tableName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if table exists: %w", err)
	}
	if exists {
		db.lg.Info("Sensor table already exists", "table", tableName)
		return nil
	}

	db.lg.Info("Creating sensor table", "table", tableName)
	_, err = db.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE %s (
			time TIMESTAMPTZ NOT NULL,
			sensor_id TEXT NOT NULL,
			temperature DOUBLE PRECISION NOT NULL,
			humidity DOUBLE PRECISION NOT NULL,
			light DOUBLE PRECISION NOT NULL
		);
		CREATE INDEX %s_sensor_time ON %s (sensor_id, time DESC);
	`, tableName, tableName, tableName))
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	var timescale bool
	err = db.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'timescaledb')`).Scan(&timescale)
	if err != nil {
		return fmt.Errorf("failed to check for timescaledb: %w", err)
	}
	if !timescale {
		db.lg.Warn("TimescaleDB extension not installed, keeping a plain table", "table", tableName)
		return nil
	}

	// Convert to hypertable
	if _, err = db.pool.Exec(ctx, `SELECT create_hypertable($1, 'time')`, tableName); err != nil {
		return fmt.Errorf("failed to convert table to hypertable: %w", err)
	}
	db.lg.Info("Sensor table created and converted to hypertable", "table", tableName)
	return nil
}
