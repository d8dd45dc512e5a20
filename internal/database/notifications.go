package database

import (
	"context"
	"fmt"
	"time"

	"github.com/ponytojas/plant-mood/internal/models"
)

// InsertNotification files n in its user's inbox.
func (db *TimescaleDB) InsertNotification(ctx context.Context, n *models.Notification) error {
	var plantID *string
	if n.PlantID != "" {
		plantID = &n.PlantID
	}
	_, err := db.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, plant_id, type, title, body, read, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, n.ID, n.UserID, plantID, string(n.Type), n.Title, n.Body, n.Read, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// ListNotifications returns a user's inbox, newest first.
func (db *TimescaleDB) ListNotifications(ctx context.Context, userID string) ([]*models.Notification, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT id, user_id, COALESCE(plant_id, ''), type, title, body, read, created_at, updated_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		var n models.Notification
		var typ string
		if err := rows.Scan(&n.ID, &n.UserID, &n.PlantID, &typ, &n.Title, &n.Body, &n.Read, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Type = models.NotificationType(typ)
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}
	return out, nil
}

// MarkNotificationRead flags a notification as read.
func (db *TimescaleDB) MarkNotificationRead(ctx context.Context, id string, at time.Time) error {
	tag, err := db.pool.Exec(ctx, `UPDATE notifications SET read = TRUE, updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to mark notification %s read: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertDeviceToken registers or refreshes a device token.
func (db *TimescaleDB) UpsertDeviceToken(ctx context.Context, t *models.DeviceToken) error {
	_, err := db.pool.Exec(ctx, `
		INSERT INTO user_fcm_tokens (user_id, fcm_token, device_type, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, fcm_token) DO UPDATE SET
			device_type = excluded.device_type,
			updated_at = excluded.updated_at
	`, t.UserID, t.Token, t.DeviceType, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert device token: %w", err)
	}
	return nil
}

// DeviceTokens lists the tokens registered for a user.
func (db *TimescaleDB) DeviceTokens(ctx context.Context, userID string) ([]models.DeviceToken, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT user_id, fcm_token, device_type, updated_at
		FROM user_fcm_tokens
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query device tokens: %w", err)
	}
	defer rows.Close()

	var out []models.DeviceToken
	for rows.Next() {
		var t models.DeviceToken
		if err := rows.Scan(&t.UserID, &t.Token, &t.DeviceType, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read device tokens: %w", err)
	}
	return out, nil
}
