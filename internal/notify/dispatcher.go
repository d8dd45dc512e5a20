package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ponytojas/plant-mood/internal/models"
)

// Alert describes a plant whose derived state warrants telling its owner.
type Alert struct {
	PlantID       string
	UserID        string
	PlantName     string
	State         models.EmotionalState
	DaysRemaining int
	At            time.Time
}

// Dispatcher delivers an alert to the plant's owner.
type Dispatcher interface {
	Dispatch(ctx context.Context, a Alert) error
}

// TokenSource lists the device tokens registered for a user.
type TokenSource interface {
	DeviceTokens(ctx context.Context, userID string) ([]models.DeviceToken, error)
}

// Inbox stores notifications for later display.
type Inbox interface {
	InsertNotification(ctx context.Context, n *models.Notification) error
}

// PushDispatcher sends an alert to every device of the owner and files it in
// the owner's inbox.
type PushDispatcher struct {
	tokens TokenSource
	inbox  Inbox
	sender Sender
	lg     *slog.Logger
}

// NewPushDispatcher creates a PushDispatcher.
func NewPushDispatcher(tokens TokenSource, inbox Inbox, sender Sender, lg *slog.Logger) *PushDispatcher {
	return &PushDispatcher{tokens: tokens, inbox: inbox, sender: sender, lg: lg}
}

// Dispatch implements Dispatcher. It fails only when the user has devices and
// none of them accepted the message, or when an inbox-only delivery could not
// be stored.
func (d *PushDispatcher) Dispatch(ctx context.Context, a Alert) error {
	title, body := Text(a.PlantName, a.State)

	tokens, err := d.tokens.DeviceTokens(ctx, a.UserID)
	if err != nil {
		return fmt.Errorf("load device tokens: %w", err)
	}

	data := map[string]string{
		"plantId": a.PlantID,
		"emotion": string(a.State),
	}

	var sendErrs []error
	delivered := 0
	for _, t := range tokens {
		err := d.sender.Send(ctx, Message{Token: t.Token, Title: title, Body: body, Data: data})
		if err != nil {
			d.lg.Warn("Push delivery failed", "plant_id", a.PlantID, "device_type", t.DeviceType, "error", err)
			sendErrs = append(sendErrs, err)
			continue
		}
		delivered++
	}
	if len(tokens) > 0 && delivered == 0 {
		return fmt.Errorf("no device accepted the notification: %w", errors.Join(sendErrs...))
	}

	n := &models.Notification{
		ID:        uuid.NewString(),
		UserID:    a.UserID,
		PlantID:   a.PlantID,
		Type:      TypeFor(a.State),
		Title:     title,
		Body:      body,
		CreatedAt: a.At,
		UpdatedAt: a.At,
	}
	if err := d.inbox.InsertNotification(ctx, n); err != nil {
		if delivered == 0 {
			return fmt.Errorf("store notification: %w", err)
		}
		d.lg.Error("Failed to store delivered notification", "plant_id", a.PlantID, "error", err)
	}

	d.lg.Info("Notification dispatched",
		"plant_id", a.PlantID,
		"state", a.State,
		"devices", delivered,
		"device_failures", len(sendErrs),
	)
	return nil
}
