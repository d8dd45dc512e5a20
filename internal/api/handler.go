// Package api exposes plants, watering, evaluation and notifications over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ponytojas/plant-mood/internal/database"
	"github.com/ponytojas/plant-mood/internal/evaluator"
	"github.com/ponytojas/plant-mood/internal/models"
)

// Store is the persistence the handlers need.
type Store interface {
	Ping(ctx context.Context) error

	ListPlants(ctx context.Context, userID string) ([]*models.Plant, error)
	GetPlant(ctx context.Context, id string) (*models.Plant, error)
	CreatePlant(ctx context.Context, p *models.Plant) error
	UpdatePlant(ctx context.Context, p *models.Plant) error
	DeletePlant(ctx context.Context, id string) error
	ConfirmWatering(ctx context.Context, id string, at time.Time) error
	StatusHistory(ctx context.Context, plantID string, limit int) ([]*models.StatusLog, error)

	ListNotifications(ctx context.Context, userID string) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string, at time.Time) error
	UpsertDeviceToken(ctx context.Context, t *models.DeviceToken) error
}

// Evaluator derives plant states.
type Evaluator interface {
	EvaluatePlant(ctx context.Context, p *models.Plant) (*evaluator.Result, error)
	Snapshot(ctx context.Context, p *models.Plant) (*evaluator.Result, error)
}

// Handler holds the dependencies shared by every route.
type Handler struct {
	store        Store
	eval         Evaluator
	liveInterval time.Duration
	lg           *slog.Logger
	now          func() time.Time
}

// NewHandler creates a Handler.
func NewHandler(store Store, eval Evaluator, liveInterval time.Duration, lg *slog.Logger) *Handler {
	return &Handler{
		store:        store,
		eval:         eval,
		liveInterval: liveInterval,
		lg:           lg,
		now:          time.Now,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// storeError maps a store failure to a response.
func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, database.ErrNotFound) {
		Error(w, http.StatusNotFound, "not found")
		return
	}
	h.lg.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	Error(w, http.StatusInternalServerError, "internal error")
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		h.lg.Warn("Health check failed", "error", err)
		JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
