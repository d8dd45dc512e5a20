package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ponytojas/plant-mood/internal/models"
)

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListNotifications(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if list == nil {
		list = []*models.Notification{}
	}
	JSON(w, http.StatusOK, list)
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	if err := h.store.MarkNotificationRead(r.Context(), chi.URLParam(r, "notificationID"), h.now()); err != nil {
		h.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tokenInput struct {
	UserID     string `json:"user_id"`
	Token      string `json:"fcm_token"`
	DeviceType string `json:"device_type"`
}

func (h *Handler) saveToken(w http.ResponseWriter, r *http.Request) {
	var in tokenInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if in.UserID == "" || in.Token == "" {
		Error(w, http.StatusBadRequest, "user_id and fcm_token are required")
		return
	}

	t := &models.DeviceToken{
		UserID:     in.UserID,
		Token:      in.Token,
		DeviceType: in.DeviceType,
		UpdatedAt:  h.now(),
	}
	if err := h.store.UpsertDeviceToken(r.Context(), t); err != nil {
		h.storeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, t)
}
