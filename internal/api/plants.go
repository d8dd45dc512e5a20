package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ponytojas/plant-mood/internal/evaluator"
	"github.com/ponytojas/plant-mood/internal/models"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// plantInput is the editable part of a plant.
type plantInput struct {
	UserID            string             `json:"user_id"`
	Name              string             `json:"name"`
	Species           string             `json:"species"`
	Location          string             `json:"location"`
	ImageURL          string             `json:"image_url"`
	SensorID          string             `json:"sensor_id"`
	Environment       models.Environment `json:"environment"`
	WateringCycleDays int                `json:"watering_cycle_days"`
}

func (in *plantInput) apply(p *models.Plant) {
	p.Name = in.Name
	p.Species = in.Species
	p.Location = in.Location
	p.ImageURL = in.ImageURL
	p.SensorID = in.SensorID
	p.Environment = in.Environment
	p.Watering.IntervalDays = in.WateringCycleDays
}

type plantView struct {
	*models.Plant
	Status *evaluator.Result `json:"status,omitempty"`
}

func (h *Handler) listPlants(w http.ResponseWriter, r *http.Request) {
	plants, err := h.store.ListPlants(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if plants == nil {
		plants = []*models.Plant{}
	}
	JSON(w, http.StatusOK, plants)
}

func (h *Handler) createPlant(w http.ResponseWriter, r *http.Request) {
	var in plantInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	now := h.now()
	p := &models.Plant{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.apply(p)
	if err := p.Validate(); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.CreatePlant(r.Context(), p); err != nil {
		h.storeError(w, r, err)
		return
	}
	h.lg.Info("Plant created", "plant_id", p.ID, "user_id", p.UserID)
	JSON(w, http.StatusCreated, p)
}

func (h *Handler) getPlant(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetPlant(r.Context(), chi.URLParam(r, "plantID"))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	status, err := h.eval.Snapshot(r.Context(), p)
	if err != nil {
		// The plant is still worth returning without its live status.
		h.lg.Warn("Snapshot failed", "plant_id", p.ID, "error", err)
	}
	JSON(w, http.StatusOK, plantView{Plant: p, Status: status})
}

func (h *Handler) updatePlant(w http.ResponseWriter, r *http.Request) {
	var in plantInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	p, err := h.store.GetPlant(r.Context(), chi.URLParam(r, "plantID"))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	in.apply(p)
	p.UpdatedAt = h.now()
	if err := p.Validate(); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.UpdatePlant(r.Context(), p); err != nil {
		h.storeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, p)
}

func (h *Handler) deletePlant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "plantID")
	if err := h.store.DeletePlant(r.Context(), id); err != nil {
		h.storeError(w, r, err)
		return
	}
	h.lg.Info("Plant deleted", "plant_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// waterPlant records a confirmed watering and re-evaluates at once, so a
// thirsty state never outlives the confirmation.
func (h *Handler) waterPlant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "plantID")
	if err := h.store.ConfirmWatering(r.Context(), id, h.now()); err != nil {
		h.storeError(w, r, err)
		return
	}
	h.evaluate(w, r)
}

func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetPlant(r.Context(), chi.URLParam(r, "plantID"))
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	res, err := h.eval.EvaluatePlant(r.Context(), p)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, res)
}

func (h *Handler) statusHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	logs, err := h.store.StatusHistory(r.Context(), chi.URLParam(r, "plantID"), limit)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if logs == nil {
		logs = []*models.StatusLog{}
	}
	JSON(w, http.StatusOK, logs)
}
