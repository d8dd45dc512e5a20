// Package evaluator turns a plant's latest sensor reading, its acceptable
// environment and its watering schedule into a single emotional state.
package evaluator

import (
	"math"
	"time"

	"github.com/ponytojas/plant-mood/internal/models"
)

const day = 24 * time.Hour

// DaysRemaining returns the whole days until the next watering is due, rounded
// up, so a plant due in 11 hours reports 1 and one 11 hours overdue still
// reports 0. Negative values mean overdue.
// A plant that was never watered starts its full cycle at now.
func DaysRemaining(w models.WateringState, now time.Time) int {
	if w.LastWateredAt == nil {
		return w.IntervalDays
	}
	next := w.LastWateredAt.Add(time.Duration(w.IntervalDays) * day)
	return int(math.Ceil(float64(next.Sub(now)) / float64(day)))
}

// Derive maps a reading to exactly one state. The checks run in a fixed order
// and the first match wins: temperature, humidity, light, then watering.
func Derive(r models.SensorReading, env models.Environment, w models.WateringState, now time.Time) models.EmotionalState {
	switch {
	case env.Temperature.Below(r.Temperature):
		return models.TooCold
	case env.Temperature.Above(r.Temperature):
		return models.TooHot
	case env.Humidity.Below(r.Humidity):
		return models.TooDry
	case env.Humidity.Above(r.Humidity):
		return models.TooHumid
	case env.Light.Below(r.Light):
		return models.TooDark
	case env.Light.Above(r.Light):
		return models.TooBright
	case DaysRemaining(w, now) <= 0:
		return models.Thirsty
	default:
		return models.Happy
	}
}

// ImagePath returns the character image shown for a species in a given state.
func ImagePath(species string, state models.EmotionalState) string {
	if species == "" {
		return "/images/emotion/" + string(state) + ".png"
	}
	return "/images/emotion/" + species + "/" + string(state) + ".png"
}
