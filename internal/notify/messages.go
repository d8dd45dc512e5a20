package notify

import (
	"fmt"

	"github.com/ponytojas/plant-mood/internal/models"
)

const alertTitle = "Your plant needs attention"

// Text returns the title and body of the alert for a plant in the given state.
func Text(plantName string, state models.EmotionalState) (string, string) {
	var body string
	switch state {
	case models.TooCold:
		body = "%s is too cold. Move it somewhere warmer."
	case models.TooHot:
		body = "%s is too hot. Move it out of the heat."
	case models.TooDry:
		body = "%s finds the air too dry. Try misting it."
	case models.TooHumid:
		body = "%s finds the air too humid. Give it some ventilation."
	case models.TooDark:
		body = "%s is not getting enough light."
	case models.TooBright:
		body = "%s is getting too much direct light."
	case models.Thirsty:
		body = "%s is thirsty. Time to water it."
	default:
		body = "%s needs a check-up."
	}
	return alertTitle, fmt.Sprintf(body, plantName)
}

// TypeFor maps a state to the inbox category it belongs to.
func TypeFor(state models.EmotionalState) models.NotificationType {
	if state == models.Thirsty {
		return models.NotificationWatering
	}
	return models.NotificationEnvironment
}
