package models

// EmotionalState is the single mood label derived for a plant.
type EmotionalState string

const (
	Happy     EmotionalState = "happy"
	TooCold   EmotionalState = "too_cold"
	TooHot    EmotionalState = "too_hot"
	TooDry    EmotionalState = "too_dry"
	TooHumid  EmotionalState = "too_humid"
	TooDark   EmotionalState = "too_dark"
	TooBright EmotionalState = "too_bright"
	Thirsty   EmotionalState = "thirsty"
)

// EmotionalStates lists every label in derivation priority order, Happy last.
var EmotionalStates = []EmotionalState{
	TooCold, TooHot, TooDry, TooHumid, TooDark, TooBright, Thirsty, Happy,
}

// Valid reports whether s is one of the known labels.
func (s EmotionalState) Valid() bool {
	for _, known := range EmotionalStates {
		if s == known {
			return true
		}
	}
	return false
}

// Environmental reports whether the state comes from a sensed metric rather
// than the watering schedule.
func (s EmotionalState) Environmental() bool {
	return s != Happy && s != Thirsty && s.Valid()
}
