package evaluator

import (
	"testing"
	"time"

	"github.com/ponytojas/plant-mood/internal/models"
)

var (
	testNow = time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

	testEnv = models.Environment{
		Temperature: models.EnvironmentRange{Min: 18, Max: 26},
		Humidity:    models.EnvironmentRange{Min: 40, Max: 70},
		Light:       models.EnvironmentRange{Min: 40, Max: 80},
	}
	comfortable = models.SensorReading{Temperature: 22, Humidity: 55, Light: 60}
)

func ago(d time.Duration) *time.Time {
	t := testNow.Add(-d)
	return &t
}

func TestDaysRemaining(t *testing.T) {
	cases := []struct {
		name string
		w    models.WateringState
		want int
	}{
		{"never watered starts full cycle", models.WateringState{IntervalDays: 7}, 7},
		{"just watered", models.WateringState{LastWateredAt: ago(0), IntervalDays: 7}, 7},
		{"overdue by three days", models.WateringState{LastWateredAt: ago(10 * day), IntervalDays: 7}, -3},
		{"due in eleven hours rounds up", models.WateringState{LastWateredAt: ago(6*day + 13*time.Hour), IntervalDays: 7}, 1},
		{"due exactly now", models.WateringState{LastWateredAt: ago(7 * day), IntervalDays: 7}, 0},
		{"eleven hours overdue is zero", models.WateringState{LastWateredAt: ago(7*day + 11*time.Hour), IntervalDays: 7}, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := DaysRemaining(c.w, testNow); got != c.want {
				t.Fatalf("DaysRemaining = %d, want %d", got, c.want)
			}
		})
	}
}

func TestDaysRemainingNeverIncreases(t *testing.T) {
	w := models.WateringState{LastWateredAt: ago(2 * day), IntervalDays: 5}
	prev := DaysRemaining(w, testNow)
	for step := 1; step <= 24*10; step++ {
		cur := DaysRemaining(w, testNow.Add(time.Duration(step)*time.Hour))
		if cur > prev {
			t.Fatalf("days remaining rose from %d to %d at +%dh", prev, cur, step)
		}
		prev = cur
	}
}

func TestDeriveScenarios(t *testing.T) {
	fresh := models.WateringState{LastWateredAt: ago(time.Hour), IntervalDays: 7}

	cases := []struct {
		name    string
		reading models.SensorReading
		w       models.WateringState
		want    models.EmotionalState
	}{
		{"cold", models.SensorReading{Temperature: 15, Humidity: 55, Light: 60}, fresh, models.TooCold},
		{"hot", models.SensorReading{Temperature: 30, Humidity: 55, Light: 60}, fresh, models.TooHot},
		{"dry", models.SensorReading{Temperature: 22, Humidity: 20, Light: 60}, fresh, models.TooDry},
		{"humid", models.SensorReading{Temperature: 22, Humidity: 85, Light: 60}, fresh, models.TooHumid},
		{"dark", models.SensorReading{Temperature: 22, Humidity: 55, Light: 10}, fresh, models.TooDark},
		{"bright", models.SensorReading{Temperature: 22, Humidity: 55, Light: 95}, fresh, models.TooBright},
		{"thirsty", comfortable, models.WateringState{LastWateredAt: ago(10 * day), IntervalDays: 7}, models.Thirsty},
		{"never watered is happy", comfortable, models.WateringState{IntervalDays: 7}, models.Happy},
		{"light at max boundary", models.SensorReading{Temperature: 22, Humidity: 55, Light: 80}, fresh, models.Happy},
		{"temperature at min boundary", models.SensorReading{Temperature: 18, Humidity: 55, Light: 60}, fresh, models.Happy},
		{"dry outranks thirsty", models.SensorReading{Temperature: 22, Humidity: 20, Light: 60}, models.WateringState{LastWateredAt: ago(10 * day), IntervalDays: 7}, models.TooDry},
		{"humidity outranks light", models.SensorReading{Temperature: 22, Humidity: 85, Light: 5}, fresh, models.TooHumid},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Derive(c.reading, testEnv, c.w, testNow); got != c.want {
				t.Fatalf("Derive = %s, want %s", got, c.want)
			}
		})
	}
}

func TestDeriveTemperatureOutranksHumidity(t *testing.T) {
	fresh := models.WateringState{LastWateredAt: ago(time.Hour), IntervalDays: 7}
	for _, temp := range []float64{-5, 10, 17.9, 26.1, 35} {
		for _, hum := range []float64{0, 39.9, 70.1, 100} {
			for _, light := range []float64{0, 60, 200} {
				r := models.SensorReading{Temperature: temp, Humidity: hum, Light: light}
				got := Derive(r, testEnv, fresh, testNow)
				if got != models.TooCold && got != models.TooHot {
					t.Fatalf("temp=%v hum=%v light=%v derived %s, want a temperature state", temp, hum, light, got)
				}
			}
		}
	}
}

func TestDeriveIsIdempotent(t *testing.T) {
	w := models.WateringState{LastWateredAt: ago(3 * day), IntervalDays: 3}
	r := models.SensorReading{Temperature: 22, Humidity: 55, Light: 60}
	first := Derive(r, testEnv, w, testNow)
	for i := 0; i < 5; i++ {
		if got := Derive(r, testEnv, w, testNow); got != first {
			t.Fatalf("call %d derived %s, first call derived %s", i, got, first)
		}
	}
}

func TestImagePath(t *testing.T) {
	if got := ImagePath("monstera", models.TooDry); got != "/images/emotion/monstera/too_dry.png" {
		t.Fatalf("unexpected path %s", got)
	}
	if got := ImagePath("", models.Happy); got != "/images/emotion/happy.png" {
		t.Fatalf("unexpected path %s", got)
	}
}
