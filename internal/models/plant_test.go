package models

import "testing"

func TestEnvironmentRangeContainsIsInclusive(t *testing.T) {
	r := EnvironmentRange{Min: 40, Max: 80}
	cases := []struct {
		v    float64
		want bool
	}{
		{39.99, false},
		{40, true},
		{60, true},
		{80, true},
		{80.01, false},
	}
	for _, c := range cases {
		if got := r.Contains(c.v); got != c.want {
			t.Errorf("Contains(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestEnvironmentRangeDegenerate(t *testing.T) {
	r := EnvironmentRange{Min: 20, Max: 20}
	if !r.Contains(20) {
		t.Fatal("a single-point range must contain its point")
	}
	if r.Contains(20.5) || r.Contains(19.5) {
		t.Fatal("a single-point range must not contain other values")
	}
}

func TestPlantValidate(t *testing.T) {
	valid := func() *Plant {
		return &Plant{
			UserID: "u1",
			Name:   "Fern",
			Environment: Environment{
				Temperature: EnvironmentRange{Min: 18, Max: 26},
				Humidity:    EnvironmentRange{Min: 40, Max: 70},
				Light:       EnvironmentRange{Min: 40, Max: 80},
			},
			Watering: WateringState{IntervalDays: 7},
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid plant rejected: %v", err)
	}

	inverted := valid()
	inverted.Environment.Humidity = EnvironmentRange{Min: 70, Max: 40}
	if err := inverted.Validate(); err == nil {
		t.Fatal("expected error for min > max")
	}

	noInterval := valid()
	noInterval.Watering.IntervalDays = 0
	if err := noInterval.Validate(); err == nil {
		t.Fatal("expected error for zero watering interval")
	}

	noName := valid()
	noName.Name = ""
	if err := noName.Validate(); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestEmotionalStateEnvironmental(t *testing.T) {
	if Happy.Environmental() || Thirsty.Environmental() {
		t.Fatal("happy and thirsty are not environmental")
	}
	if !TooBright.Environmental() {
		t.Fatal("too_bright is environmental")
	}
	if EmotionalState("sleepy").Valid() {
		t.Fatal("unknown state reported valid")
	}
}
