package domain

import (
	"math"
	"time"
)

// WeatherObservation is one daily weather record shared by every plant in a cycle.
type WeatherObservation struct {
	Timestamp      time.Time `json:"timestamp"`
	TempMax        float64   `json:"temp_max"`
	TempMin        float64   `json:"temp_min"`
	Humidity       float64   `json:"humidity"`
	WindSpeed      float64   `json:"wind_speed"`
	SolarRadiation float64   `json:"solar_radiation"`
	Rainfall       float64   `json:"rainfall"`
}

// Validate reports ErrInvalidInput for physically impossible readings.
func (o WeatherObservation) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"temp_max", o.TempMax},
		{"temp_min", o.TempMin},
		{"humidity", o.Humidity},
		{"wind_speed", o.WindSpeed},
		{"solar_radiation", o.SolarRadiation},
		{"rainfall", o.Rainfall},
	}
	for _, f := range fields {
		if !isFinite(f.value) {
			return invalidf("%s is not a finite number", f.name)
		}
	}

	switch {
	case o.TempMax < o.TempMin:
		return invalidf("temp_max %.2f below temp_min %.2f", o.TempMax, o.TempMin)
	case o.Humidity < 0 || o.Humidity > 100:
		return invalidf("humidity %.2f outside [0, 100]", o.Humidity)
	case o.WindSpeed < 0:
		return invalidf("wind_speed %.2f is negative", o.WindSpeed)
	case o.SolarRadiation < 0:
		return invalidf("solar_radiation %.2f is negative", o.SolarRadiation)
	case o.Rainfall < 0:
		return invalidf("rainfall %.2f is negative", o.Rainfall)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
