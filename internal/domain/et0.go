package domain

import "math"

const (
	// atmosphericPressure is sea-level pressure in kPa.
	atmosphericPressure = 101.3
	// albedo of the grass reference surface.
	albedo = 0.23
	// soilHeatFlux is negligible at a daily time step.
	soilHeatFlux = 0.0
)

// EstimateET0 returns the FAO-56 Penman-Monteith reference evapotranspiration
// in mm/day for one daily observation. The result is never negative.
func EstimateET0(obs WeatherObservation) (float64, error) {
	if err := obs.Validate(); err != nil {
		return 0, err
	}

	tMean := (obs.TempMax + obs.TempMin) / 2
	gamma := 0.665e-3 * atmosphericPressure

	es := (saturationVaporPressure(obs.TempMax) + saturationVaporPressure(obs.TempMin)) / 2
	ea := es * obs.Humidity / 100
	delta := 4098 * es / math.Pow(tMean+237.3, 2)
	rn := obs.SolarRadiation * (1 - albedo)

	numerator := 0.408*delta*(rn-soilHeatFlux) +
		gamma*900/(tMean+273)*obs.WindSpeed*(es-ea)
	denominator := delta + gamma*(1+0.34*obs.WindSpeed)

	et0 := numerator / denominator
	if !isFinite(et0) {
		return 0, computef("et0 evaluated to %v", et0)
	}
	return math.Max(0, et0), nil
}

// saturationVaporPressure returns es(t) in kPa for a temperature in °C.
func saturationVaporPressure(t float64) float64 {
	return 0.6108 * math.Exp(17.27*t/(t+237.3))
}
