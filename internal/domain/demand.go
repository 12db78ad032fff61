package domain

import (
	"math"
	"time"
)

// EffectiveRainFraction is the share of measured rainfall credited to the crop.
const EffectiveRainFraction = 0.8

// Demand is the result of the crop water demand model for one plant.
type Demand struct {
	Kc            float64
	ETc           float64
	EffectiveRain float64
	Depth         float64
}

// ComputeDepth returns the irrigation depth in mm needed to replace crop
// evapotranspiration not covered by effective rainfall, capped at the soil's
// readily available water.
func ComputeDepth(et0, kc float64, soil SoilProfile, rainfall float64) (Demand, error) {
	switch {
	case !isFinite(et0) || et0 < 0:
		return Demand{}, invalidf("et0 %v must be a non-negative number", et0)
	case !isFinite(kc) || kc < 0:
		return Demand{}, invalidf("kc %v must be a non-negative number", kc)
	case !isFinite(rainfall) || rainfall < 0:
		return Demand{}, invalidf("rainfall %v must be a non-negative number", rainfall)
	}
	if err := soil.Validate(); err != nil {
		return Demand{}, err
	}

	etc := et0 * kc
	effectiveRain := math.Min(rainfall*EffectiveRainFraction, etc)
	net := math.Max(0, etc-effectiveRain)

	return Demand{
		Kc:            kc,
		ETc:           etc,
		EffectiveRain: effectiveRain,
		Depth:         math.Min(net, soil.MaxApplication()),
	}, nil
}

// IrrigationDecision records the demand computed for one plant in one cycle.
// Decisions are created once and never mutated.
type IrrigationDecision struct {
	CycleID         string    `json:"cycle_id"`
	PlantID         int       `json:"plant_id"`
	PlantName       string    `json:"plant_name"`
	ET0             float64   `json:"et0"`
	Kc              float64   `json:"kc"`
	ETc             float64   `json:"etc"`
	EffectiveRain   float64   `json:"effective_rain"`
	IrrigationDepth float64   `json:"irrigation_depth"`
	Timestamp       time.Time `json:"timestamp"`
}

// NewDecision builds the decision record for a plant from its demand.
func NewDecision(cycleID string, plant PlantProfile, et0 float64, d Demand, ts time.Time) IrrigationDecision {
	return IrrigationDecision{
		CycleID:         cycleID,
		PlantID:         plant.ID,
		PlantName:       plant.Name,
		ET0:             et0,
		Kc:              d.Kc,
		ETc:             d.ETc,
		EffectiveRain:   d.EffectiveRain,
		IrrigationDepth: d.Depth,
		Timestamp:       ts,
	}
}
