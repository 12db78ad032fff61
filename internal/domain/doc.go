// Package domain implements the irrigation decision engine: FAO-56 reference
// evapotranspiration, crop water demand under soil moisture limits, and
// sequential zone schedule generation. Everything here is pure; the package
// performs no I/O and does no logging.
//
// # Units
//
//	Temperature:      °C (daily maximum and minimum)
//	Humidity:         % relative humidity, 0–100
//	Wind speed:       m/s measured at 2 m height
//	Solar radiation:  MJ/m²/day (incoming shortwave)
//	Rainfall:         mm/day
//	ET0, ETc, depth:  mm/day
//	TAW:              mm of water per metre of soil
//	RAW:              fraction of TAW usable before plant stress
//	Flow rate:        m³/hour per rotator
//	Zone area:        m²
//	Water volume:     m³ (depth mm × area m² / 1000)
//
// # Reference evapotranspiration
//
// [EstimateET0] applies the FAO-56 Penman-Monteith equation at a daily step
// with fixed site constants: sea-level atmospheric pressure of 101.3 kPa, a
// grass-reference albedo of 0.23, and a soil heat flux of zero. Net radiation
// is approximated as (1 − albedo) × incoming shortwave, so negative results
// are possible under cold, humid, calm conditions and are floored to zero.
//
// # Crop demand
//
// [ComputeDepth] scales ET0 by a crop coefficient chosen by a [KcSelector],
// credits 80% of measured rainfall as effective, and caps the result at the
// readily available water of the soil (RAW × TAW).
//
// # Scheduling
//
// Rotators share one supply line, so only one zone may run at a time.
// [GenerateSchedule] emits one entry per zone with contiguous start times;
// [SequenceOnLine] chains several plants' schedules on the same line.
// Runtimes are floored to whole minutes so a zone never receives more than
// the computed depth.
package domain
