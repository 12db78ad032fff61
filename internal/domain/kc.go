package domain

import (
	"fmt"
	"strings"
	"time"
)

// KcSelector picks the crop coefficient for a plant on a given day.
type KcSelector interface {
	Select(plant PlantProfile, day time.Time) float64
}

// MidSeasonKc always uses the mid-season coefficient.
type MidSeasonKc struct{}

func (MidSeasonKc) Select(plant PlantProfile, _ time.Time) float64 {
	return plant.KcMid
}

// Stage boundaries as fractions of the growing season (FAO-56 Fig. 25 shape).
const (
	initialStageEnd     = 0.15
	developmentStageEnd = 0.40
	midStageEnd         = 0.75
)

// SeasonalKc follows the FAO-56 crop coefficient curve across the plant's
// growing season: flat KcIni, a linear rise to KcMid, a flat mid season and a
// linear decline to KcEnd. Days outside the season use KcIni. Plants without a
// configured season fall back to KcMid.
type SeasonalKc struct{}

func (SeasonalKc) Select(plant PlantProfile, day time.Time) float64 {
	if !plant.HasSeason() {
		return plant.KcMid
	}
	f, ok := SeasonFraction(plant.GrowingSeasonStart, plant.GrowingSeasonEnd, day)
	if !ok {
		return plant.KcIni
	}

	switch {
	case f < initialStageEnd:
		return plant.KcIni
	case f < developmentStageEnd:
		return lerp(plant.KcIni, plant.KcMid, (f-initialStageEnd)/(developmentStageEnd-initialStageEnd))
	case f < midStageEnd:
		return plant.KcMid
	default:
		return lerp(plant.KcMid, plant.KcEnd, (f-midStageEnd)/(1-midStageEnd))
	}
}

// SeasonFraction returns how far day lies through the season [start, end],
// in [0, 1]. Seasons whose end precedes their start wrap across the new year.
// ok is false when day falls outside the season.
func SeasonFraction(start, end MonthDay, day time.Time) (fraction float64, ok bool) {
	loc := day.Location()
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)

	from := start.in(d.Year(), loc)
	to := end.in(d.Year(), loc)
	if to.Before(from) {
		if d.Before(from) {
			from = start.in(d.Year()-1, loc)
		} else {
			to = end.in(d.Year()+1, loc)
		}
	}

	if d.Before(from) || d.After(to) {
		return 0, false
	}
	length := to.Sub(from)
	if length <= 0 {
		return 1, true
	}
	return float64(d.Sub(from)) / float64(length), true
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// ParseKcStrategy maps a configuration value to a KcSelector.
func ParseKcStrategy(name string) (KcSelector, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mid":
		return MidSeasonKc{}, nil
	case "seasonal":
		return SeasonalKc{}, nil
	default:
		return nil, fmt.Errorf("%w: kc strategy %q", ErrInvalidInput, name)
	}
}
