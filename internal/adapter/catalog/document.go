package catalog

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/irrigation-scheduler/internal/domain"
)

// document is the on-disk catalog layout.
type document struct {
	Soils  map[string]soilDoc `yaml:"soils"`
	Plants []plantDoc         `yaml:"plants"`
}

type soilDoc struct {
	FieldCapacity         float64 `yaml:"field_capacity"`
	WiltingPoint          float64 `yaml:"wilting_point"`
	TotalAvailableWater   float64 `yaml:"total_available_water"`
	ReadilyAvailableWater float64 `yaml:"readily_available_water"`
}

type plantDoc struct {
	ID                 int            `yaml:"id"`
	Name               string         `yaml:"name"`
	KcIni              float64        `yaml:"kc_ini"`
	KcMid              float64        `yaml:"kc_mid"`
	KcEnd              float64        `yaml:"kc_end"`
	RootDepthMin       float64        `yaml:"root_depth_min"`
	RootDepthMax       float64        `yaml:"root_depth_max"`
	HeightMax          float64        `yaml:"height_max"`
	WaterDepletion     float64        `yaml:"water_depletion"`
	GrowingSeasonStart string         `yaml:"growing_season_start"`
	GrowingSeasonEnd   string         `yaml:"growing_season_end"`
	SoilType           string         `yaml:"soil_type"`
	Hydraulics         *hydraulicsDoc `yaml:"hydraulics"`
}

type hydraulicsDoc struct {
	ZoneCount int     `yaml:"zone_count"`
	FlowRate  float64 `yaml:"flow_rate"`
	ZoneArea  float64 `yaml:"zone_area"`
}

func (s soilDoc) profile(name string) (domain.SoilProfile, error) {
	t, err := domain.ParseSoilType(name)
	if err != nil {
		return domain.SoilProfile{}, err
	}
	soil := domain.SoilProfile{
		Type:                  t,
		FieldCapacity:         s.FieldCapacity,
		WiltingPoint:          s.WiltingPoint,
		TotalAvailableWater:   s.TotalAvailableWater,
		ReadilyAvailableWater: s.ReadilyAvailableWater,
	}
	if err := soil.Validate(); err != nil {
		return domain.SoilProfile{}, err
	}
	return soil, nil
}

func (p plantDoc) profile() (domain.PlantProfile, error) {
	if p.Name == "" {
		return domain.PlantProfile{}, errors.New("plant name is required")
	}
	if p.ID <= 0 {
		return domain.PlantProfile{}, fmt.Errorf("plant %q: id must be positive", p.Name)
	}
	for field, kc := range map[string]float64{"kc_ini": p.KcIni, "kc_mid": p.KcMid, "kc_end": p.KcEnd} {
		if kc < 0 {
			return domain.PlantProfile{}, fmt.Errorf("plant %q: %s must not be negative", p.Name, field)
		}
	}

	out := domain.PlantProfile{
		ID:             p.ID,
		Name:           p.Name,
		KcIni:          p.KcIni,
		KcMid:          p.KcMid,
		KcEnd:          p.KcEnd,
		RootDepthMin:   p.RootDepthMin,
		RootDepthMax:   p.RootDepthMax,
		HeightMax:      p.HeightMax,
		WaterDepletion: p.WaterDepletion,
	}

	var err error
	if out.GrowingSeasonStart, err = domain.ParseMonthDay(p.GrowingSeasonStart); err != nil {
		return domain.PlantProfile{}, fmt.Errorf("plant %q: %w", p.Name, err)
	}
	if out.GrowingSeasonEnd, err = domain.ParseMonthDay(p.GrowingSeasonEnd); err != nil {
		return domain.PlantProfile{}, fmt.Errorf("plant %q: %w", p.Name, err)
	}
	if out.GrowingSeasonStart.IsZero() != out.GrowingSeasonEnd.IsZero() {
		return domain.PlantProfile{}, fmt.Errorf("plant %q: growing season needs both start and end", p.Name)
	}
	if p.SoilType != "" {
		if out.SoilType, err = domain.ParseSoilType(p.SoilType); err != nil {
			return domain.PlantProfile{}, fmt.Errorf("plant %q: %w", p.Name, err)
		}
	}
	if p.Hydraulics != nil {
		h := domain.Hydraulics(*p.Hydraulics)
		if err := h.Validate(); err != nil {
			return domain.PlantProfile{}, fmt.Errorf("plant %q: %w", p.Name, err)
		}
		out.Hydraulics = &h
	}
	return out, nil
}
