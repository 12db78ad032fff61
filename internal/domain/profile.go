package domain

import (
	"fmt"
	"strings"
	"time"
)

// SoilType is the closed set of soil textures the engine knows about.
type SoilType int

const (
	SoilUnknown SoilType = iota
	SoilSand
	SoilSandyLoam
	SoilLoam
	SoilClay
)

var soilTypeNames = map[SoilType]string{
	SoilSand:      "sand",
	SoilSandyLoam: "sandy_loam",
	SoilLoam:      "loam",
	SoilClay:      "clay",
}

// SoilTypes lists every known soil type in declaration order.
func SoilTypes() []SoilType {
	return []SoilType{SoilSand, SoilSandyLoam, SoilLoam, SoilClay}
}

func (s SoilType) String() string {
	if name, ok := soilTypeNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseSoilType maps a configuration key to a SoilType. Matching ignores case
// and accepts spaces or hyphens in place of underscores.
func ParseSoilType(s string) (SoilType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	for t, name := range soilTypeNames {
		if name == key {
			return t, nil
		}
	}
	return SoilUnknown, fmt.Errorf("%w %q", ErrUnknownSoilType, s)
}

// MarshalText implements encoding.TextMarshaler.
func (s SoilType) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SoilType) UnmarshalText(b []byte) error {
	t, err := ParseSoilType(string(b))
	if err != nil {
		return err
	}
	*s = t
	return nil
}

// SoilProfile holds the water-holding characteristics of one soil texture.
type SoilProfile struct {
	Type                  SoilType `json:"type"`
	FieldCapacity         float64  `json:"field_capacity"`          // m³/m³
	WiltingPoint          float64  `json:"wilting_point"`           // m³/m³
	TotalAvailableWater   float64  `json:"total_available_water"`   // mm per metre of soil
	ReadilyAvailableWater float64  `json:"readily_available_water"` // fraction of TAW
}

// MaxApplication is the largest depth the soil can usefully take in one cycle.
func (s SoilProfile) MaxApplication() float64 {
	return s.ReadilyAvailableWater * s.TotalAvailableWater
}

// Validate checks the profile is usable as a depth cap.
func (s SoilProfile) Validate() error {
	switch {
	case !isFinite(s.TotalAvailableWater) || s.TotalAvailableWater < 0:
		return invalidf("soil %s: total_available_water %v", s.Type, s.TotalAvailableWater)
	case !isFinite(s.ReadilyAvailableWater) || s.ReadilyAvailableWater < 0 || s.ReadilyAvailableWater > 1:
		return invalidf("soil %s: readily_available_water %v outside [0, 1]", s.Type, s.ReadilyAvailableWater)
	}
	return nil
}

// MonthDay is a calendar day without a year, used for growing season bounds.
type MonthDay struct {
	Month time.Month
	Day   int
}

// ParseMonthDay parses "MM-DD". An empty string yields the zero MonthDay.
func ParseMonthDay(s string) (MonthDay, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return MonthDay{}, nil
	}
	t, err := time.Parse("01-02", s)
	if err != nil {
		return MonthDay{}, invalidf("month-day %q: expected MM-DD", s)
	}
	return MonthDay{Month: t.Month(), Day: t.Day()}, nil
}

// IsZero reports whether the month-day is unset.
func (m MonthDay) IsZero() bool { return m.Month == 0 }

func (m MonthDay) String() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%02d-%02d", int(m.Month), m.Day)
}

// MarshalText implements encoding.TextMarshaler.
func (m MonthDay) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MonthDay) UnmarshalText(b []byte) error {
	v, err := ParseMonthDay(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// in returns the occurrence of the month-day in the given year and location.
func (m MonthDay) in(year int, loc *time.Location) time.Time {
	return time.Date(year, m.Month, m.Day, 0, 0, 0, 0, loc)
}

// Hydraulics describes the rotator zones a plant is watered through.
type Hydraulics struct {
	ZoneCount int     `json:"zone_count"`
	FlowRate  float64 `json:"flow_rate"` // m³/hour per rotator
	ZoneArea  float64 `json:"zone_area"` // m² per zone
}

// PlantProfile describes one entry of the plant roster.
type PlantProfile struct {
	ID                 int      `json:"id"`
	Name               string   `json:"name"`
	KcIni              float64  `json:"kc_ini"`
	KcMid              float64  `json:"kc_mid"`
	KcEnd              float64  `json:"kc_end"`
	RootDepthMin       float64  `json:"root_depth_min"` // m
	RootDepthMax       float64  `json:"root_depth_max"` // m
	HeightMax          float64  `json:"height_max"`     // m
	WaterDepletion     float64  `json:"water_depletion"`
	GrowingSeasonStart MonthDay `json:"growing_season_start"`
	GrowingSeasonEnd   MonthDay `json:"growing_season_end"`
	SoilType           SoilType `json:"soil_type"`

	// Hydraulics overrides the line defaults when non-nil.
	Hydraulics *Hydraulics `json:"hydraulics,omitempty"`
}

// HasSeason reports whether both growing season bounds are configured.
func (p PlantProfile) HasSeason() bool {
	return !p.GrowingSeasonStart.IsZero() && !p.GrowingSeasonEnd.IsZero()
}
