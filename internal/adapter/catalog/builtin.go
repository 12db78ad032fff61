package catalog

import (
	"time"

	"github.com/couchcryptid/irrigation-scheduler/internal/domain"
)

// Soil water characteristics from FAO-56 table 19, mid-range values. Clay
// matches the Schriever clay of the reference site.
var builtinSoils = []domain.SoilProfile{
	{Type: domain.SoilSand, FieldCapacity: 0.12, WiltingPoint: 0.04, TotalAvailableWater: 80, ReadilyAvailableWater: 0.5},
	{Type: domain.SoilSandyLoam, FieldCapacity: 0.23, WiltingPoint: 0.10, TotalAvailableWater: 130, ReadilyAvailableWater: 0.5},
	{Type: domain.SoilLoam, FieldCapacity: 0.27, WiltingPoint: 0.12, TotalAvailableWater: 150, ReadilyAvailableWater: 0.5},
	{Type: domain.SoilClay, FieldCapacity: 0.36, WiltingPoint: 0.21, TotalAvailableWater: 150, ReadilyAvailableWater: 0.5},
}

// Crop coefficients and rooting from FAO-56 tables 12 and 22.
var builtinPlants = []domain.PlantProfile{
	{
		ID: 1, Name: "turfgrass",
		KcIni: 0.80, KcMid: 0.85, KcEnd: 0.85,
		RootDepthMin: 0.5, RootDepthMax: 1.0, HeightMax: 0.10, WaterDepletion: 0.5,
	},
	{
		ID: 2, Name: "citrus",
		KcIni: 0.70, KcMid: 0.65, KcEnd: 0.70,
		RootDepthMin: 1.1, RootDepthMax: 1.5, HeightMax: 4.0, WaterDepletion: 0.5,
	},
	{
		ID: 3, Name: "tomato",
		KcIni: 0.60, KcMid: 1.15, KcEnd: 0.80,
		RootDepthMin: 0.7, RootDepthMax: 1.5, HeightMax: 0.6, WaterDepletion: 0.4,
		GrowingSeasonStart: domain.MonthDay{Month: time.March, Day: 15},
		GrowingSeasonEnd:   domain.MonthDay{Month: time.July, Day: 31},
	},
}
