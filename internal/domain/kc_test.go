package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seasonalTomato(t *testing.T) PlantProfile {
	t.Helper()
	start, err := ParseMonthDay("04-01")
	require.NoError(t, err)
	end, err := ParseMonthDay("09-30")
	require.NoError(t, err)
	return PlantProfile{
		Name:               "tomato",
		KcIni:              0.6,
		KcMid:              1.15,
		KcEnd:              0.8,
		GrowingSeasonStart: start,
		GrowingSeasonEnd:   end,
	}
}

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 9, 30, 0, 0, time.UTC)
}

func TestMidSeasonKc_AlwaysMid(t *testing.T) {
	plant := seasonalTomato(t)
	for _, d := range []time.Time{day(time.January, 1), day(time.April, 2), day(time.September, 30)} {
		assert.InDelta(t, 1.15, MidSeasonKc{}.Select(plant, d), 1e-9)
	}
}

func TestSeasonalKc_Stages(t *testing.T) {
	plant := seasonalTomato(t)
	sel := SeasonalKc{}

	assert.InDelta(t, 0.6, sel.Select(plant, day(time.April, 1)), 1e-9, "season start")
	assert.InDelta(t, 0.6, sel.Select(plant, day(time.April, 20)), 1e-9, "initial stage")
	assert.InDelta(t, 1.15, sel.Select(plant, day(time.July, 1)), 1e-9, "mid season")
	assert.InDelta(t, 0.8, sel.Select(plant, day(time.September, 30)), 1e-9, "season end")
	assert.InDelta(t, 0.6, sel.Select(plant, day(time.January, 15)), 1e-9, "out of season")

	dev := sel.Select(plant, day(time.May, 15))
	assert.Greater(t, dev, 0.6)
	assert.Less(t, dev, 1.15)

	late := sel.Select(plant, day(time.September, 10))
	assert.Greater(t, late, 0.8)
	assert.Less(t, late, 1.15)
}

func TestSeasonalKc_NoSeasonFallsBackToMid(t *testing.T) {
	plant := PlantProfile{KcIni: 0.4, KcMid: 0.9, KcEnd: 0.7}
	assert.InDelta(t, 0.9, SeasonalKc{}.Select(plant, day(time.March, 3)), 1e-9)
}

func TestSeasonFraction_WrapsNewYear(t *testing.T) {
	start := MonthDay{Month: time.November, Day: 1}
	end := MonthDay{Month: time.February, Day: 28}

	f, ok := SeasonFraction(start, end, day(time.January, 15))
	require.True(t, ok)
	assert.Greater(t, f, 0.5)
	assert.Less(t, f, 0.7)

	f, ok = SeasonFraction(start, end, day(time.November, 1))
	require.True(t, ok)
	assert.Zero(t, f)

	_, ok = SeasonFraction(start, end, day(time.June, 1))
	assert.False(t, ok)
}

func TestParseKcStrategy(t *testing.T) {
	sel, err := ParseKcStrategy("")
	require.NoError(t, err)
	assert.IsType(t, MidSeasonKc{}, sel)

	sel, err = ParseKcStrategy("Seasonal")
	require.NoError(t, err)
	assert.IsType(t, SeasonalKc{}, sel)

	_, err = ParseKcStrategy("lunar")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
