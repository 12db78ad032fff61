package weather

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/irrigation-scheduler/internal/domain"
)

type stubConditions struct {
	cond Conditions
	err  error
}

func (s stubConditions) Current(context.Context) (Conditions, error) { return s.cond, s.err }

type stubSolar struct {
	res SolarResource
	err error
}

func (s stubSolar) SolarResource(context.Context, float64, float64) (SolarResource, error) {
	return s.res, s.err
}

func TestProvider_Fetch_CombinesSources(t *testing.T) {
	ts := time.Date(2024, time.July, 1, 12, 0, 0, 0, time.UTC)
	cond := Conditions{Timestamp: ts, TempMax: 32, TempMin: 23, Humidity: 65, WindSpeed: 2.5, Rainfall: 3}
	solar := SolarResource{AnnualGHI: 5, MonthlyGHI: map[time.Month]float64{time.July: 6}}

	p := NewProvider(stubConditions{cond: cond}, stubSolar{res: solar}, 29.95, -90.07, discardLogger())
	obs, err := p.Fetch(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 21.6, obs.SolarRadiation, 1e-9)
	obs.SolarRadiation = 0
	assert.Equal(t, domain.WeatherObservation{
		Timestamp: ts,
		TempMax:   32,
		TempMin:   23,
		Humidity:  65,
		WindSpeed: 2.5,
		Rainfall:  3,
	}, obs)
}

func TestProvider_Fetch_WrapsErrFetch(t *testing.T) {
	boom := errors.New("boom")

	p := NewProvider(stubConditions{err: boom}, stubSolar{}, 0, 0, discardLogger())
	_, err := p.Fetch(context.Background())
	require.ErrorIs(t, err, domain.ErrFetch)
	assert.ErrorIs(t, err, boom)

	p = NewProvider(stubConditions{}, stubSolar{err: boom}, 0, 0, discardLogger())
	_, err = p.Fetch(context.Background())
	require.ErrorIs(t, err, domain.ErrFetch)
	assert.Contains(t, err.Error(), "solar resource")
}
