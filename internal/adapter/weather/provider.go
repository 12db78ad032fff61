package weather

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/irrigation-scheduler/internal/domain"
)

// ConditionsSource supplies the day's surface conditions.
type ConditionsSource interface {
	Current(ctx context.Context) (Conditions, error)
}

// Provider combines conditions and solar resource into one observation.
type Provider struct {
	conditions ConditionsSource
	solar      SolarSource
	lat, lon   float64
	logger     *slog.Logger
}

// NewProvider creates an observation provider for the site at lat, lon.
func NewProvider(conditions ConditionsSource, solar SolarSource, lat, lon float64, logger *slog.Logger) *Provider {
	return &Provider{conditions: conditions, solar: solar, lat: lat, lon: lon, logger: logger}
}

// Fetch returns the current observation. Any collaborator failure is wrapped
// in domain.ErrFetch.
func (p *Provider) Fetch(ctx context.Context) (domain.WeatherObservation, error) {
	cond, err := p.conditions.Current(ctx)
	if err != nil {
		return domain.WeatherObservation{}, fmt.Errorf("%w: conditions: %w", domain.ErrFetch, err)
	}
	res, err := p.solar.SolarResource(ctx, p.lat, p.lon)
	if err != nil {
		return domain.WeatherObservation{}, fmt.Errorf("%w: solar resource: %w", domain.ErrFetch, err)
	}

	obs := domain.WeatherObservation{
		Timestamp:      cond.Timestamp,
		TempMax:        cond.TempMax,
		TempMin:        cond.TempMin,
		Humidity:       cond.Humidity,
		WindSpeed:      cond.WindSpeed,
		SolarRadiation: res.DailyRadiation(cond.Timestamp.Month()),
		Rainfall:       cond.Rainfall,
	}
	p.logger.Debug("observation fetched",
		"timestamp", obs.Timestamp,
		"temp_max", obs.TempMax,
		"temp_min", obs.TempMin,
		"solar_mj", obs.SolarRadiation,
	)
	return obs, nil
}
