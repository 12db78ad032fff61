package weather

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/couchcryptid/irrigation-scheduler/internal/observability"
)

// Conditions are the day's surface conditions, without solar radiation.
type Conditions struct {
	Timestamp time.Time
	TempMax   float64 // °C
	TempMin   float64 // °C
	Humidity  float64 // %
	WindSpeed float64 // m/s
	Rainfall  float64 // mm
}

// WeatherbitClient reads current conditions for a city from the Weatherbit API.
type WeatherbitClient struct {
	apiClient
	apiKey string
	city   string
}

// NewWeatherbitClient creates a Weatherbit client for one city.
func NewWeatherbitClient(apiKey, city string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *WeatherbitClient {
	return &WeatherbitClient{
		apiClient: newAPIClient("weatherbit", "https://api.weatherbit.io/v2.0", timeout, logger, metrics),
		apiKey:    apiKey,
		city:      city,
	}
}

// Current returns the latest conditions. When the API omits the daily
// max/min temperatures, the current temperature stands in for both.
func (c *WeatherbitClient) Current(ctx context.Context) (Conditions, error) {
	params := url.Values{
		"city":  {c.city},
		"key":   {c.apiKey},
		"units": {"M"},
	}

	var resp currentResponse
	if err := c.getJSON(ctx, c.baseURL+"/current?"+params.Encode(), &resp); err != nil {
		return Conditions{}, err
	}
	if len(resp.Data) == 0 {
		return Conditions{}, errors.New("weatherbit returned no observations")
	}

	d := resp.Data[0]
	if d.Temp == nil && (d.MaxTemp == nil || d.MinTemp == nil) {
		return Conditions{}, errors.New("weatherbit observation has no temperature")
	}
	if d.RH == nil || d.WindSpd == nil {
		return Conditions{}, errors.New("weatherbit observation is missing humidity or wind speed")
	}

	out := Conditions{
		Timestamp: time.Unix(d.TS, 0).UTC(),
		TempMax:   orFallback(d.MaxTemp, d.Temp),
		TempMin:   orFallback(d.MinTemp, d.Temp),
		Humidity:  *d.RH,
		WindSpeed: *d.WindSpd,
	}
	if d.Precip != nil {
		out.Rainfall = *d.Precip
	}
	return out, nil
}

func orFallback(v, fallback *float64) float64 {
	if v != nil {
		return *v
	}
	return *fallback
}

// Weatherbit API response types.

type currentResponse struct {
	Data []currentData `json:"data"`
}

type currentData struct {
	TS      int64    `json:"ts"`
	Temp    *float64 `json:"temp"`
	MaxTemp *float64 `json:"max_temp"`
	MinTemp *float64 `json:"min_temp"`
	RH      *float64 `json:"rh"`
	WindSpd *float64 `json:"wind_spd"`
	Precip  *float64 `json:"precip"`
}
