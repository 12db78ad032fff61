// Package influx mirrors cycle results into InfluxDB for dashboards.
package influx

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/couchcryptid/irrigation-scheduler/internal/config"
	"github.com/couchcryptid/irrigation-scheduler/internal/cycle"
)

// Sink writes one weather point and one point per plant decision per cycle.
// It implements cycle.Sink.
type Sink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	logger   *slog.Logger
}

// NewSink creates a sink for the configured InfluxDB endpoint.
func NewSink(cfg *config.Config, logger *slog.Logger) *Sink {
	base := strings.TrimSuffix(cfg.InfluxURL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.InfluxToken,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: cfg.StoreTimeout}))
	return &Sink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		logger:   logger,
	}
}

// StoreCycle implements cycle.Sink.
func (s *Sink) StoreCycle(ctx context.Context, rec cycle.Record) (cycle.Receipt, error) {
	points := Points(rec)
	if err := s.writeAPI.WritePoint(ctx, points...); err != nil {
		return cycle.Receipt{}, fmt.Errorf("write influx points: %w", err)
	}
	s.logger.Debug("cycle mirrored to influx", "cycle_id", rec.CycleID, "points", len(points))
	return cycle.Receipt{}, nil
}

// Close flushes and releases the client.
func (s *Sink) Close() {
	s.client.Close()
}

// Points converts a cycle record to line-protocol points.
func Points(rec cycle.Record) []*write.Point {
	obs := rec.Observation
	points := []*write.Point{
		write.NewPointWithMeasurement("weather_observation").
			AddTag("cycle_id", rec.CycleID).
			AddField("temp_max", obs.TempMax).
			AddField("temp_min", obs.TempMin).
			AddField("humidity", obs.Humidity).
			AddField("wind_speed", obs.WindSpeed).
			AddField("solar_radiation", obs.SolarRadiation).
			AddField("rainfall", obs.Rainfall).
			AddField("et0", rec.ET0).
			SetTime(obs.Timestamp),
	}

	water := make(map[int]float64)
	for _, e := range rec.Schedules {
		water[e.PlantID] += e.WaterVolume
	}
	for _, d := range rec.Decisions {
		points = append(points, write.NewPointWithMeasurement("irrigation_decision").
			AddTag("cycle_id", rec.CycleID).
			AddTag("plant", d.PlantName).
			AddTag("plant_id", strconv.Itoa(d.PlantID)).
			AddField("kc", d.Kc).
			AddField("etc", d.ETc).
			AddField("effective_rain", d.EffectiveRain).
			AddField("irrigation_depth", d.IrrigationDepth).
			AddField("scheduled_water", water[d.PlantID]).
			SetTime(d.Timestamp))
	}
	return points
}
