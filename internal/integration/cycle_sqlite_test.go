package integration_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/irrigation-scheduler/internal/adapter/catalog"
	"github.com/couchcryptid/irrigation-scheduler/internal/adapter/influx"
	"github.com/couchcryptid/irrigation-scheduler/internal/adapter/store"
	"github.com/couchcryptid/irrigation-scheduler/internal/adapter/xlsx"
	"github.com/couchcryptid/irrigation-scheduler/internal/config"
	"github.com/couchcryptid/irrigation-scheduler/internal/cycle"
	"github.com/couchcryptid/irrigation-scheduler/internal/domain"
	"github.com/couchcryptid/irrigation-scheduler/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixedWeather struct {
	obs domain.WeatherObservation
}

func (f fixedWeather) Fetch(context.Context) (domain.WeatherObservation, error) { return f.obs, nil }

// influxRecorder collects line-protocol bodies posted to a fake InfluxDB.
type influxRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *influxRecorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	r.lines = append(r.lines, strings.Split(strings.TrimSpace(string(body)), "\n")...)
	r.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// TestCycle_SQLiteEndToEnd runs a full cycle against the built-in catalog,
// persists it in SQLite with an InfluxDB mirror, then reads the schedule
// back the way operators do.
func TestCycle_SQLiteEndToEnd(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()

	recorder := &influxRecorder{}
	influxSrv := httptest.NewServer(recorder)
	t.Cleanup(influxSrv.Close)

	cfg := &config.Config{
		KcStrategy:      "mid",
		Line:            domain.Hydraulics{ZoneCount: 9, FlowRate: 0.11, ZoneArea: 100},
		DepthThreshold:  domain.DefaultDepthThreshold,
		PlantWorkers:    2,
		IrrigationStart: config.TimeOfDay{Hour: 5},
		Timezone:        time.UTC,
		InfluxURL:       influxSrv.URL,
		InfluxToken:     "token",
		InfluxOrg:       "org",
		InfluxBucket:    "bucket",
		StoreTimeout:    5 * time.Second,
	}

	profiles := catalog.Default()
	cfg.PlantRoster = profiles.Roster()

	db, err := store.Open(ctx, filepath.Join(t.TempDir(), "irrigation.db"), cfg.StoreTimeout, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mirror := influx.NewSink(cfg, logger)
	t.Cleanup(mirror.Close)
	sink := cycle.NewFanout(cycle.NamedSink{Name: "sqlite", Sink: db},
		[]cycle.NamedSink{{Name: "influx", Sink: mirror}}, logger, metrics)

	opts, err := cycle.OptionsFromConfig(cfg)
	require.NoError(t, err)
	weather := fixedWeather{obs: domain.WeatherObservation{
		Timestamp:      time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
		TempMax:        30,
		TempMin:        20,
		Humidity:       60,
		WindSpeed:      2,
		SolarRadiation: 20,
	}}
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.July, 1, 4, 0, 0, 0, time.UTC))
	o := cycle.New(weather, profiles, sink, opts, clock, logger, metrics)

	res, err := o.Run(ctx)
	require.NoError(t, err)
	require.Len(t, res.Plants, 3)
	assert.Equal(t, 3, res.Count(cycle.OutcomeScheduled))
	assert.Len(t, res.Receipt.DecisionIDs, 3)
	require.Len(t, res.Receipt.ScheduleIDs, 27)

	stored, err := db.ListSchedules(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, stored, 27)
	var i int
	for _, p := range res.Plants {
		for _, e := range p.Schedule {
			assert.Equal(t, p.PlantName, stored[i].PlantName)
			assert.True(t, e.StartTime.Equal(stored[i].StartTime), "entry %d", i)
			assert.Equal(t, e.DurationMinutes, stored[i].DurationMinutes)
			if i > 0 {
				assert.True(t, stored[i-1].EndTime().Equal(stored[i].StartTime), "entry %d overlaps or leaves a gap", i)
			}
			i++
		}
	}

	first := stored[0]
	assert.Equal(t, "turfgrass", first.PlantName)
	active, err := db.ActiveSchedule(ctx, first.StartTime.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, first.ID, active[0].ID)

	_, err = db.UpdateStatus(ctx, first.ID, domain.StatusCompleted)
	require.NoError(t, err)
	active, err = db.ActiveSchedule(ctx, first.StartTime.Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, active)

	recorder.mu.Lock()
	lines := recorder.lines
	recorder.mu.Unlock()
	require.Len(t, lines, 4, "one weather point plus one point per decision")
	assert.True(t, strings.HasPrefix(lines[0], "weather_observation,"))

	var buf bytes.Buffer
	require.NoError(t, xlsx.Export(&buf, stored, time.UTC))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(xlsx.SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 28)
}
