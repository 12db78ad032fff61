package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/irrigation-scheduler/internal/adapter/catalog"
	"github.com/couchcryptid/irrigation-scheduler/internal/adapter/influx"
	kafkaadapter "github.com/couchcryptid/irrigation-scheduler/internal/adapter/kafka"
	"github.com/couchcryptid/irrigation-scheduler/internal/adapter/store"
	"github.com/couchcryptid/irrigation-scheduler/internal/adapter/weather"
	"github.com/couchcryptid/irrigation-scheduler/internal/config"
	"github.com/couchcryptid/irrigation-scheduler/internal/cycle"
	"github.com/couchcryptid/irrigation-scheduler/internal/observability"
)

// app holds the wired components shared by serve and run.
type app struct {
	store        *store.Store
	sink         *cycle.Fanout
	orchestrator *cycle.Orchestrator
	closers      []func()
}

func newApp(ctx context.Context, cfg *config.Config, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) (*app, error) {
	if err := cfg.RequireWeatherCredentials(); err != nil {
		return nil, err
	}

	profiles, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if len(cfg.PlantRoster) == 0 {
		cfg.PlantRoster = profiles.Roster()
	}
	logger.Info("plant catalog loaded", "path", cfg.CatalogPath, "roster", cfg.PlantRoster)

	conditions := weather.NewWeatherbitClient(cfg.WeatherAPIKey, cfg.Location, cfg.WeatherTimeout, logger, metrics)
	solar := weather.NewCachedSolarSource(
		weather.NewNRELClient(cfg.SolarAPIKey, cfg.WeatherTimeout, logger, metrics),
		cfg.SolarCacheSize, metrics)
	provider := weather.NewProvider(conditions, solar, cfg.Latitude, cfg.Longitude, logger)

	db, err := store.Open(ctx, cfg.DBPath, cfg.StoreTimeout, logger)
	if err != nil {
		return nil, err
	}
	a := &app{store: db}
	a.closers = append(a.closers, func() {
		if err := db.Close(); err != nil {
			logger.Error("store close error", "error", err)
		}
	})

	var mirrors []cycle.NamedSink
	if cfg.KafkaEnabled {
		pub := kafkaadapter.NewPublisher(cfg, logger)
		mirrors = append(mirrors, cycle.NamedSink{Name: "kafka", Sink: pub})
		a.closers = append(a.closers, func() {
			if err := pub.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		})
		logger.Info("kafka schedule events enabled", "topic", cfg.KafkaScheduleTopic, "brokers", cfg.KafkaBrokers)
	}
	if cfg.InfluxEnabled() {
		sink := influx.NewSink(cfg, logger)
		mirrors = append(mirrors, cycle.NamedSink{Name: "influx", Sink: sink})
		a.closers = append(a.closers, sink.Close)
		logger.Info("influx mirror enabled", "url", cfg.InfluxURL, "bucket", cfg.InfluxBucket)
	}
	a.sink = cycle.NewFanout(cycle.NamedSink{Name: "sqlite", Sink: db}, mirrors, logger, metrics)

	opts, err := cycle.OptionsFromConfig(cfg)
	if err != nil {
		a.close()
		return nil, err
	}
	a.orchestrator = cycle.New(provider, profiles, a.sink, opts, clock, logger, metrics)
	return a, nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
