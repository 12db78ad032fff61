package cycle_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/irrigation-scheduler/internal/cycle"
	"github.com/couchcryptid/irrigation-scheduler/internal/observability"
)

type readySink struct {
	mockSink
	ready error
}

func (r *readySink) CheckReadiness(context.Context) error { return r.ready }

func TestFanout_MirrorFailureIsNotFatal(t *testing.T) {
	primary := &mockSink{}
	good := &mockSink{}
	bad := &mockSink{err: errors.New("broker down")}
	metrics := observability.NewMetricsForTesting()

	f := cycle.NewFanout(
		cycle.NamedSink{Name: "sqlite", Sink: primary},
		[]cycle.NamedSink{{Name: "kafka", Sink: bad}, {Name: "influx", Sink: good}},
		slog.Default(), metrics,
	)

	receipt, err := f.StoreCycle(context.Background(), cycle.Record{CycleID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), receipt.ObservationID)
	assert.Len(t, primary.records, 1)
	assert.Len(t, good.records, 1)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SinkErrors.WithLabelValues("kafka")), 0)
}

func TestFanout_PrimaryFailureStopsMirrors(t *testing.T) {
	primary := &mockSink{err: errors.New("locked")}
	mirror := &mockSink{}
	metrics := observability.NewMetricsForTesting()

	f := cycle.NewFanout(cycle.NamedSink{Name: "sqlite", Sink: primary}, []cycle.NamedSink{{Name: "kafka", Sink: mirror}}, slog.Default(), metrics)

	_, err := f.StoreCycle(context.Background(), cycle.Record{CycleID: "c1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite")
	assert.Empty(t, mirror.records)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.SinkErrors.WithLabelValues("sqlite")), 0)
}

func TestFanout_CheckReadinessDelegatesToPrimary(t *testing.T) {
	primary := &readySink{ready: errors.New("database is closed")}
	f := cycle.NewFanout(cycle.NamedSink{Name: "sqlite", Sink: primary}, nil, slog.Default(), observability.NewMetricsForTesting())
	assert.EqualError(t, f.CheckReadiness(context.Background()), "database is closed")

	primary.ready = nil
	assert.NoError(t, f.CheckReadiness(context.Background()))

	plain := cycle.NewFanout(cycle.NamedSink{Name: "memory", Sink: &mockSink{}}, nil, slog.Default(), observability.NewMetricsForTesting())
	assert.NoError(t, plain.CheckReadiness(context.Background()))
}

func TestOrchestrator_CheckReadinessUsesSink(t *testing.T) {
	o := newOrchestrator(t, &mockWeather{}, newProfiles(), &readySink{ready: errors.New("not migrated")})
	assert.Error(t, o.CheckReadiness(context.Background()))
}
