package trigger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/irrigation-scheduler/internal/config"
	"github.com/couchcryptid/irrigation-scheduler/internal/cycle"
	"github.com/couchcryptid/irrigation-scheduler/internal/domain"
	"github.com/couchcryptid/irrigation-scheduler/internal/observability"
)

type mockRunner struct {
	calls atomic.Int32
	ran   chan time.Time
	clock clockwork.Clock
	err   error
}

func (m *mockRunner) Run(_ context.Context) (cycle.Result, error) {
	m.calls.Add(1)
	m.ran <- m.clock.Now()
	return cycle.Result{CycleID: "cycle"}, m.err
}

func newDaily(t *testing.T, runner CycleRunner, clock clockwork.Clock, loc *time.Location) (*Daily, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDaily(runner, config.TimeOfDay{Hour: 4}, loc, clock, logger, metrics), metrics
}

func TestNext(t *testing.T) {
	cst := time.FixedZone("CST", -6*3600)
	d, _ := newDaily(t, nil, clockwork.NewFakeClock(), cst)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"later today", time.Date(2024, 7, 1, 1, 0, 0, 0, cst), time.Date(2024, 7, 1, 4, 0, 0, 0, cst)},
		{"exactly now rolls over", time.Date(2024, 7, 1, 4, 0, 0, 0, cst), time.Date(2024, 7, 2, 4, 0, 0, 0, cst)},
		{"already passed", time.Date(2024, 7, 1, 18, 0, 0, 0, cst), time.Date(2024, 7, 2, 4, 0, 0, 0, cst)},
		{"utc input", time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC), time.Date(2024, 7, 1, 4, 0, 0, 0, cst)},
		{"month end", time.Date(2024, 7, 31, 23, 0, 0, 0, cst), time.Date(2024, 8, 1, 4, 0, 0, 0, cst)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(d.Next(tt.now)), "got %v", d.Next(tt.now))
		})
	}
}

func TestNext_DST(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	d, _ := newDaily(t, nil, clockwork.NewFakeClock(), chicago)

	// Clocks spring forward on 2024-03-10; the cycle still fires at 04:00 local.
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, chicago)
	next := d.Next(now)
	assert.Equal(t, 4, next.In(chicago).Hour())
	assert.Equal(t, 15*time.Hour, next.Sub(now), "one wall-clock hour is skipped")
}

func TestRun_FiresDailyUntilCancelled(t *testing.T) {
	start := time.Date(2024, 7, 1, 3, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	runner := &mockRunner{ran: make(chan time.Time, 1), clock: clock, err: errors.New("weatherbit down")}
	d, metrics := newDaily(t, runner, clock, time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()

	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	assert.InDelta(t, float64(start.Add(time.Hour).Unix()), testutil.ToFloat64(metrics.NextCycle), 0)

	clock.Advance(59 * time.Minute)
	assert.Zero(t, runner.calls.Load())

	clock.Advance(time.Minute)
	select {
	case at := <-runner.ran:
		assert.True(t, start.Add(time.Hour).Equal(at))
	case <-waitCtx.Done():
		t.Fatal("cycle did not fire")
	}

	// A failed cycle does not stop the trigger.
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.NextCycle) == float64(start.Add(25*time.Hour).Unix())
	}, time.Second, 10*time.Millisecond)

	clock.Advance(24 * time.Hour)
	select {
	case <-runner.ran:
	case <-waitCtx.Done():
		t.Fatal("second cycle did not fire")
	}
	assert.Equal(t, int32(2), runner.calls.Load())

	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-waitCtx.Done():
		t.Fatal("trigger did not stop")
	}
}

func TestRun_CycleInProgressIsNotFatal(t *testing.T) {
	start := time.Date(2024, 7, 1, 3, 59, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	runner := &mockRunner{ran: make(chan time.Time, 1), clock: clock, err: domain.ErrCycleInProgress}
	d, _ := newDaily(t, runner, clock, time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()

	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	clock.Advance(time.Minute)
	<-runner.ran

	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	cancel()
	require.NoError(t, <-done)
}
