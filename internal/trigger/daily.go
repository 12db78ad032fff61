// Package trigger fires the irrigation cycle once a day at a configured
// local time.
package trigger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/irrigation-scheduler/internal/config"
	"github.com/couchcryptid/irrigation-scheduler/internal/cycle"
	"github.com/couchcryptid/irrigation-scheduler/internal/domain"
	"github.com/couchcryptid/irrigation-scheduler/internal/observability"
)

// CycleRunner runs one irrigation cycle.
type CycleRunner interface {
	Run(ctx context.Context) (cycle.Result, error)
}

// Daily calls CycleRunner.Run every day at a fixed wall-clock time.
type Daily struct {
	runner  CycleRunner
	at      config.TimeOfDay
	loc     *time.Location
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewDaily creates a trigger firing at the given time of day in loc.
func NewDaily(runner CycleRunner, at config.TimeOfDay, loc *time.Location, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Daily {
	if loc == nil {
		loc = time.Local
	}
	return &Daily{runner: runner, at: at, loc: loc, clock: clock, logger: logger, metrics: metrics}
}

// Next returns the first firing time strictly after now.
func (d *Daily) Next(now time.Time) time.Time {
	local := now.In(d.loc)
	next := d.at.On(local)
	if !next.After(now) {
		next = d.at.On(local.AddDate(0, 0, 1))
	}
	return next
}

// Run blocks until ctx is cancelled, running one cycle per day. A failed
// cycle is logged and the trigger waits for the next day.
func (d *Daily) Run(ctx context.Context) error {
	d.logger.Info("daily trigger started", "at", d.at.String(), "timezone", d.loc.String())

	for {
		next := d.Next(d.clock.Now())
		d.metrics.NextCycle.Set(float64(next.Unix()))
		d.logger.Info("next cycle scheduled", "at", next)

		if !d.sleepUntil(ctx, next) {
			d.logger.Info("daily trigger stopping", "reason", ctx.Err())
			return nil
		}

		res, err := d.runner.Run(ctx)
		switch {
		case errors.Is(err, domain.ErrCycleInProgress):
			d.logger.Warn("scheduled cycle skipped, another cycle is running")
		case err != nil:
			d.logger.Error("scheduled cycle failed", "cycle_id", res.CycleID, "error", err)
		default:
			d.logger.Info("scheduled cycle finished", "cycle_id", res.CycleID)
		}
	}
}

func (d *Daily) sleepUntil(ctx context.Context, at time.Time) bool {
	timer := d.clock.NewTimer(at.Sub(d.clock.Now()))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
