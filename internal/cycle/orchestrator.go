package cycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/irrigation-scheduler/internal/config"
	"github.com/couchcryptid/irrigation-scheduler/internal/domain"
	"github.com/couchcryptid/irrigation-scheduler/internal/observability"
)

// ObservationProvider supplies the current weather observation.
type ObservationProvider interface {
	Fetch(ctx context.Context) (domain.WeatherObservation, error)
}

// ProfileProvider resolves plant and soil profiles by key.
type ProfileProvider interface {
	LookupPlant(name string) (domain.PlantProfile, error)
	LookupSoil(t domain.SoilType) (domain.SoilProfile, error)
}

// Options configures an Orchestrator.
type Options struct {
	Roster      []string
	Line        domain.Hydraulics
	Threshold   float64
	DefaultSoil domain.SoilType
	Kc          domain.KcSelector
	Workers     int

	// IrrigationStart is the local time the first zone of a cycle opens.
	IrrigationStart config.TimeOfDay
	Location        *time.Location
}

// OptionsFromConfig builds Options from service configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	kc, err := domain.ParseKcStrategy(cfg.KcStrategy)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Roster:          cfg.PlantRoster,
		Line:            cfg.Line,
		Threshold:       cfg.DepthThreshold,
		DefaultSoil:     cfg.DefaultSoilType,
		Kc:              kc,
		Workers:         cfg.PlantWorkers,
		IrrigationStart: cfg.IrrigationStart,
		Location:        cfg.Timezone,
	}, nil
}

// Orchestrator runs the daily fetch, estimate, decide, schedule, persist cycle.
type Orchestrator struct {
	weather  ObservationProvider
	profiles ProfileProvider
	sink     Sink
	opts     Options
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
	newID    func() string

	running atomic.Bool
	state   atomic.Int32
	last    atomic.Pointer[Result]

	// lineFree is when the last persisted schedule releases the line. Only
	// Run touches it, and Run is single-flight.
	lineFree time.Time
}

// New creates an Orchestrator with the given collaborators and observability.
func New(weather ObservationProvider, profiles ProfileProvider, sink Sink, opts Options, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Orchestrator {
	if opts.Kc == nil {
		opts.Kc = domain.MidSeasonKc{}
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.DefaultSoil == domain.SoilUnknown {
		opts.DefaultSoil = domain.SoilClay
	}
	return &Orchestrator{
		weather:  weather,
		profiles: profiles,
		sink:     sink,
		opts:     opts,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
		newID:    uuid.NewString,
	}
}

// State returns the orchestrator's current phase.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// LastResult returns the most recent cycle result, or nil before the first run.
func (o *Orchestrator) LastResult() *Result {
	return o.last.Load()
}

// CheckReadiness reports whether the persistence layer can accept a cycle.
func (o *Orchestrator) CheckReadiness(ctx context.Context) error {
	if rc, ok := o.sink.(readinessChecker); ok {
		return rc.CheckReadiness(ctx)
	}
	return nil
}

// Run executes one cycle. A fetch failure aborts before any plant is touched
// and wraps domain.ErrFetch. Per-plant failures are recorded in the result
// and do not fail the cycle. A persistence failure wraps domain.ErrStore and
// still returns the per-plant results. Concurrent calls are rejected with
// domain.ErrCycleInProgress.
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	if !o.running.CompareAndSwap(false, true) {
		o.metrics.CyclesTotal.WithLabelValues("rejected").Inc()
		return Result{}, domain.ErrCycleInProgress
	}
	defer o.running.Store(false)
	defer o.setState(StateIdle)

	started := o.clock.Now()
	res := Result{CycleID: o.newID(), StartedAt: started}
	logger := o.logger.With("cycle_id", res.CycleID)
	logger.Info("cycle started", "plants", len(o.opts.Roster))

	o.setState(StateFetching)
	obs, err := o.weather.Fetch(ctx)
	if err != nil {
		o.finish(&res, "fetch_failed")
		logger.Error("fetch observation failed", "error", err)
		if !errors.Is(err, domain.ErrFetch) {
			err = fmt.Errorf("%w: %w", domain.ErrFetch, err)
		}
		return res, fmt.Errorf("cycle %s: %w", res.CycleID, err)
	}
	res.Observation = obs

	o.setState(StateEstimating)
	et0, err := domain.EstimateET0(obs)
	if err != nil {
		o.finish(&res, "invalid_observation")
		logger.Error("estimate et0 failed", "error", err)
		return res, fmt.Errorf("cycle %s: %w", res.CycleID, err)
	}
	res.ET0 = et0
	o.metrics.LastET0.Set(et0)
	logger.Info("et0 estimated", "et0_mm", et0, "rainfall_mm", obs.Rainfall)

	o.setState(StateProcessing)
	start := o.irrigationStart(started)
	if o.lineFree.After(start) {
		logger.Info("line busy from previous cycle", "start", start, "line_free", o.lineFree)
		start = o.lineFree
	}
	res.Plants = o.processPlants(ctx, logger, res.CycleID, obs, et0, start)
	o.sequence(res.Plants, start)

	o.setState(StatePersisting)
	receipt, err := o.sink.StoreCycle(ctx, o.record(res))
	if err != nil {
		o.finish(&res, "store_failed")
		logger.Error("persist cycle failed", "error", err)
		if !errors.Is(err, domain.ErrStore) {
			err = fmt.Errorf("%w: %w", domain.ErrStore, err)
		}
		return res, fmt.Errorf("cycle %s: %w", res.CycleID, err)
	}
	res.Receipt = receipt
	if end := lineEnd(res.Plants); end.After(o.lineFree) {
		o.lineFree = end
	}

	o.finish(&res, "completed")
	logger.Info("cycle completed",
		"scheduled", res.Count(OutcomeScheduled),
		"skipped", res.Count(OutcomeSkipped),
		"failed", res.Count(OutcomeFailed),
		"duration", o.clock.Since(started),
	)
	return res, nil
}

// processPlants runs each roster plant on a bounded worker pool. Each
// goroutine writes only its own slot, so results stay in roster order.
func (o *Orchestrator) processPlants(ctx context.Context, logger *slog.Logger, cycleID string, obs domain.WeatherObservation, et0 float64, start time.Time) []PlantResult {
	results := make([]PlantResult, len(o.opts.Roster))

	var g errgroup.Group
	g.SetLimit(o.opts.Workers)
	for i, name := range o.opts.Roster {
		g.Go(func() error {
			results[i] = o.processPlant(ctx, cycleID, name, obs, et0, start)
			o.recordOutcome(logger, results[i])
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (o *Orchestrator) processPlant(ctx context.Context, cycleID, name string, obs domain.WeatherObservation, et0 float64, start time.Time) PlantResult {
	if err := ctx.Err(); err != nil {
		return failed(name, err)
	}

	plant, err := o.profiles.LookupPlant(name)
	if err != nil {
		return failed(name, err)
	}
	soilType := plant.SoilType
	if soilType == domain.SoilUnknown {
		soilType = o.opts.DefaultSoil
	}
	soil, err := o.profiles.LookupSoil(soilType)
	if err != nil {
		return withPlant(failed(name, fmt.Errorf("plant %q: %w", name, err)), plant)
	}

	kc := o.opts.Kc.Select(plant, obs.Timestamp.In(o.opts.Location))
	demand, err := domain.ComputeDepth(et0, kc, soil, obs.Rainfall)
	if err != nil {
		return withPlant(failed(name, fmt.Errorf("plant %q: %w", name, err)), plant)
	}
	decision := domain.NewDecision(cycleID, plant, et0, demand, o.clock.Now())

	line := o.opts.Line
	if plant.Hydraulics != nil {
		line = *plant.Hydraulics
	}
	entries, err := domain.GenerateSchedule(plant.ID, demand.Depth, line, start, o.opts.Threshold)
	if err != nil {
		return withPlant(failed(name, fmt.Errorf("plant %q: %w", name, err)), plant)
	}

	res := PlantResult{PlantName: name, PlantID: plant.ID, Decision: &decision}
	switch {
	case len(entries) > 0:
		res.Outcome = OutcomeScheduled
		res.Schedule = entries
	case demand.Depth < o.opts.Threshold:
		res.Outcome = OutcomeSkipped
		res.SkipReason = fmt.Sprintf("depth %.2f mm below threshold %.2f mm", demand.Depth, o.opts.Threshold)
	default:
		res.Outcome = OutcomeSkipped
		res.SkipReason = fmt.Sprintf("depth %.2f mm rounds to a zero-minute zone runtime", demand.Depth)
	}
	return res
}

// sequence shifts scheduled plants so they run one after another on the
// shared line in roster order.
func (o *Orchestrator) sequence(plants []PlantResult, start time.Time) {
	schedules := make([][]domain.ScheduleEntry, len(plants))
	for i, p := range plants {
		schedules[i] = p.Schedule
	}
	for i, s := range domain.SequenceOnLine(schedules, start) {
		if len(s) > 0 {
			plants[i].Schedule = s
		}
	}
}

func (o *Orchestrator) record(res Result) Record {
	rec := Record{
		CycleID:     res.CycleID,
		StartedAt:   res.StartedAt,
		Observation: res.Observation,
		ET0:         res.ET0,
	}
	for _, p := range res.Plants {
		if p.Decision != nil && p.Outcome != OutcomeFailed {
			rec.Decisions = append(rec.Decisions, *p.Decision)
		}
		rec.Schedules = append(rec.Schedules, p.Schedule...)
	}
	return rec
}

func (o *Orchestrator) recordOutcome(logger *slog.Logger, r PlantResult) {
	o.metrics.PlantOutcomes.WithLabelValues(string(r.Outcome)).Inc()
	switch r.Outcome {
	case OutcomeFailed:
		logger.Warn("plant failed", "plant", r.PlantName, "error", r.Err)
		return
	case OutcomeSkipped:
		logger.Info("plant skipped", "plant", r.PlantName, "reason", r.SkipReason)
	case OutcomeScheduled:
		var volume float64
		for _, e := range r.Schedule {
			volume += e.WaterVolume
		}
		o.metrics.ScheduledWater.Add(volume)
		logger.Info("plant scheduled", "plant", r.PlantName, "zones", len(r.Schedule),
			"runtime_minutes", r.Schedule[0].DurationMinutes, "volume_m3", volume)
	}
	o.metrics.IrrigationDepth.WithLabelValues(r.PlantName).Set(r.Decision.IrrigationDepth)
}

// lineEnd returns when the last scheduled zone of a cycle finishes.
func lineEnd(plants []PlantResult) time.Time {
	var end time.Time
	for _, p := range plants {
		if n := len(p.Schedule); n > 0 && p.Schedule[n-1].EndTime().After(end) {
			end = p.Schedule[n-1].EndTime()
		}
	}
	return end
}

// irrigationStart returns the next occurrence of the configured start time at
// or after now.
func (o *Orchestrator) irrigationStart(now time.Time) time.Time {
	local := now.In(o.opts.Location)
	start := o.opts.IrrigationStart.On(local)
	if start.Before(local) {
		start = o.opts.IrrigationStart.On(local.AddDate(0, 0, 1))
	}
	return start
}

func (o *Orchestrator) finish(res *Result, outcome string) {
	o.metrics.CyclesTotal.WithLabelValues(outcome).Inc()
	o.metrics.CycleDuration.Observe(o.clock.Since(res.StartedAt).Seconds())
	snapshot := *res
	o.last.Store(&snapshot)
}

func (o *Orchestrator) setState(s State) {
	o.state.Store(int32(s))
	o.metrics.CycleState.Set(float64(s))
}
