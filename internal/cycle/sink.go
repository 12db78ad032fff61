package cycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/irrigation-scheduler/internal/domain"
	"github.com/couchcryptid/irrigation-scheduler/internal/observability"
)

// Record is everything one cycle hands to persistence.
type Record struct {
	CycleID     string
	StartedAt   time.Time
	Observation domain.WeatherObservation
	ET0         float64
	Decisions   []domain.IrrigationDecision
	Schedules   []domain.ScheduleEntry
}

// Receipt carries the identifiers the primary store assigned to a Record.
type Receipt struct {
	ObservationID int64   `json:"observation_id,omitempty"`
	DecisionIDs   []int64 `json:"decision_ids,omitempty"`
	ScheduleIDs   []int64 `json:"schedule_ids,omitempty"`
}

// Sink persists a finished cycle.
type Sink interface {
	StoreCycle(ctx context.Context, rec Record) (Receipt, error)
}

// NamedSink labels a mirror sink for logs and metrics.
type NamedSink struct {
	Name string
	Sink Sink
}

// Fanout writes to a primary sink and then to best-effort mirrors. Only a
// primary failure fails the cycle; mirror failures are logged and counted.
type Fanout struct {
	primary NamedSink
	mirrors []NamedSink
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewFanout creates a Fanout over the primary store and any mirrors.
func NewFanout(primary NamedSink, mirrors []NamedSink, logger *slog.Logger, metrics *observability.Metrics) *Fanout {
	return &Fanout{primary: primary, mirrors: mirrors, logger: logger, metrics: metrics}
}

// StoreCycle implements Sink.
func (f *Fanout) StoreCycle(ctx context.Context, rec Record) (Receipt, error) {
	receipt, err := f.primary.Sink.StoreCycle(ctx, rec)
	if err != nil {
		f.metrics.SinkErrors.WithLabelValues(f.primary.Name).Inc()
		return Receipt{}, fmt.Errorf("%s: %w", f.primary.Name, err)
	}

	var mirrorErrs []error
	for _, m := range f.mirrors {
		if _, err := m.Sink.StoreCycle(ctx, rec); err != nil {
			f.metrics.SinkErrors.WithLabelValues(m.Name).Inc()
			mirrorErrs = append(mirrorErrs, fmt.Errorf("%s: %w", m.Name, err))
		}
	}
	if err := errors.Join(mirrorErrs...); err != nil {
		f.logger.Warn("mirror sink failed", "cycle_id", rec.CycleID, "error", err)
	}
	return receipt, nil
}

// CheckReadiness reports the primary sink's readiness when it exposes one.
func (f *Fanout) CheckReadiness(ctx context.Context) error {
	if rc, ok := f.primary.Sink.(readinessChecker); ok {
		return rc.CheckReadiness(ctx)
	}
	return nil
}

type readinessChecker interface {
	CheckReadiness(ctx context.Context) error
}
