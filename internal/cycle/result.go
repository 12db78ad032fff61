package cycle

import (
	"time"

	"github.com/couchcryptid/irrigation-scheduler/internal/domain"
)

// Outcome is the terminal state of one plant within a cycle.
type Outcome string

const (
	OutcomeScheduled Outcome = "scheduled"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// PlantResult is the per-plant summary of a cycle.
type PlantResult struct {
	PlantName  string                     `json:"plant_name"`
	PlantID    int                        `json:"plant_id,omitempty"`
	Outcome    Outcome                    `json:"outcome"`
	Decision   *domain.IrrigationDecision `json:"decision,omitempty"`
	Schedule   []domain.ScheduleEntry     `json:"schedule,omitempty"`
	SkipReason string                     `json:"skip_reason,omitempty"`
	Err        error                      `json:"-"`
	Error      string                     `json:"error,omitempty"`
}

// Result summarises one completed or partially completed cycle.
type Result struct {
	CycleID     string                    `json:"cycle_id"`
	StartedAt   time.Time                 `json:"started_at"`
	Observation domain.WeatherObservation `json:"observation"`
	ET0         float64                   `json:"et0"`
	Plants      []PlantResult             `json:"plants"`
	Receipt     Receipt                   `json:"receipt"`
}

// Count returns how many plants ended with the given outcome.
func (r Result) Count(o Outcome) int {
	n := 0
	for _, p := range r.Plants {
		if p.Outcome == o {
			n++
		}
	}
	return n
}

func failed(name string, err error) PlantResult {
	return PlantResult{PlantName: name, Outcome: OutcomeFailed, Err: err, Error: err.Error()}
}

func withPlant(r PlantResult, p domain.PlantProfile) PlantResult {
	r.PlantID = p.ID
	return r
}
