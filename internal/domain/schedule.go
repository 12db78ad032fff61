package domain

import (
	"math"
	"time"
)

// DefaultDepthThreshold is the depth in mm below which no irrigation is scheduled.
const DefaultDepthThreshold = 0.5

// Status is the lifecycle state of a schedule entry. The engine only creates
// entries as StatusScheduled; operators move them to a terminal state.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return st, nil
	default:
		return "", invalidf("status %q", s)
	}
}

// CanTransition reports whether an entry may move from s to next.
// Completed and cancelled entries are terminal.
func (s Status) CanTransition(next Status) bool {
	return s == StatusScheduled && (next == StatusCompleted || next == StatusCancelled)
}

// ScheduleEntry is one zone run on the shared supply line.
type ScheduleEntry struct {
	ZoneID          int       `json:"zone_id"`
	PlantID         int       `json:"plant_id"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	WaterVolume     float64   `json:"water_volume"` // m³
	Status          Status    `json:"status"`
}

// EndTime is the moment the zone stops drawing from the line.
func (e ScheduleEntry) EndTime() time.Time {
	return e.StartTime.Add(time.Duration(e.DurationMinutes) * time.Minute)
}

// Validate reports ErrComputation for hydraulics no schedule can be built from.
func (h Hydraulics) Validate() error {
	switch {
	case h.ZoneCount < 1:
		return computef("zone_count %d must be at least 1", h.ZoneCount)
	case !isFinite(h.FlowRate) || h.FlowRate <= 0:
		return computef("flow_rate %v must be positive", h.FlowRate)
	case !isFinite(h.ZoneArea) || h.ZoneArea <= 0:
		return computef("zone_area %v must be positive", h.ZoneArea)
	}
	return nil
}

// maxRunMinutes is the longest span, in minutes, a time.Duration can hold.
const maxRunMinutes = float64(math.MaxInt64 / int64(time.Minute))

// ZoneRuntime converts a depth into the per-zone volume (m³) and the whole
// number of minutes a rotator needs to deliver it. Minutes are floored so a
// zone is never over-watered. The runtime of every zone together must fit in
// a time.Duration.
func ZoneRuntime(depth float64, h Hydraulics) (volume float64, minutes int, err error) {
	volume = depth * h.ZoneArea / 1000
	runtime := math.Floor(volume / h.FlowRate * 60)
	if !isFinite(runtime) || runtime*float64(max(h.ZoneCount, 1)) > maxRunMinutes {
		return 0, 0, computef("runtime for depth %v overflows", depth)
	}
	return volume, int(runtime), nil
}

// GenerateSchedule builds the zone runs for one plant starting at start.
// It returns an empty schedule when depth is below threshold or rounds down
// to a zero-minute runtime; a degenerate entry is never emitted. Otherwise it
// returns exactly h.ZoneCount entries, zone IDs 1..ZoneCount, each starting
// when the previous zone ends.
func GenerateSchedule(plantID int, depth float64, h Hydraulics, start time.Time, threshold float64) ([]ScheduleEntry, error) {
	if !isFinite(threshold) || threshold < 0 {
		return nil, invalidf("threshold %v must be a non-negative number", threshold)
	}
	if !isFinite(depth) || depth < 0 {
		return nil, invalidf("depth %v must be a non-negative number", depth)
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}

	if depth < threshold {
		return nil, nil
	}
	volume, runtime, err := ZoneRuntime(depth, h)
	if err != nil {
		return nil, err
	}
	if runtime == 0 {
		return nil, nil
	}

	entries := make([]ScheduleEntry, 0, h.ZoneCount)
	step := time.Duration(runtime) * time.Minute
	at := start
	for zone := 1; zone <= h.ZoneCount; zone++ {
		entries = append(entries, ScheduleEntry{
			ZoneID:          zone,
			PlantID:         plantID,
			StartTime:       at,
			DurationMinutes: runtime,
			WaterVolume:     volume,
			Status:          StatusScheduled,
		})
		at = at.Add(step)
	}
	return entries, nil
}

// SequenceOnLine chains per-plant schedules on the shared line in the given
// order: the first non-empty schedule starts at start and each later one
// begins when the previous one ends. Empty schedules are kept as empty. The
// input is not modified.
func SequenceOnLine(schedules [][]ScheduleEntry, start time.Time) [][]ScheduleEntry {
	out := make([][]ScheduleEntry, len(schedules))
	cursor := start
	for i, sched := range schedules {
		if len(sched) == 0 {
			continue
		}
		shift := cursor.Sub(sched[0].StartTime)
		shifted := make([]ScheduleEntry, len(sched))
		for j, e := range sched {
			e.StartTime = e.StartTime.Add(shift)
			shifted[j] = e
		}
		out[i] = shifted
		cursor = shifted[len(shifted)-1].EndTime()
	}
	return out
}
