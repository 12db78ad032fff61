package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testLine  = Hydraulics{ZoneCount: 9, FlowRate: 0.11, ZoneArea: 100}
	testStart = time.Date(2024, time.July, 1, 5, 0, 0, 0, time.UTC)
)

func TestGenerateSchedule_NineZones(t *testing.T) {
	entries, err := GenerateSchedule(3, 5, testLine, testStart, DefaultDepthThreshold)
	require.NoError(t, err)
	require.Len(t, entries, 9)

	// 5 mm over 100 m² = 0.5 m³; 0.5 / 0.11 m³/h = 272.7 min, floored.
	for i, e := range entries {
		assert.Equal(t, i+1, e.ZoneID)
		assert.Equal(t, 3, e.PlantID)
		assert.Equal(t, 272, e.DurationMinutes)
		assert.InDelta(t, 0.5, e.WaterVolume, 1e-9)
		assert.Equal(t, StatusScheduled, e.Status)
		assert.Equal(t, testStart.Add(time.Duration(i*272)*time.Minute), e.StartTime)
	}
}

func TestGenerateSchedule_ContiguousAndIncreasing(t *testing.T) {
	for _, depth := range []float64{0.5, 1.3, 7.25, 40} {
		for zones := 1; zones <= 12; zones++ {
			h := Hydraulics{ZoneCount: zones, FlowRate: 0.4, ZoneArea: 80}
			entries, err := GenerateSchedule(1, depth, h, testStart, DefaultDepthThreshold)
			require.NoError(t, err)
			require.Len(t, entries, zones)

			assert.Equal(t, testStart, entries[0].StartTime)
			for i := 1; i < len(entries); i++ {
				assert.True(t, entries[i].StartTime.After(entries[i-1].StartTime))
				assert.Equal(t, entries[i-1].EndTime(), entries[i].StartTime)
			}
		}
	}
}

func TestGenerateSchedule_BelowThresholdIsEmpty(t *testing.T) {
	entries, err := GenerateSchedule(1, 0.3, testLine, testStart, 0.5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerateSchedule_ZeroRuntimeIsEmpty(t *testing.T) {
	// 0.6 mm over 10 m² = 0.006 m³ at 5 m³/h is 0.07 minutes.
	h := Hydraulics{ZoneCount: 4, FlowRate: 5, ZoneArea: 10}
	entries, err := GenerateSchedule(1, 0.6, h, testStart, 0.5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerateSchedule_ZeroThresholdZeroDepthIsEmpty(t *testing.T) {
	entries, err := GenerateSchedule(1, 0, testLine, testStart, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerateSchedule_DegenerateHydraulics(t *testing.T) {
	tests := []struct {
		name string
		h    Hydraulics
	}{
		{"zero flow rate", Hydraulics{ZoneCount: 9, FlowRate: 0, ZoneArea: 100}},
		{"negative flow rate", Hydraulics{ZoneCount: 9, FlowRate: -1, ZoneArea: 100}},
		{"zero zones", Hydraulics{ZoneCount: 0, FlowRate: 0.11, ZoneArea: 100}},
		{"zero area", Hydraulics{ZoneCount: 9, FlowRate: 0.11, ZoneArea: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateSchedule(1, 5, tt.h, testStart, 0.5)
			assert.ErrorIs(t, err, ErrComputation)
		})
	}
}

func TestGenerateSchedule_RuntimeBeyondDuration(t *testing.T) {
	slow := Hydraulics{ZoneCount: 3, FlowRate: 0.00012, ZoneArea: 1000}

	_, err := GenerateSchedule(1, 1000, slow, testStart, 0.5)
	assert.ErrorIs(t, err, ErrComputation)

	// One zone fits; three of them back to back do not.
	_, minutes, err := ZoneRuntime(20, Hydraulics{ZoneCount: 1, FlowRate: 0.00012, ZoneArea: 1000})
	require.NoError(t, err)
	assert.InDelta(t, 1e7, float64(minutes), 1)
	_, _, err = ZoneRuntime(1000, Hydraulics{ZoneCount: 1, FlowRate: 0.00012, ZoneArea: 1000})
	assert.ErrorIs(t, err, ErrComputation)
}

func TestGenerateSchedule_StartsNeverGoBackwards(t *testing.T) {
	slow := Hydraulics{ZoneCount: 3, FlowRate: 0.00012, ZoneArea: 1000}
	entries, err := GenerateSchedule(1, 60, slow, testStart, 0.5)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i := 1; i < len(entries); i++ {
		assert.True(t, entries[i].StartTime.After(entries[i-1].StartTime), "zone %d", entries[i].ZoneID)
		assert.Equal(t, entries[i-1].EndTime(), entries[i].StartTime)
	}
}

func TestGenerateSchedule_InvalidDepthOrThreshold(t *testing.T) {
	_, err := GenerateSchedule(1, -1, testLine, testStart, 0.5)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = GenerateSchedule(1, 5, testLine, testStart, -0.5)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSequenceOnLine(t *testing.T) {
	a, err := GenerateSchedule(1, 5, Hydraulics{ZoneCount: 2, FlowRate: 1, ZoneArea: 100}, testStart, 0.5)
	require.NoError(t, err)
	b, err := GenerateSchedule(3, 10, Hydraulics{ZoneCount: 3, FlowRate: 1, ZoneArea: 100}, testStart, 0.5)
	require.NoError(t, err)

	out := SequenceOnLine([][]ScheduleEntry{a, nil, b}, testStart)
	require.Len(t, out, 3)
	assert.Empty(t, out[1])

	// Plant 1: 30 min per zone, two zones. Plant 3 starts an hour later.
	assert.Equal(t, testStart, out[0][0].StartTime)
	assert.Equal(t, testStart.Add(time.Hour), out[2][0].StartTime)

	var all []ScheduleEntry
	for _, s := range out {
		all = append(all, s...)
	}
	for i := 1; i < len(all); i++ {
		assert.Equal(t, all[i-1].EndTime(), all[i].StartTime)
	}

	// Inputs are left untouched.
	assert.Equal(t, testStart, b[0].StartTime)
}

func TestSequenceOnLine_PreservesEntryFields(t *testing.T) {
	a, err := GenerateSchedule(1, 5, testLine, testStart, 0.5)
	require.NoError(t, err)

	out := SequenceOnLine([][]ScheduleEntry{a}, testStart)
	if diff := cmp.Diff(a, out[0]); diff != "" {
		t.Errorf("single schedule changed (-want +got):\n%s", diff)
	}
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusScheduled.CanTransition(StatusCompleted))
	assert.True(t, StatusScheduled.CanTransition(StatusCancelled))
	assert.False(t, StatusCompleted.CanTransition(StatusCancelled))
	assert.False(t, StatusCancelled.CanTransition(StatusScheduled))
	assert.False(t, StatusScheduled.CanTransition(StatusScheduled))

	st, err := ParseStatus("completed")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, st)

	_, err = ParseStatus("running")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
