package xlsx

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/irrigation-scheduler/internal/adapter/store"
	"github.com/couchcryptid/irrigation-scheduler/internal/domain"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "00:00:00"},
		{9, "00:09:00"},
		{272, "04:32:00"},
		{1500, "25:00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.minutes))
	}
}

func TestExport(t *testing.T) {
	start := time.Date(2024, time.July, 1, 10, 0, 0, 0, time.UTC)
	records := []store.ScheduleRecord{
		{ID: 1, CycleID: "cycle-1", PlantName: "citrus", ScheduleEntry: domain.ScheduleEntry{
			ZoneID: 1, PlantID: 2, StartTime: start, DurationMinutes: 272, WaterVolume: 0.5, Status: domain.StatusScheduled,
		}},
		{ID: 2, CycleID: "cycle-1", PlantName: "citrus", ScheduleEntry: domain.ScheduleEntry{
			ZoneID: 2, PlantID: 2, StartTime: start.Add(272 * time.Minute), DurationMinutes: 272, WaterVolume: 0.5, Status: domain.StatusCancelled,
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, records, time.FixedZone("CDT", -5*3600)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"ID", "Cycle", "Plant", "Plant ID", "Zone", "Start", "End", "Duration", "Water (m³)", "Status"}, rows[0])
	assert.Equal(t, []string{"1", "cycle-1", "citrus", "2", "1", "2024-07-01 05:00", "2024-07-01 09:32", "04:32:00", "0.5", "scheduled"}, rows[1])
	assert.Equal(t, "cancelled", rows[2][9])
}

func TestExport_EmptyWritesHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, nil, time.UTC))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
