// Package xlsx writes persisted schedules to a spreadsheet.
package xlsx

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/irrigation-scheduler/internal/adapter/store"
)

// SheetName is the worksheet the schedule is written to.
const SheetName = "Schedule"

const timeLayout = "2006-01-02 15:04"

var header = []any{
	"ID", "Cycle", "Plant", "Plant ID", "Zone", "Start", "End", "Duration", "Water (m³)", "Status",
}

// Export writes one row per schedule entry, with times rendered in loc.
func Export(w io.Writer, records []store.ScheduleRecord, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			r.ID,
			r.CycleID,
			r.PlantName,
			r.PlantID,
			r.ZoneID,
			r.StartTime.In(loc).Format(timeLayout),
			r.EndTime().In(loc).Format(timeLayout),
			FormatDuration(r.DurationMinutes),
			r.WaterVolume,
			string(r.Status),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(SheetName, "B", "B", 38); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "F", "G", 18); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// FormatDuration renders whole minutes as hh:mm:ss.
func FormatDuration(minutes int) string {
	return fmt.Sprintf("%02d:%02d:00", minutes/60, minutes%60)
}
