package store

import (
	"time"

	"github.com/couchcryptid/irrigation-scheduler/internal/domain"
)

// Times are stored in UTC so SQLite's text comparison orders them correctly.

type observationRow struct {
	ID             int64     `gorm:"primaryKey"`
	CycleID        string    `gorm:"size:36;index"`
	Timestamp      time.Time `gorm:"not null;index:idx_weather_timestamp"`
	TempMax        float64   `gorm:"not null"`
	TempMin        float64   `gorm:"not null"`
	Humidity       float64   `gorm:"not null"`
	WindSpeed      float64   `gorm:"not null"`
	SolarRadiation float64   `gorm:"not null"`
	Rainfall       float64   `gorm:"not null"`
	CreatedAt      time.Time
}

func (observationRow) TableName() string { return "weather_observations" }

type decisionRow struct {
	ID              int64     `gorm:"primaryKey"`
	CycleID         string    `gorm:"size:36;index"`
	PlantID         int       `gorm:"not null;index"`
	PlantName       string    `gorm:"not null"`
	ET0             float64   `gorm:"column:et0;not null"`
	Kc              float64   `gorm:"not null"`
	ETc             float64   `gorm:"column:etc;not null"`
	EffectiveRain   float64   `gorm:"not null"`
	IrrigationDepth float64   `gorm:"not null"`
	Timestamp       time.Time `gorm:"not null;index:idx_decision_timestamp"`
	CreatedAt       time.Time
}

func (decisionRow) TableName() string { return "irrigation_decisions" }

type scheduleRow struct {
	ID              int64     `gorm:"primaryKey"`
	CycleID         string    `gorm:"size:36;index"`
	PlantID         int       `gorm:"not null;index"`
	PlantName       string    `gorm:"not null"`
	ZoneID          int       `gorm:"not null"`
	StartTime       time.Time `gorm:"not null;index:idx_schedule_start_time"`
	EndTime         time.Time `gorm:"not null"`
	DurationMinutes int       `gorm:"not null"`
	WaterVolume     float64   `gorm:"not null"`
	Status          string    `gorm:"size:20;not null;default:scheduled;index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (scheduleRow) TableName() string { return "irrigation_schedules" }

// ScheduleRecord is a persisted schedule entry.
type ScheduleRecord struct {
	ID        int64  `json:"id"`
	CycleID   string `json:"cycle_id"`
	PlantName string `json:"plant_name"`
	domain.ScheduleEntry
}

func (r scheduleRow) record() ScheduleRecord {
	return ScheduleRecord{
		ID:        r.ID,
		CycleID:   r.CycleID,
		PlantName: r.PlantName,
		ScheduleEntry: domain.ScheduleEntry{
			ZoneID:          r.ZoneID,
			PlantID:         r.PlantID,
			StartTime:       r.StartTime.UTC(),
			DurationMinutes: r.DurationMinutes,
			WaterVolume:     r.WaterVolume,
			Status:          domain.Status(r.Status),
		},
	}
}

func observationFrom(cycleID string, o domain.WeatherObservation) observationRow {
	return observationRow{
		CycleID:        cycleID,
		Timestamp:      o.Timestamp.UTC(),
		TempMax:        o.TempMax,
		TempMin:        o.TempMin,
		Humidity:       o.Humidity,
		WindSpeed:      o.WindSpeed,
		SolarRadiation: o.SolarRadiation,
		Rainfall:       o.Rainfall,
	}
}

func decisionFrom(d domain.IrrigationDecision) decisionRow {
	return decisionRow{
		CycleID:         d.CycleID,
		PlantID:         d.PlantID,
		PlantName:       d.PlantName,
		ET0:             d.ET0,
		Kc:              d.Kc,
		ETc:             d.ETc,
		EffectiveRain:   d.EffectiveRain,
		IrrigationDepth: d.IrrigationDepth,
		Timestamp:       d.Timestamp.UTC(),
	}
}

func scheduleFrom(cycleID, plantName string, e domain.ScheduleEntry) scheduleRow {
	status := e.Status
	if status == "" {
		status = domain.StatusScheduled
	}
	return scheduleRow{
		CycleID:         cycleID,
		PlantID:         e.PlantID,
		PlantName:       plantName,
		ZoneID:          e.ZoneID,
		StartTime:       e.StartTime.UTC(),
		EndTime:         e.EndTime().UTC(),
		DurationMinutes: e.DurationMinutes,
		WaterVolume:     e.WaterVolume,
		Status:          string(status),
	}
}
