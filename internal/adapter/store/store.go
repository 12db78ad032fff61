// Package store persists observations, decisions and schedules in SQLite.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/couchcryptid/irrigation-scheduler/internal/cycle"
	"github.com/couchcryptid/irrigation-scheduler/internal/domain"
	"github.com/couchcryptid/irrigation-scheduler/internal/retry"
)

const retryDelay = 250 * time.Millisecond

// Store is the relational sink for cycles and the source of truth for
// schedule status.
type Store struct {
	db      *gorm.DB
	timeout time.Duration
	logger  *slog.Logger
}

// Open connects to the SQLite database at path and migrates the schema.
func Open(ctx context.Context, path string, timeout time.Duration, logger *slog.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrStore, path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStore, err)
	}
	// SQLite allows a single writer; one connection avoids lock contention.
	sqlDB.SetMaxOpenConns(1)

	s := &Store{db: db, timeout: timeout, logger: logger}
	if err := s.Migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return s, nil
}

func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// Migrate creates or updates the tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.db.WithContext(ctx).AutoMigrate(&observationRow{}, &decisionRow{}, &scheduleRow{}); err != nil {
		return fmt.Errorf("%w: migrate: %w", domain.ErrStore, err)
	}
	s.logger.Info("store schema migrated")
	return nil
}

// StoreCycle writes the observation, decisions and schedule of one cycle in a
// single transaction. A failed attempt is rolled back and retried once.
func (s *Store) StoreCycle(ctx context.Context, rec cycle.Record) (cycle.Receipt, error) {
	var receipt cycle.Receipt
	err := s.withRetry(ctx, "store cycle", func(tx *gorm.DB) error {
		receipt = cycle.Receipt{}

		obs := observationFrom(rec.CycleID, rec.Observation)
		if err := tx.Create(&obs).Error; err != nil {
			return fmt.Errorf("insert observation: %w", err)
		}
		receipt.ObservationID = obs.ID

		names := make(map[int]string, len(rec.Decisions))
		if len(rec.Decisions) > 0 {
			rows := make([]decisionRow, len(rec.Decisions))
			for i, d := range rec.Decisions {
				rows[i] = decisionFrom(d)
				names[d.PlantID] = d.PlantName
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("insert decisions: %w", err)
			}
			for _, r := range rows {
				receipt.DecisionIDs = append(receipt.DecisionIDs, r.ID)
			}
		}

		if len(rec.Schedules) > 0 {
			rows := make([]scheduleRow, len(rec.Schedules))
			for i, e := range rec.Schedules {
				rows[i] = scheduleFrom(rec.CycleID, names[e.PlantID], e)
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("insert schedule: %w", err)
			}
			for _, r := range rows {
				receipt.ScheduleIDs = append(receipt.ScheduleIDs, r.ID)
			}
		}
		return nil
	})
	if err != nil {
		return cycle.Receipt{}, err
	}
	s.logger.Debug("cycle stored", "cycle_id", rec.CycleID,
		"decisions", len(receipt.DecisionIDs), "entries", len(receipt.ScheduleIDs))
	return receipt, nil
}

// StoreObservation inserts one observation and returns its ID.
func (s *Store) StoreObservation(ctx context.Context, cycleID string, obs domain.WeatherObservation) (int64, error) {
	row := observationFrom(cycleID, obs)
	err := s.withRetry(ctx, "store observation", func(tx *gorm.DB) error {
		row.ID = 0
		return tx.Create(&row).Error
	})
	return row.ID, err
}

// StoreDecision inserts one decision and returns its ID.
func (s *Store) StoreDecision(ctx context.Context, d domain.IrrigationDecision) (int64, error) {
	row := decisionFrom(d)
	err := s.withRetry(ctx, "store decision", func(tx *gorm.DB) error {
		row.ID = 0
		return tx.Create(&row).Error
	})
	return row.ID, err
}

// StoreSchedule inserts a plant's schedule entries and returns their IDs in
// input order.
func (s *Store) StoreSchedule(ctx context.Context, cycleID, plantName string, entries []domain.ScheduleEntry) ([]int64, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	var ids []int64
	err := s.withRetry(ctx, "store schedule", func(tx *gorm.DB) error {
		rows := make([]scheduleRow, len(entries))
		for i, e := range entries {
			rows[i] = scheduleFrom(cycleID, plantName, e)
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		ids = make([]int64, len(rows))
		for i, r := range rows {
			ids[i] = r.ID
		}
		return nil
	})
	return ids, err
}

// ActiveSchedule returns the scheduled entries whose run window contains at,
// ordered by start time.
func (s *Store) ActiveSchedule(ctx context.Context, at time.Time) ([]ScheduleRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	at = at.UTC()
	var rows []scheduleRow
	err := s.db.WithContext(ctx).
		Where("start_time <= ? AND end_time > ? AND status = ?", at, at, string(domain.StatusScheduled)).
		Order("start_time ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: active schedule: %w", domain.ErrStore, err)
	}
	return records(rows), nil
}

// ListSchedules returns every entry starting in [from, to), ordered by start
// time. A zero bound is open.
func (s *Store) ListSchedules(ctx context.Context, from, to time.Time) ([]ScheduleRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	q := s.db.WithContext(ctx).Model(&scheduleRow{})
	if !from.IsZero() {
		q = q.Where("start_time >= ?", from.UTC())
	}
	if !to.IsZero() {
		q = q.Where("start_time < ?", to.UTC())
	}
	var rows []scheduleRow
	if err := q.Order("start_time ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: list schedules: %w", domain.ErrStore, err)
	}
	return records(rows), nil
}

// UpdateStatus moves a schedule entry to a terminal status. Unknown IDs
// return domain.ErrNotFound; entries already completed or cancelled return
// domain.ErrInvalidInput.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status domain.Status) (ScheduleRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row scheduleRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: schedule entry %d", domain.ErrNotFound, id)
			}
			return fmt.Errorf("%w: load schedule entry %d: %w", domain.ErrStore, id, err)
		}
		current := domain.Status(row.Status)
		if !current.CanTransition(status) {
			return fmt.Errorf("%w: schedule entry %d cannot move from %s to %s", domain.ErrInvalidInput, id, current, status)
		}
		if err := tx.Model(&row).Update("status", string(status)).Error; err != nil {
			return fmt.Errorf("%w: update schedule entry %d: %w", domain.ErrStore, id, err)
		}
		return nil
	})
	if err != nil {
		return ScheduleRecord{}, err
	}
	s.logger.Info("schedule status updated", "id", id, "status", status)
	return row.record(), nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// withRetry runs fn in a transaction bounded by the store timeout, retrying
// once on failure. Errors are wrapped in domain.ErrStore.
func (s *Store) withRetry(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	err := retry.Once(ctx, retryDelay, func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return s.db.WithContext(attemptCtx).Transaction(fn)
	}, func(err error, _ time.Duration) {
		s.logger.Warn("store write failed, retrying", "op", op, "error", err)
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrStore, op, err)
	}
	return nil
}

func records(rows []scheduleRow) []ScheduleRecord {
	out := make([]ScheduleRecord, len(rows))
	for i, r := range rows {
		out[i] = r.record()
	}
	return out
}
